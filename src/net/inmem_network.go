package net

import (
	"sync"

	cm "github.com/waggleworks/waggle/src/common"
	"github.com/waggleworks/waggle/src/entry"
)

// InmemHub connects InmemNetworks within the same process. It plays the role
// of the rest of the group: whatever one member publishes becomes gettable by
// every other member.
type InmemHub struct {
	sync.RWMutex
	members map[string]*InmemNetwork
}

// NewInmemHub instantiates an empty InmemHub.
func NewInmemHub() *InmemHub {
	return &InmemHub{
		members: make(map[string]*InmemNetwork),
	}
}

// Join adds a member to the hub.
func (h *InmemHub) Join(n *InmemNetwork) {
	h.Lock()
	defer h.Unlock()
	h.members[n.id] = n
}

// get scans the other members for an address.
func (h *InmemHub) get(address string, exclude string) ([]byte, error) {
	h.RLock()
	defer h.RUnlock()

	for id, member := range h.members {
		if id == exclude {
			continue
		}
		if data, ok := member.getRaw(address); ok {
			return data, nil
		}
	}

	return nil, cm.NewStoreErr("Network", cm.KeyNotFound, address)
}

// InmemNetwork implements the Network interface, to allow waggle to be tested
// in-memory without going over a network. Members publish into their own
// entry map, and get from the other members of the hub.
type InmemNetwork struct {
	id  string
	hub *InmemHub

	entriesLock sync.RWMutex
	entries     map[string][]byte
}

// NewInmemNetwork creates an InmemNetwork and joins it to the hub.
func NewInmemNetwork(id string, hub *InmemHub) *InmemNetwork {
	res := &InmemNetwork{
		id:      id,
		hub:     hub,
		entries: make(map[string][]byte),
	}

	hub.Join(res)

	return res
}

// Publish implements the Network interface.
func (n *InmemNetwork) Publish(e *entry.Entry) error {
	data, err := e.Marshal()
	if err != nil {
		return err
	}

	n.entriesLock.Lock()
	n.entries[e.Address()] = data
	n.entriesLock.Unlock()

	return nil
}

// Get implements the Network interface.
func (n *InmemNetwork) Get(address string) ([]byte, error) {
	return n.hub.get(address, n.id)
}

// SetRaw places raw bytes at an address in the member's entry map, without
// going through an entry. Tests use it to simulate peers that hold data which
// does not match its address.
func (n *InmemNetwork) SetRaw(address string, data []byte) {
	n.entriesLock.Lock()
	n.entries[address] = data
	n.entriesLock.Unlock()
}

func (n *InmemNetwork) getRaw(address string) ([]byte, bool) {
	n.entriesLock.RLock()
	defer n.entriesLock.RUnlock()

	data, ok := n.entries[address]
	return data, ok
}
