package dht

import (
	"github.com/waggleworks/waggle/src/cas"
	"github.com/waggleworks/waggle/src/eav"
	"github.com/waggleworks/waggle/src/entry"
	"github.com/waggleworks/waggle/src/net"
)

// Store is an immutable snapshot of the node's DHT state: the aggregate of a
// content-addressable store handle, an attribute store handle and a network
// handle, at a point in the state history. The handles are shared across the
// whole history; the underlying storage grows in place, and each snapshot is
// a view over it.
//
// Only the reduction engine mutates through the handles. Everyone else holds
// snapshots as readers and uses the non-mutating accessors below, so readers
// never block the writer and never observe a partial update.
type Store struct {
	cas     cas.Store
	eav     eav.Store
	network net.Network

	version int
}

// NewStore instantiates the initial snapshot, at version 0, over the given
// capability handles.
func NewStore(casStore cas.Store, eavStore eav.Store, network net.Network) *Store {
	return &Store{
		cas:     casStore,
		eav:     eavStore,
		network: network,
	}
}

// Clone derives the next snapshot. The handles are shared, not copied; only
// the version advances. A clone whose reduction is rejected is simply
// discarded, so published versions stay consecutive.
func (s *Store) Clone() *Store {
	return &Store{
		cas:     s.cas,
		eav:     s.eav,
		network: s.network,
		version: s.version + 1,
	}
}

// Version returns the snapshot's position in the state history.
func (s *Store) Version() int {
	return s.version
}

// Contains reports whether an address is held in local storage.
func (s *Store) Contains(address string) (bool, error) {
	return s.cas.Contains(address)
}

// Fetch retrieves the entry at an address from local storage only. It never
// touches the network; filling local storage from peers is the get-entry
// reduction's job.
func (s *Store) Fetch(address string) (*entry.Entry, error) {
	return s.cas.Fetch(address)
}
