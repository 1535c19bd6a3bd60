package net

import (
	"github.com/sirupsen/logrus"

	cm "github.com/waggleworks/waggle/src/common"
	"github.com/waggleworks/waggle/src/entry"
	"github.com/waggleworks/waggle/src/peers"
)

// PeerNetwork implements the Network interface over a Transport. Publishing
// fans out to all the other peers in the peer-set without waiting for their
// responses. Getting queries the other peers one by one and returns the first
// hit.
type PeerNetwork struct {
	id    uint32
	peers *peers.PeerSet
	trans Transport

	logger *logrus.Entry
}

// NewPeerNetwork instantiates a PeerNetwork. The id identifies the local node
// within the peer-set, so that requests are not sent to ourselves.
func NewPeerNetwork(
	id uint32,
	peerSet *peers.PeerSet,
	trans Transport,
	logger *logrus.Entry,
) *PeerNetwork {

	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &PeerNetwork{
		id:     id,
		peers:  peerSet,
		trans:  trans,
		logger: logger,
	}
}

// target returns the address used to reach a peer through the transport.
// With WebRTC, peers register with the signaling server under their public
// keys, and do not necessarily set a NetAddr.
func target(p *peers.Peer) string {
	if p.NetAddr != "" {
		return p.NetAddr
	}
	return p.PubKeyString()
}

// Publish implements the Network interface. Errors from individual peers are
// logged and otherwise ignored; a peer that missed the entry can still get it
// later on demand.
func (n *PeerNetwork) Publish(e *entry.Entry) error {
	data, err := e.Marshal()
	if err != nil {
		return err
	}

	req := PublishRequest{
		FromID: n.id,
		Entry:  data,
	}

	for _, p := range n.peers.Peers {
		if p.ID() == n.id {
			continue
		}

		go func(target string) {
			var resp PublishResponse
			if err := n.trans.Publish(target, &req, &resp); err != nil {
				n.logger.WithFields(logrus.Fields{
					"target": target,
					"error":  err,
				}).Warning("Failed to publish entry")
			}
		}(target(p))
	}

	return nil
}

// Get implements the Network interface. Peers that fail to respond are
// skipped; if no peer holds the address, a KeyNotFound error is returned.
func (n *PeerNetwork) Get(address string) ([]byte, error) {
	req := GetRequest{
		FromID:  n.id,
		Address: address,
	}

	for _, p := range n.peers.Peers {
		if p.ID() == n.id {
			continue
		}

		var resp GetResponse
		if err := n.trans.Get(target(p), &req, &resp); err != nil {
			n.logger.WithFields(logrus.Fields{
				"target": target(p),
				"error":  err,
			}).Debug("Failed to get entry from peer")
			continue
		}

		if resp.Found {
			return resp.Entry, nil
		}
	}

	return nil, cm.NewStoreErr("Network", cm.KeyNotFound, address)
}
