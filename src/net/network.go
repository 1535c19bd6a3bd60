package net

import (
	"github.com/waggleworks/waggle/src/entry"
)

// Network is the interface through which the state machine reaches other
// peers. It is deliberately narrow: entries are published to the group after
// they are committed locally, and fetched from the group when they are not
// held locally.
type Network interface {
	// Publish announces a committed entry to the group. It does not wait for
	// peers to acknowledge the entry.
	Publish(e *entry.Entry) error

	// Get retrieves the entry stored at the given address from the group. It
	// returns the canonical bytes of the entry, from which the caller is
	// expected to re-derive the address.
	Get(address string) ([]byte, error)
}
