package cas

import "github.com/waggleworks/waggle/src/entry"

// Store is an interface for content-addressed backend stores. Content is
// keyed by its own address, so adding identical content twice is idempotent.
// Entries handed out by a Store are shared and must be treated as immutable.
type Store interface {
	// Add inserts an entry, keyed by its address.
	Add(e *entry.Entry) error
	// Contains reports whether an address is held locally.
	Contains(address string) (bool, error)
	// Fetch retrieves the entry at an address. It returns a KeyNotFound
	// StoreErr when the address is not held locally.
	Fetch(address string) (*entry.Entry, error)
	// Close closes the underlying database.
	Close() error
	// StorePath returns the filepath of the underlying database.
	StorePath() string
}
