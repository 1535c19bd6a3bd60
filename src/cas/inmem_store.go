package cas

import (
	"sync"

	cm "github.com/waggleworks/waggle/src/common"
	"github.com/waggleworks/waggle/src/entry"
)

// InmemStore implements the Store interface with a plain map. Unlike a cache
// it never evicts, so it is the authoritative holder of everything added to
// it. Reads and writes may come from different goroutines: writes come from
// the reduction path, reads from anyone holding a snapshot.
type InmemStore struct {
	entriesLock sync.RWMutex
	entries     map[string]*entry.Entry
}

// NewInmemStore creates an empty InmemStore.
func NewInmemStore() *InmemStore {
	return &InmemStore{
		entries: make(map[string]*entry.Entry),
	}
}

// Add implements the Store interface.
func (s *InmemStore) Add(e *entry.Entry) error {
	s.entriesLock.Lock()
	defer s.entriesLock.Unlock()

	// identical content has an identical address, so there is nothing to
	// overwrite
	address := e.Address()
	if _, ok := s.entries[address]; ok {
		return nil
	}

	s.entries[address] = e

	return nil
}

// Contains implements the Store interface.
func (s *InmemStore) Contains(address string) (bool, error) {
	s.entriesLock.RLock()
	defer s.entriesLock.RUnlock()

	_, ok := s.entries[address]

	return ok, nil
}

// Fetch implements the Store interface.
func (s *InmemStore) Fetch(address string) (*entry.Entry, error) {
	s.entriesLock.RLock()
	defer s.entriesLock.RUnlock()

	e, ok := s.entries[address]
	if !ok {
		return nil, cm.NewStoreErr("Entry", cm.KeyNotFound, address)
	}

	return e, nil
}

// Len returns the number of entries held.
func (s *InmemStore) Len() int {
	s.entriesLock.RLock()
	defer s.entriesLock.RUnlock()

	return len(s.entries)
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}

// StorePath implements the Store interface.
func (s *InmemStore) StorePath() string {
	return ""
}
