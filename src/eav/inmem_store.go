package eav

import (
	"sort"
	"sync"
)

// InmemStore implements the Store interface with a set of triples held in
// memory.
type InmemStore struct {
	triplesLock sync.RWMutex
	triples     map[Triple]struct{}
}

// NewInmemStore instantiates an empty InmemStore.
func NewInmemStore() *InmemStore {
	return &InmemStore{
		triples: map[Triple]struct{}{},
	}
}

// Add implements the Store interface.
func (s *InmemStore) Add(t Triple) error {
	s.triplesLock.Lock()
	defer s.triplesLock.Unlock()

	s.triples[t] = struct{}{}

	return nil
}

// Fetch implements the Store interface. Results are sorted by entity,
// attribute, and value.
func (s *InmemStore) Fetch(f Filter) ([]Triple, error) {
	s.triplesLock.RLock()
	defer s.triplesLock.RUnlock()

	res := []Triple{}
	for t := range s.triples {
		if f.Match(t) {
			res = append(res, t)
		}
	}

	sort.Slice(res, func(i, j int) bool {
		if res[i].Entity != res[j].Entity {
			return res[i].Entity < res[j].Entity
		}
		if res[i].Attribute != res[j].Attribute {
			return res[i].Attribute < res[j].Attribute
		}
		return res[i].Value < res[j].Value
	})

	return res, nil
}

// Len returns the number of distinct triples in the store.
func (s *InmemStore) Len() int {
	s.triplesLock.RLock()
	defer s.triplesLock.RUnlock()

	return len(s.triples)
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}
