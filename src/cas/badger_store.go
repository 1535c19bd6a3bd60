// +build !mobile

package cas

import (
	"sync"

	"github.com/dgraph-io/badger"
	"github.com/sirupsen/logrus"

	cm "github.com/waggleworks/waggle/src/common"
	"github.com/waggleworks/waggle/src/entry"
)

// BadgerStore implements the Store interface with a Badger key-value store on
// disk, fronted by an LRU read cache. The database is authoritative; the
// cache only cuts disk reads for hot entries.
type BadgerStore struct {
	cacheLock sync.Mutex
	cache     *cm.LRU //address => *entry.Entry
	db        *badger.DB
	path      string
}

// NewBadgerStore opens an existing database, or creates a new one if nothing
// is found in path. The cacheSize limits the number of entries held in the
// read cache.
func NewBadgerStore(cacheSize int, path string, logger *logrus.Entry) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false

	if logger != nil {
		opts.Logger = logger.WithField("ns", "badger")
	}

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		cache: cm.NewLRU(cacheSize, nil),
		db:    handle,
		path:  path,
	}

	return store, nil
}

// Add implements the Store interface. The entry is written to the database
// first; the cache is only updated once the write is committed, so a failed
// write leaves no trace.
func (s *BadgerStore) Add(e *entry.Entry) error {
	val, err := e.Marshal()
	if err != nil {
		return err
	}

	address := e.Address()

	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	if err := tx.Set([]byte(address), val); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.cacheLock.Lock()
	s.cache.Add(address, e)
	s.cacheLock.Unlock()

	return nil
}

// Contains implements the Store interface.
func (s *BadgerStore) Contains(address string) (bool, error) {
	s.cacheLock.Lock()
	cached := s.cache.Contains(address)
	s.cacheLock.Unlock()

	if cached {
		return true, nil
	}

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(address))
		return err
	})

	if err != nil {
		if isDBKeyNotFound(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// Fetch implements the Store interface. It tries the cache first and falls
// back to the database, backfilling the cache on a hit.
func (s *BadgerStore) Fetch(address string) (*entry.Entry, error) {
	s.cacheLock.Lock()
	cached, ok := s.cache.Get(address)
	s.cacheLock.Unlock()

	if ok {
		return cached.(*entry.Entry), nil
	}

	e, err := s.dbGetEntry(address)
	if err != nil {
		return nil, mapError(err, "Entry", address)
	}

	s.cacheLock.Lock()
	s.cache.Add(address, e)
	s.cacheLock.Unlock()

	return e, nil
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// StorePath implements the Store interface.
func (s *BadgerStore) StorePath() string {
	return s.path
}

/*******************************************************************************
DB Methods
*******************************************************************************/

func (s *BadgerStore) dbGetEntry(address string) (*entry.Entry, error) {
	var entryBytes []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(address))
		if err != nil {
			return err
		}
		entryBytes, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, err
	}

	e := new(entry.Entry)
	if err := e.Unmarshal(entryBytes); err != nil {
		return nil, err
	}

	return e, nil
}

func isDBKeyNotFound(err error) bool {
	return err.Error() == badger.ErrKeyNotFound.Error()
}

func mapError(err error, name, key string) error {
	if err != nil {
		if isDBKeyNotFound(err) {
			return cm.NewStoreErr(name, cm.KeyNotFound, key)
		}
	}
	return err
}
