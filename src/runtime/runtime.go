// Package runtime bridges the node's outer layers and the reduction engine.
// A Runtime owns the current snapshot: actions go in one at a time under a
// single-writer lock, and snapshots come out through an atomic reference
// that readers load without ever blocking the writer.
package runtime

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/waggleworks/waggle/src/action"
	cm "github.com/waggleworks/waggle/src/common"
	"github.com/waggleworks/waggle/src/dht"
	"github.com/waggleworks/waggle/src/entry"
	"github.com/waggleworks/waggle/src/schema"
)

var (
	// ErrAlreadyActive is returned by Start on an active runtime.
	ErrAlreadyActive = errors.New("runtime already active")

	// ErrNotActive is returned when actions are submitted to a runtime that
	// is not active.
	ErrNotActive = errors.New("runtime not active")

	// ErrRejected is returned when a dispatched action produced no state
	// change. The rejection reason is logged by the reduction, not threaded
	// through.
	ErrRejected = errors.New("action rejected")
)

// Record is the trace of one dispatched action: the wrapper identity, the
// snapshot that resulted, and whether the action changed state. Records are
// kept in a bounded history window, so upstream components can observe
// redeliveries and walk recent versions.
type Record struct {
	Seq     int
	ID      string
	Name    string
	Changed bool
	State   *dht.Store
}

// Runtime owns the current snapshot and drives it forward by reducing
// actions. Exactly one action is reduced at any instant; concurrent readers
// hold older or current snapshots freely.
type Runtime struct {
	reduceLock sync.Mutex
	state      atomic.Value

	reducer *dht.Reducer

	definition *schema.Definition
	agentID    string

	historyLock sync.RWMutex
	history     *cm.RollingIndex
	seq         int
	lastID      string

	activeLock sync.Mutex
	active     bool

	logger *logrus.Entry
}

// NewRuntime instantiates a Runtime over an initial snapshot. The definition
// is the loaded application, and may be nil when the node runs without one;
// the agentID is the node's public identity, committed at genesis.
func NewRuntime(
	store *dht.Store,
	definition *schema.Definition,
	agentID string,
	cacheSize int,
	logger *logrus.Entry,
) *Runtime {

	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	// a nil *Definition must not end up inside the Lookup interface
	var lookup schema.Lookup
	if definition != nil {
		lookup = definition
	}

	r := &Runtime{
		reducer:    dht.NewReducer(lookup, logger),
		definition: definition,
		agentID:    agentID,
		history:    cm.NewRollingIndex("Dispatches", cacheSize),
		logger:     logger,
	}

	r.state.Store(store)

	return r
}

// State returns the current snapshot. Snapshots are immutable; a reader may
// hold one for as long as it likes.
func (r *Runtime) State() *dht.Store {
	return r.state.Load().(*dht.Store)
}

// Active reports whether the runtime accepts actions.
func (r *Runtime) Active() bool {
	r.activeLock.Lock()
	defer r.activeLock.Unlock()
	return r.active
}

// Start activates the runtime and runs genesis.
func (r *Runtime) Start() error {
	r.activeLock.Lock()
	if r.active {
		r.activeLock.Unlock()
		return ErrAlreadyActive
	}
	r.active = true
	r.activeLock.Unlock()

	r.logger.Debug("Starting runtime")

	return r.genesis()
}

// Stop deactivates the runtime. Readers keep their snapshots; new actions
// are refused until the next Start.
func (r *Runtime) Stop() error {
	r.activeLock.Lock()
	defer r.activeLock.Unlock()

	if !r.active {
		return ErrNotActive
	}

	r.active = false

	r.logger.Debug("Stopped runtime")

	return nil
}

// genesis commits the node's system entries: the application definition,
// whose commit the reducers reject so that it stays out of the DHT store,
// and the agent identity, which is stored. Genesis is idempotent across
// restarts.
func (r *Runtime) genesis() error {
	if r.definition != nil {
		defEntry, err := r.definition.Entry()
		if err != nil {
			return err
		}
		if _, _, err := r.Dispatch(action.Wrap(&action.Commit{Entry: defEntry})); err != nil {
			return err
		}
	}

	agent := entry.New(entry.TypeAgentID, r.agentID)

	held, err := r.State().Contains(agent.Address())
	if err != nil {
		return err
	}
	if held {
		r.logger.WithField("address", agent.Address()).Debug("Agent identity already committed")
		return nil
	}

	_, changed, err := r.Dispatch(action.Wrap(&action.Commit{Entry: agent}))
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("genesis: agent identity was rejected")
	}

	r.logger.WithField("address", agent.Address()).Debug("Committed agent identity")

	return nil
}

// Dispatch reduces one action and publishes the resulting snapshot. It
// returns the snapshot that is current once the action has been processed,
// and whether the action changed state. Dispatch must never be called from
// inside a reduction; the reduce lock is held for the duration of the call.
func (r *Runtime) Dispatch(w *action.Wrapper) (*dht.Store, bool, error) {
	if !r.Active() {
		return nil, false, ErrNotActive
	}

	r.reduceLock.Lock()
	defer r.reduceLock.Unlock()

	old := r.state.Load().(*dht.Store)
	next := r.reducer.Reduce(old, w)

	changed := next != old
	if changed {
		r.state.Store(next)
	}

	r.record(w, next, changed)

	return next, changed, nil
}

// record appends a dispatch to the bounded history. The caller holds the
// reduce lock, so sequence numbers are consecutive.
func (r *Runtime) record(w *action.Wrapper, state *dht.Store, changed bool) {
	r.historyLock.Lock()
	defer r.historyLock.Unlock()

	rec := &Record{
		Seq:     r.seq,
		ID:      w.ID,
		Name:    w.Action.Name(),
		Changed: changed,
		State:   state,
	}

	if err := r.history.Set(rec, r.seq); err != nil {
		r.logger.WithField("error", err).Error("Failed to record dispatch")
	}

	r.seq++
	r.lastID = w.ID
}

// Commit commits an entry and reports the outcome: the address it was
// stored under, or ErrRejected.
func (r *Runtime) Commit(e *entry.Entry) (string, error) {
	_, changed, err := r.Dispatch(action.Wrap(&action.Commit{Entry: e}))
	if err != nil {
		return "", err
	}
	if !changed {
		return "", ErrRejected
	}
	return e.Address(), nil
}

// FetchEntry returns the entry at an address, going to the network when it
// is not held locally. A successful network fetch caches the entry, so the
// next FetchEntry of the same address is local.
func (r *Runtime) FetchEntry(address string) (*entry.Entry, error) {
	if !r.Active() {
		return nil, ErrNotActive
	}

	e, err := r.State().Fetch(address)
	if err == nil {
		return e, nil
	}
	if !cm.IsStore(err, cm.KeyNotFound) {
		return nil, err
	}

	state, _, err := r.Dispatch(action.Wrap(&action.GetEntry{Address: address}))
	if err != nil {
		return nil, err
	}

	return state.Fetch(address)
}

// Definition returns the loaded application definition, or nil when the
// runtime runs without one.
func (r *Runtime) Definition() *schema.Definition {
	return r.definition
}

// Seq returns the number of actions dispatched so far.
func (r *Runtime) Seq() int {
	r.historyLock.RLock()
	defer r.historyLock.RUnlock()
	return r.seq
}

// LastID returns the wrapper ID of the most recently dispatched action.
func (r *Runtime) LastID() string {
	r.historyLock.RLock()
	defer r.historyLock.RUnlock()
	return r.lastID
}

// History returns the retained dispatch records, oldest first.
func (r *Runtime) History() []*Record {
	r.historyLock.RLock()
	defer r.historyLock.RUnlock()

	items, _ := r.history.GetLastWindow()

	res := make([]*Record, len(items))
	for i, item := range items {
		res[i] = item.(*Record)
	}

	return res
}

// GetRecord returns the dispatch record at a sequence number. It returns a
// TooLate error when the record has been rolled out of the bounded history.
func (r *Runtime) GetRecord(seq int) (*Record, error) {
	r.historyLock.RLock()
	defer r.historyLock.RUnlock()

	item, err := r.history.GetItem(seq)
	if err != nil {
		return nil, err
	}

	return item.(*Record), nil
}

// Stats summarizes the runtime for the status service.
func (r *Runtime) Stats() map[string]string {
	stats := map[string]string{
		"state_version": strconv.Itoa(r.State().Version()),
		"dispatches":    strconv.Itoa(r.Seq()),
		"last_dispatch": r.LastID(),
		"active":        strconv.FormatBool(r.Active()),
	}

	if r.definition != nil {
		stats["application"] = r.definition.Name
	}

	return stats
}
