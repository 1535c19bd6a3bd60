package dht

import (
	"github.com/sirupsen/logrus"

	"github.com/waggleworks/waggle/src/action"
	"github.com/waggleworks/waggle/src/entry"
	"github.com/waggleworks/waggle/src/schema"
)

// Reducer maps actions to reduction functions and applies them to snapshots.
// It carries the reduction context: the schema lookup for the currently
// loaded application, and the logger through which rejection reasons are
// reported.
type Reducer struct {
	schema schema.Lookup
	logger *logrus.Entry
}

// NewReducer instantiates a Reducer. The schema lookup may be nil when no
// application is loaded, in which case every application entry is rejected.
func NewReducer(schemaLookup schema.Lookup, logger *logrus.Entry) *Reducer {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &Reducer{
		schema: schemaLookup,
		logger: logger,
	}
}

// Reduce applies one action to a snapshot and returns the resulting
// snapshot. It is total: rejected actions, storage faults and unrecognized
// action variants all return the old snapshot unchanged. Unrecognized
// variants are not an anomaly; they model actions aimed at other state
// slices, which must pass through untouched.
//
// Reduce itself performs no mutual exclusion. The caller is responsible for
// serializing calls, and a reduction must never dispatch another action.
func (r *Reducer) Reduce(store *Store, w *action.Wrapper) *Store {
	r.logger.WithFields(logrus.Fields{
		"id":   w.ID,
		"name": w.Action.Name(),
	}).Debug("Reducing action")

	var next *Store

	switch a := w.Action.(type) {
	case *action.Commit:
		next = r.reduceCommit(store, a)
	case *action.GetEntry:
		next = r.reduceGetEntry(store, a)
	case *action.AddLink:
		next = r.reduceAddLink(store, a)
	case *action.GetLinks:
		next = r.reduceGetLinks(store, a)
	default:
		return store
	}

	// nil from a reduction means rejection
	if next == nil {
		return store
	}

	return next
}

// reduceCommit routes a commit to the system or application path after the
// global precondition: the address must not already be held locally.
// Re-committing is rejected, not overwritten, and flagged as an anomaly.
func (r *Reducer) reduceCommit(store *Store, a *action.Commit) *Store {
	if a.Entry == nil {
		r.logger.Warning("Rejecting commit with no entry")
		return nil
	}

	address := a.Entry.Address()

	exists, err := store.cas.Contains(address)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"address": address,
			"error":   err,
		}).Error("Failed to check local storage")
		return nil
	}

	if exists {
		r.logger.WithField("address", address).Warning("Duplicate commit")
		return nil
	}

	if a.Entry.Type.IsSys() {
		return r.commitSys(store, a.Entry)
	}

	return r.commitApp(store, a.Entry)
}

// commitSys adds a system entry to local storage only. System entries are
// node bookkeeping and are never handed to the network, whatever their
// publishability rule says; the rule instead gates the commit itself, which
// keeps non-publishable-capable types like the application definition out of
// the DHT store entirely.
func (r *Reducer) commitSys(store *Store, e *entry.Entry) *Store {
	if !e.Type.CanPublish() {
		r.logger.WithField("type", e.Type).Debug("System type not publishable-capable")
		return nil
	}

	next := store.Clone()

	if err := next.cas.Add(e); err != nil {
		r.logger.WithFields(logrus.Fields{
			"address": e.Address(),
			"error":   err,
		}).Error("Failed to add system entry to local storage")
		return nil
	}

	return next
}

// commitApp validates an application entry against the loaded schema, adds
// it to local storage, and publishes it. The local add comes first, so the
// node never announces data it cannot itself serve. Publishing is
// fire-and-forget; a publish failure is logged but does not undo the commit,
// because peers can still get the entry from us on demand.
func (r *Reducer) commitApp(store *Store, e *entry.Entry) *Store {
	if r.schema == nil {
		r.logger.WithField("type", e.Type).Debug("No application schema loaded")
		return nil
	}

	def, ok := r.schema.GetEntryTypeDef(string(e.Type))
	if !ok {
		r.logger.WithField("type", e.Type).Debug("Entry type not in schema")
		return nil
	}

	if !def.Sharing.CanPublish() {
		r.logger.WithFields(logrus.Fields{
			"type":    e.Type,
			"sharing": def.Sharing,
		}).Debug("Sharing policy forbids publication")
		return nil
	}

	next := store.Clone()

	if err := next.cas.Add(e); err != nil {
		r.logger.WithFields(logrus.Fields{
			"address": e.Address(),
			"error":   err,
		}).Error("Failed to add entry to local storage")
		return nil
	}

	if err := next.network.Publish(e); err != nil {
		r.logger.WithFields(logrus.Fields{
			"address": e.Address(),
			"error":   err,
		}).Warning("Failed to publish entry")
	}

	return next
}

// reduceGetEntry fills local storage from the network. The fetched bytes
// must parse into an entry whose derived address matches the requested one;
// anything else is treated as a failed fetch and never cached.
func (r *Reducer) reduceGetEntry(store *Store, a *action.GetEntry) *Store {
	exists, err := store.cas.Contains(a.Address)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"address": a.Address,
			"error":   err,
		}).Error("Failed to check local storage")
		return nil
	}

	// the fetch is redundant and must not re-trigger effects
	if exists {
		r.logger.WithField("address", a.Address).Debug("Entry already held locally")
		return nil
	}

	data, err := store.network.Get(a.Address)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"address": a.Address,
			"error":   err,
		}).Debug("Failed to get entry from network")
		return nil
	}

	e, err := entry.FromBytes(data)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"address": a.Address,
			"error":   err,
		}).Warning("Failed to parse fetched entry")
		return nil
	}

	if derived := e.Address(); derived != a.Address {
		r.logger.WithFields(logrus.Fields{
			"address": a.Address,
			"derived": derived,
		}).Warning("Fetched entry does not match its address")
		return nil
	}

	next := store.Clone()

	if err := next.cas.Add(e); err != nil {
		r.logger.WithFields(logrus.Fields{
			"address": a.Address,
			"error":   err,
		}).Error("Failed to add fetched entry to local storage")
		return nil
	}

	return next
}

// reduceAddLink is reserved. The attribute store is in place as the link
// index substrate, but link reductions reject unconditionally until link
// indexing lands.
func (r *Reducer) reduceAddLink(store *Store, a *action.AddLink) *Store {
	r.logger.Debug("Link indexing not implemented")
	return nil
}

// reduceGetLinks is reserved, like reduceAddLink.
func (r *Reducer) reduceGetLinks(store *Store, a *action.GetLinks) *Store {
	r.logger.Debug("Link indexing not implemented")
	return nil
}
