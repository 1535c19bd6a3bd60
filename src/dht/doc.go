/*
Package dht implements the action-driven state-reduction engine at the heart
of a waggle node.

The node's replica of the distributed application data is only ever observed
through immutable snapshots. A Store is one such snapshot: a version counter
over shared handles to the content-addressable store, the attribute store and
the network facade. Cloning a snapshot shares the handles, so deriving the
next state is O(1) and never copies stored content.

State advances through the Reducer. Every state transition is requested as an
action, and the Reducer maps the action's variant to a reduction function
which either derives a new snapshot or rejects the request. Rejection is not
an error: duplicate commits, entries with no schema definition, sharing
policies that forbid publication, failed network fetches and storage faults
all collapse into "no state change", with the reason logged. Reduce itself is
total; whatever happens inside a reduction, the caller gets a snapshot back,
and on rejection it is the very snapshot it passed in.

The commit reduction enforces the node's consistency contract. An address
already held locally is never committed twice. System entries are kept
node-local and only committed when their fixed publishability rule allows it.
Application entries must be declared in the loaded application schema and
their sharing policy must permit publication; they are added to local storage
first and only then published, so the node never announces data it cannot
serve. The get-entry reduction fills local storage from the network, and
verifies that the fetched content re-derives to the requested address before
caching it, so a misbehaving peer cannot poison the store.

Reductions must not dispatch further actions. The caller serializes
reductions under a single writer, and a reduction that re-entered the
dispatch path would deadlock it.
*/
package dht
