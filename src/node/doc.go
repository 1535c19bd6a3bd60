// Package node implements the reactive component of a waggle node.
//
// This is the part of waggle that consumes the transport and drives the
// runtime. Node implements a state machine where the states are defined in
// the state package: a Running node processes requests, a Suspended node
// refuses them, and a Shutdown node has released its transport.
//
// Requests
//
// Waggle nodes communicate with other waggle nodes in a fully connected p2p
// network. The communication mechanism is a custom RPC protocol over a
// network transport as defined in the net package, with two commands. A
// PublishRequest carries an entry that another node committed; the receiving
// node runs it through its own commit dispatch, which validates the entry
// against the local schema, stores it, and republishes it once, so entries
// flood through the group and each node relays a given entry at most one
// time. A GetRequest asks for the entry at an address; the receiving node
// answers from its local storage only, and never fetches from the network on
// another node's behalf.
//
// Submissions
//
// The local application submits entries through Submit, and reads through
// Fetch, which falls back to asking other nodes when an address is not held
// locally. Both are refused unless the node is Running.
package node
