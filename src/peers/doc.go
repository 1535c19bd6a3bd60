// Package peers defines the concept of a Waggle peer and implements functions
// to manage collections of peers.
//
// A peer is an entity that operates a Waggle node and participates in the
// shared content store. Peers are identified by their public keys, and
// optionally a moniker which is a non-unique user-friendly name. When the TCP
// transport is used, a peer should also specify an IP address and port where
// it can be reached by other peers. With WebRTC, the public key is enough to
// identify a peer within the signaling server, and the network address is not
// necessary.
//
// Upon starting up, Waggle expects to find a peers.json file in its data
// directory, listing the peers that the node should exchange entries with.
package peers
