// Package keys implements the public key cryptography used throughout Waggle.
//
// An instance of a Waggle node, also referred to as peer or agent, owns a
// cryptographic key-pair that identifies it. The private key is secret, while
// the public key is what other nodes address and recognise the agent by; it is
// also the content of the agent's identity entry in the DHT.
//
// Waggle uses elliptic curve cryptography (ECDSA) with the secp256k1 curve. We
// chose the secp256k1 curve because it is also used by Bitcoin and Ethereum,
// which means that Bitcoin and Ethereum keys can be used to operate a Waggle
// node.
package keys
