package net

import (
	"net"
	"time"
)

// StreamLayer is the low level connection abstraction underneath a
// NetworkTransport. Implementations exist for plain TCP and for WebRTC data
// channels.
type StreamLayer interface {
	net.Listener

	// Dial opens a new outgoing connection to address.
	Dial(address string, timeout time.Duration) (net.Conn, error)

	// AdvertiseAddr returns the address that other peers should use to reach
	// this stream.
	AdvertiseAddr() string
}
