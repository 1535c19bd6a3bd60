package net

import (
	"net"
	"time"

	"github.com/pion/datachannel"
)

// WebRTCConn exposes a detached webrtc datachannel through the net.Conn
// interface so that it can be used by the NetworkTransport.
type WebRTCConn struct {
	dc datachannel.ReadWriteCloser
}

// NewWebRTCConn wraps a detached datachannel.
func NewWebRTCConn(dc datachannel.ReadWriteCloser) *WebRTCConn {
	return &WebRTCConn{dc: dc}
}

// Read reads from the underlying datachannel.
func (c *WebRTCConn) Read(p []byte) (int, error) {
	return c.dc.Read(p)
}

// Write writes to the underlying datachannel.
func (c *WebRTCConn) Write(p []byte) (int, error) {
	return c.dc.Write(p)
}

// Close closes the underlying datachannel.
func (c *WebRTCConn) Close() error {
	return c.dc.Close()
}

// LocalAddr is a stub; datachannels do not carry transport addresses.
func (c *WebRTCConn) LocalAddr() net.Addr {
	return nil
}

// RemoteAddr is a stub; datachannels do not carry transport addresses.
func (c *WebRTCConn) RemoteAddr() net.Addr {
	return nil
}

// SetDeadline is a stub.
func (c *WebRTCConn) SetDeadline(t time.Time) error {
	return nil
}

// SetReadDeadline is a stub.
func (c *WebRTCConn) SetReadDeadline(t time.Time) error {
	return nil
}

// SetWriteDeadline is a stub.
func (c *WebRTCConn) SetWriteDeadline(t time.Time) error {
	return nil
}
