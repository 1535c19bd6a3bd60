package net

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pion/datachannel"
	webrtc "github.com/pion/webrtc/v2"
	"github.com/sirupsen/logrus"

	"github.com/waggleworks/waggle/src/net/signal"
)

// WebRTCStreamLayer implements the StreamLayer interface for WebRTC
type WebRTCStreamLayer struct {
	connLock        sync.Mutex
	peerConnections map[string]*webrtc.PeerConnection
	dataChannels    map[uint16]datachannel.ReadWriteCloser

	signal     signal.Signal
	iceServers []webrtc.ICEServer

	incomingConnAggregator chan net.Conn

	logger *logrus.Entry
}

// NewWebRTCStreamLayer instantiates a new WebRTCStreamLayer. The signal is
// used to exchange connection information with other peers, and the
// iceServers are passed down to every PeerConnection. When no ICE servers are
// provided, a default public STUN server is used.
func NewWebRTCStreamLayer(
	signal signal.Signal,
	iceServers []webrtc.ICEServer,
	logger *logrus.Entry,
) *WebRTCStreamLayer {

	if len(iceServers) == 0 {
		iceServers = []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		}
	}

	stream := &WebRTCStreamLayer{
		peerConnections:        make(map[string]*webrtc.PeerConnection),
		dataChannels:           make(map[uint16]datachannel.ReadWriteCloser),
		signal:                 signal,
		iceServers:             iceServers,
		incomingConnAggregator: make(chan net.Conn),
		logger:                 logger,
	}

	return stream
}

// Receive SDP offers from Signal, create corresponding PeerConnections and
// respond. The PeerConnection's DataChannel is piped into the connection
// aggregator.
func (w *WebRTCStreamLayer) listen() error {
	// Start the Signal listener
	go w.signal.Listen()

	consumer := w.signal.Consumer()

	// Process incoming offers
	for promise := range consumer {
		w.logger.WithField("from", promise.From).Debug("WebRTCStreamLayer processing offer")

		if err := w.answerOffer(promise); err != nil {
			w.logger.WithError(err).Error("Failed to process offer")
			promise.Respond(nil, err)
		}
	}

	return nil
}

// answerOffer processes a single SDP offer, responds to it through the
// promise, and records the resulting PeerConnection.
func (w *WebRTCStreamLayer) answerOffer(promise signal.OfferPromise) error {
	peerConnection, err := w.newPeerConnection(w.incomingConnAggregator, false)
	if err != nil {
		return err
	}

	// Set the remote SessionDescription
	if err := peerConnection.SetRemoteDescription(promise.Offer); err != nil {
		return err
	}

	// Create answer
	answer, err := peerConnection.CreateAnswer(nil)
	if err != nil {
		return err
	}

	// Sets the LocalDescription, and starts our UDP listeners
	if err := peerConnection.SetLocalDescription(answer); err != nil {
		return err
	}

	promise.Respond(&answer, nil)

	w.connLock.Lock()
	w.peerConnections[promise.From] = peerConnection
	w.connLock.Unlock()

	return nil
}

// newPeerConnection creates a PeerConnection and pipes corresponding
// DataChannel connections into the provided channel. The createDataChannel
// paratemer determines whether a new DataChannel is created for the
// PeerConnection or if we just bind to its OnDataChannel handler. Basically,
// set it to true when actively creating a PeerConnection (you are making the
// offer) and vice-versa.
func (w *WebRTCStreamLayer) newPeerConnection(connCh chan net.Conn, createDataChannel bool) (*webrtc.PeerConnection, error) {
	// Create a SettingEngine and enable Detach
	s := webrtc.SettingEngine{}
	s.DetachDataChannels()

	// Create an API object with the engine
	api := webrtc.NewAPI(webrtc.WithSettingEngine(s))

	// Prepare the configuration
	config := webrtc.Configuration{
		ICEServers: w.iceServers,
	}

	// Create a new RTCPeerConnection using the API object
	peerConnection, err := api.NewPeerConnection(config)
	if err != nil {
		return nil, err
	}

	// Set the handler for ICE connection state
	// This will notify you when the peer has connected/disconnected
	peerConnection.OnICEConnectionStateChange(func(connectionState webrtc.ICEConnectionState) {
		w.logger.WithField("state", connectionState.String()).Debug("ICE Connection State has changed")
	})

	if createDataChannel {
		// Create a datachannel with label 'data'
		dataChannel, err := peerConnection.CreateDataChannel("data", nil)
		if err != nil {
			return nil, err
		}

		w.pipeDataChannel(dataChannel, connCh)
	} else {
		// Register data channel creation handling
		peerConnection.OnDataChannel(func(d *webrtc.DataChannel) {
			w.pipeDataChannel(d, connCh)
		})
	}

	return peerConnection, nil
}

func (w *WebRTCStreamLayer) pipeDataChannel(dataChannel *webrtc.DataChannel, connCh chan net.Conn) error {
	// Register channel opening handling
	dataChannel.OnOpen(func() {
		// Detach the data channel
		raw, err := dataChannel.Detach()
		if err != nil {
			w.logger.WithError(err).Error("Error detaching DataChannel")
			return
		}

		w.connLock.Lock()
		w.dataChannels[*dataChannel.ID()] = raw
		w.connLock.Unlock()

		connCh <- NewWebRTCConn(raw)
	})

	return nil
}

// Dial implements the StreamLayer interface.
// - Create/Get PeerConnection associated with target
// - Create a DataChannel and detach it in its OnOpen handler
// - ICE negotiation
// - Return a net.Conn wrapping the detached datachannel
func (w *WebRTCStreamLayer) Dial(target string, timeout time.Duration) (net.Conn, error) {
	// connCh is a channel for receiving net.Conn objects asynchronously when
	// the DataChannel's OnOpen callback is fired.
	connCh := make(chan net.Conn)

	// Create or get PeerConnection and pipe DataChannel connections to connCh
	pc, err := w.newPeerConnection(connCh, true)
	if err != nil {
		return nil, err
	}

	// Create an offer to send to the signaling system
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return nil, err
	}

	// Sets the LocalDescription, and starts our UDP listeners
	err = pc.SetLocalDescription(offer)
	if err != nil {
		return nil, err
	}

	// synchronous offer/answer RPC request through signal to exchange SDP
	// information.
	answer, err := w.signal.Offer(target, offer)
	if err != nil {
		return nil, err
	}

	if answer == nil {
		return nil, fmt.Errorf("No answer")
	}

	// Apply the answer as the remote description
	err = pc.SetRemoteDescription(*answer)
	if err != nil {
		return nil, err
	}

	w.connLock.Lock()
	w.peerConnections[target] = pc
	w.connLock.Unlock()

	// Wait for DataChannel opening
	timer := time.After(timeout)
	select {
	case <-timer:
		return nil, fmt.Errorf("Dial timeout")
	case conn := <-connCh:
		return conn, nil
	}
}

// Accept consumes the incoming connection aggregator fed by the 'listen'
// routine. It aggregates the connections from all DataChannels formed with
// PeerConnections.
func (w *WebRTCStreamLayer) Accept() (c net.Conn, err error) {
	nextConn := <-w.incomingConnAggregator
	return nextConn, nil
}

// Close implements the net.Listener interface. It closes the Signal and all
// the PeerConnections
func (w *WebRTCStreamLayer) Close() (err error) {
	// Close the connection to the signal server
	w.signal.Close()

	w.connLock.Lock()
	defer w.connLock.Unlock()

	// Close all peer connections
	for _, pc := range w.peerConnections {
		pc.Close()
	}

	// Close all data channels
	for _, dc := range w.dataChannels {
		dc.Close()
	}

	return nil
}

// Addr implements the net.Listener interface
func (w *WebRTCStreamLayer) Addr() net.Addr {
	return nil
}

// AdvertiseAddr implements the StreamLayer interface
func (w *WebRTCStreamLayer) AdvertiseAddr() string {
	return w.signal.ID()
}
