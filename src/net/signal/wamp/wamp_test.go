package wamp

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/pion/webrtc/v2"

	"github.com/waggleworks/waggle/src/common"
)

func TestWampRoundTrip(t *testing.T) {
	url := "127.0.0.1:8990"

	logger := common.NewTestEntry(t, common.TestLogLevel)

	server, err := NewServer(url, "office", "", "", logger)
	if err != nil {
		t.Fatal(err)
	}

	go server.Run()
	defer server.Shutdown()

	waitForServer(t, url)

	callee, err := NewClient("ws://"+url, "office", "callee", "", false, time.Second, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer callee.Close()

	if err := callee.Listen(); err != nil {
		t.Fatal(err)
	}

	// The callee answers the first offer it receives
	answer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  "the answer",
	}

	go func() {
		promise := <-callee.Consumer()
		if promise.From != "caller" {
			promise.Respond(nil, nil)
			return
		}
		promise.Respond(&answer, nil)
	}()

	caller, err := NewClient("ws://"+url, "office", "caller", "", false, time.Second, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer caller.Close()

	offer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  "the offer",
	}

	res, err := caller.Offer("callee", offer)
	if err != nil {
		t.Fatal(err)
	}

	if res.SDP != answer.SDP {
		t.Fatalf("answer SDP should be %s, not %s", answer.SDP, res.SDP)
	}
}

func TestWampOfferTimeout(t *testing.T) {
	url := "127.0.0.1:8991"

	logger := common.NewTestEntry(t, common.TestLogLevel)

	server, err := NewServer(url, "office", "", "", logger)
	if err != nil {
		t.Fatal(err)
	}

	go server.Run()
	defer server.Shutdown()

	waitForServer(t, url)

	// The callee listens but nothing drains its consumer channel, so offers
	// eventually time out on the callee side.
	callee, err := NewClient("ws://"+url, "office", "callee", "", false, 200*time.Millisecond, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer callee.Close()

	if err := callee.Listen(); err != nil {
		t.Fatal(err)
	}

	caller, err := NewClient("ws://"+url, "office", "caller", "", false, time.Second, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer caller.Close()

	_, err = caller.Offer("callee", webrtc.SessionDescription{})
	if err == nil || !strings.Contains(err.Error(), ErrProcessingOffer) {
		t.Fatalf("Should have received an ErrProcessingOffer, got %v", err)
	}
}

// waitForServer blocks until the server accepts TCP connections on address.
// The server listens in a separate goroutine, so it is not necessarily ready
// by the time the test connects its clients.
func waitForServer(t *testing.T, address string) {
	t.Helper()
	for i := 0; i < 100; i++ {
		conn, err := net.DialTimeout("tcp", address, time.Second)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server at %s is not accepting connections", address)
}
