package net

import (
	"reflect"
	"testing"
	"time"

	cm "github.com/waggleworks/waggle/src/common"
	"github.com/waggleworks/waggle/src/entry"
	"github.com/waggleworks/waggle/src/peers"
)

// fakePeer consumes a transport's RPCs like a remote node would. Incoming
// publish payloads are pushed to publishCh, and gets are answered from the
// held map.
func fakePeer(trans Transport, held map[string][]byte, publishCh chan []byte) {
	for rpc := range trans.Consumer() {
		switch cmd := rpc.Command.(type) {
		case *PublishRequest:
			publishCh <- cmd.Entry
			rpc.Respond(&PublishResponse{Success: true}, nil)
		case *GetRequest:
			data, ok := held[cmd.Address]
			rpc.Respond(&GetResponse{Found: ok, Entry: data}, nil)
		}
	}
}

func testPeerNetwork(t *testing.T, held map[string][]byte) (*PeerNetwork, chan []byte) {
	alice := peers.NewPeer("0XAA", "alice", "alice")
	bob := peers.NewPeer("0XBB", "bob", "bob")

	if alice.ID() == bob.ID() {
		t.Fatal("test peers should have distinct IDs")
	}

	peerSet := peers.NewPeerSet([]*peers.Peer{alice, bob})

	_, aliceTrans := NewInmemTransport("alice")
	_, bobTrans := NewInmemTransport("bob")
	aliceTrans.Connect("bob", bobTrans)

	publishCh := make(chan []byte, 1)
	go fakePeer(bobTrans, held, publishCh)

	network := NewPeerNetwork(
		alice.ID(),
		peerSet,
		aliceTrans,
		cm.NewTestEntry(t, cm.TestLogLevel),
	)

	return network, publishCh
}

func TestPeerNetworkPublish(t *testing.T) {
	network, publishCh := testPeerNetwork(t, nil)

	e := &entry.Entry{
		Type:    "post",
		Content: "{\"message\":\"hello\"}",
	}

	if err := network.Publish(e); err != nil {
		t.Fatal(err)
	}

	// publishing is fire-and-forget, so wait for the fake peer
	select {
	case data := <-publishCh:
		received, err := entry.FromBytes(data)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(e, received) {
			t.Fatalf("entry should be %#v, not %#v", e, received)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for publish")
	}
}

func TestPeerNetworkGet(t *testing.T) {
	e := &entry.Entry{
		Type:    "post",
		Content: "{\"message\":\"hello\"}",
	}

	data, err := e.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	held := map[string][]byte{
		e.Address(): data,
	}

	network, _ := testPeerNetwork(t, held)

	fetched, err := network.Get(e.Address())
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(data, fetched) {
		t.Fatalf("bytes should be %v, not %v", data, fetched)
	}
}

func TestPeerNetworkGetNotFound(t *testing.T) {
	network, _ := testPeerNetwork(t, nil)

	_, err := network.Get("no-such-address")
	if !cm.IsStore(err, cm.KeyNotFound) {
		t.Fatalf("err should be KeyNotFound, not %v", err)
	}
}
