package node

import (
	"crypto/ecdsa"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/waggleworks/waggle/src/cas"
	cm "github.com/waggleworks/waggle/src/common"
	"github.com/waggleworks/waggle/src/config"
	wkeys "github.com/waggleworks/waggle/src/crypto/keys"
	"github.com/waggleworks/waggle/src/dht"
	"github.com/waggleworks/waggle/src/eav"
	"github.com/waggleworks/waggle/src/entry"
	"github.com/waggleworks/waggle/src/net"
	"github.com/waggleworks/waggle/src/node/state"
	"github.com/waggleworks/waggle/src/peers"
	"github.com/waggleworks/waggle/src/runtime"
	"github.com/waggleworks/waggle/src/schema"
)

func initPeers(t *testing.T, n int) ([]*ecdsa.PrivateKey, *peers.PeerSet) {
	ks := []*ecdsa.PrivateKey{}
	pirs := []*peers.Peer{}

	for i := 0; i < n; i++ {
		key, err := wkeys.GenerateECDSAKey()
		if err != nil {
			t.Fatal(err)
		}

		ks = append(ks, key)

		peer := peers.NewPeer(
			wkeys.PublicKeyHex(&key.PublicKey),
			fmt.Sprintf("node%d", i),
			fmt.Sprintf("node%d", i),
		)

		pirs = append(pirs, peer)
	}

	return ks, peers.NewPeerSet(pirs)
}

func testDefinition() *schema.Definition {
	return &schema.Definition{
		Name: "chat",
		EntryTypes: map[string]*schema.EntryTypeDef{
			"message": {Sharing: schema.SharingPublic},
			"draft":   {Sharing: schema.SharingPrivate},
		},
	}
}

func newTestNode(
	t *testing.T,
	key *ecdsa.PrivateKey,
	moniker string,
	peerSet *peers.PeerSet,
	trans net.Transport,
	definition *schema.Definition,
) *Node {
	conf := config.NewTestConfig(t, cm.TestLogLevel)
	conf.Moniker = moniker

	validator := NewValidator(key, moniker)

	network := net.NewPeerNetwork(validator.ID(), peerSet, trans, conf.Logger())
	store := dht.NewStore(cas.NewInmemStore(), eav.NewInmemStore(), network)
	rt := runtime.NewRuntime(store, definition, validator.PublicKeyHex(), conf.CacheSize, conf.Logger())

	return NewNode(conf, validator, peerSet, rt, trans)
}

func waitFetchLocal(t *testing.T, n *Node, address string, timeout time.Duration) *entry.Entry {
	stopTime := time.Now().Add(timeout)
	for time.Now().Before(stopTime) {
		if e, err := n.FetchLocal(address); err == nil {
			return e
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for %s", address)

	return nil
}

func TestProcessPublishRequest(t *testing.T) {
	ks, peerSet := initPeers(t, 2)

	_, clientTrans := net.NewInmemTransport("node0")
	_, nodeTrans := net.NewInmemTransport("node1")
	clientTrans.Connect("node1", nodeTrans)

	node := newTestNode(t, ks[1], "node1", peerSet, nodeTrans, testDefinition())
	if err := node.Init(); err != nil {
		t.Fatal(err)
	}
	node.RunAsync()
	defer node.Shutdown()

	e := entry.New("message", "{\"message\":\"hello\"}")
	data, err := e.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	args := net.PublishRequest{
		FromID: peerSet.Peers[0].ID(),
		Entry:  data,
	}

	var out net.PublishResponse
	if err := clientTrans.Publish("node1", &args, &out); err != nil {
		t.Fatalf("err: %v", err)
	}

	if out.FromID != node.ID() {
		t.Fatalf("PublishResponse.FromID should be %d, not %d", node.ID(), out.FromID)
	}
	if !out.Success {
		t.Fatal("PublishResponse.Success should be true")
	}

	fetched, err := node.FetchLocal(e.Address())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(e, fetched) {
		t.Fatalf("entry should be %#v, not %#v", e, fetched)
	}

	// a redelivery is rejected by the commit dispatch
	var out2 net.PublishResponse
	if err := clientTrans.Publish("node1", &args, &out2); err != nil {
		t.Fatalf("err: %v", err)
	}
	if out2.Success {
		t.Fatal("redelivered PublishRequest should not succeed")
	}
}

func TestProcessGetRequest(t *testing.T) {
	ks, peerSet := initPeers(t, 2)

	_, clientTrans := net.NewInmemTransport("node0")
	_, nodeTrans := net.NewInmemTransport("node1")
	clientTrans.Connect("node1", nodeTrans)

	node := newTestNode(t, ks[1], "node1", peerSet, nodeTrans, testDefinition())
	if err := node.Init(); err != nil {
		t.Fatal(err)
	}
	node.RunAsync()
	defer node.Shutdown()

	e := entry.New("message", "{\"message\":\"hello\"}")
	address, err := node.Submit(e)
	if err != nil {
		t.Fatal(err)
	}

	args := net.GetRequest{
		FromID:  peerSet.Peers[0].ID(),
		Address: address,
	}

	var out net.GetResponse
	if err := clientTrans.Get("node1", &args, &out); err != nil {
		t.Fatalf("err: %v", err)
	}

	if !out.Found {
		t.Fatal("GetResponse.Found should be true")
	}

	fetched, err := entry.FromBytes(out.Entry)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(e, fetched) {
		t.Fatalf("entry should be %#v, not %#v", e, fetched)
	}

	// a missing address is not an error, just not found
	missing := net.GetRequest{
		FromID:  peerSet.Peers[0].ID(),
		Address: "no-such-address",
	}

	var out2 net.GetResponse
	if err := clientTrans.Get("node1", &missing, &out2); err != nil {
		t.Fatalf("err: %v", err)
	}
	if out2.Found {
		t.Fatal("GetResponse.Found should be false")
	}
}

func TestEntryFlood(t *testing.T) {
	ks, peerSet := initPeers(t, 2)

	_, trans0 := net.NewInmemTransport("node0")
	_, trans1 := net.NewInmemTransport("node1")
	trans0.Connect("node1", trans1)
	trans1.Connect("node0", trans0)

	node0 := newTestNode(t, ks[0], "node0", peerSet, trans0, testDefinition())
	if err := node0.Init(); err != nil {
		t.Fatal(err)
	}
	node0.RunAsync()
	defer node0.Shutdown()

	node1 := newTestNode(t, ks[1], "node1", peerSet, trans1, testDefinition())
	if err := node1.Init(); err != nil {
		t.Fatal(err)
	}
	node1.RunAsync()
	defer node1.Shutdown()

	e := entry.New("message", "{\"message\":\"hello\"}")
	address, err := node0.Submit(e)
	if err != nil {
		t.Fatal(err)
	}

	// publication floods to node1
	fetched := waitFetchLocal(t, node1, address, 3*time.Second)
	if !reflect.DeepEqual(e, fetched) {
		t.Fatalf("entry should be %#v, not %#v", e, fetched)
	}
}

func TestFetchFromPeer(t *testing.T) {
	ks, peerSet := initPeers(t, 2)

	_, trans0 := net.NewInmemTransport("node0")
	_, trans1 := net.NewInmemTransport("node1")
	// one way only: node1 can reach node0, but the flood from node0 cannot
	// reach node1
	trans1.Connect("node0", trans0)

	node0 := newTestNode(t, ks[0], "node0", peerSet, trans0, testDefinition())
	if err := node0.Init(); err != nil {
		t.Fatal(err)
	}
	node0.RunAsync()
	defer node0.Shutdown()

	node1 := newTestNode(t, ks[1], "node1", peerSet, trans1, testDefinition())
	if err := node1.Init(); err != nil {
		t.Fatal(err)
	}
	node1.RunAsync()
	defer node1.Shutdown()

	e := entry.New("message", "{\"message\":\"hello\"}")
	address, err := node0.Submit(e)
	if err != nil {
		t.Fatal(err)
	}

	// node1 never received the flood
	if _, err := node1.FetchLocal(address); !cm.IsStore(err, cm.KeyNotFound) {
		t.Fatalf("err should be KeyNotFound, not %v", err)
	}

	// the network fallback gets it from node0 and caches it
	fetched, err := node1.Fetch(address)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(e, fetched) {
		t.Fatalf("entry should be %#v, not %#v", e, fetched)
	}

	if _, err := node1.FetchLocal(address); err != nil {
		t.Fatalf("entry should now be held locally, got %v", err)
	}
}

func TestSuspendResume(t *testing.T) {
	ks, peerSet := initPeers(t, 2)

	_, clientTrans := net.NewInmemTransport("node0")
	_, nodeTrans := net.NewInmemTransport("node1")
	clientTrans.Connect("node1", nodeTrans)

	node := newTestNode(t, ks[1], "node1", peerSet, nodeTrans, testDefinition())
	if err := node.Init(); err != nil {
		t.Fatal(err)
	}
	node.RunAsync()
	defer node.Shutdown()

	node.Suspend()

	if s := node.GetState(); s != state.Suspended {
		t.Fatalf("state should be Suspended, not %v", s)
	}

	if _, err := node.Submit(entry.New("message", "{}")); err == nil {
		t.Fatal("Submit should be refused while suspended")
	}

	e := entry.New("message", "{\"message\":\"hello\"}")
	data, err := e.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	args := net.PublishRequest{
		FromID: peerSet.Peers[0].ID(),
		Entry:  data,
	}

	var out net.PublishResponse
	if err := clientTrans.Publish("node1", &args, &out); err == nil {
		t.Fatal("a suspended node should refuse RPCs")
	}

	node.Resume()

	if s := node.GetState(); s != state.Running {
		t.Fatalf("state should be Running, not %v", s)
	}

	if err := clientTrans.Publish("node1", &args, &out); err != nil {
		t.Fatalf("err: %v", err)
	}
	if !out.Success {
		t.Fatal("PublishResponse.Success should be true")
	}
}

func TestMaintenanceMode(t *testing.T) {
	ks, peerSet := initPeers(t, 1)

	_, trans := net.NewInmemTransport("node0")

	conf := config.NewTestConfig(t, cm.TestLogLevel)
	conf.MaintenanceMode = true

	validator := NewValidator(ks[0], "node0")
	network := net.NewPeerNetwork(validator.ID(), peerSet, trans, conf.Logger())
	store := dht.NewStore(cas.NewInmemStore(), eav.NewInmemStore(), network)
	rt := runtime.NewRuntime(store, testDefinition(), validator.PublicKeyHex(), conf.CacheSize, conf.Logger())

	node := NewNode(conf, validator, peerSet, rt, trans)
	if err := node.Init(); err != nil {
		t.Fatal(err)
	}
	node.RunAsync()
	defer node.Shutdown()

	if s := node.GetState(); s != state.Suspended {
		t.Fatalf("state should be Suspended, not %v", s)
	}

	// genesis only runs once the node is resumed
	agent := entry.New(entry.TypeAgentID, validator.PublicKeyHex())
	if _, err := node.FetchLocal(agent.Address()); !cm.IsStore(err, cm.KeyNotFound) {
		t.Fatalf("err should be KeyNotFound, not %v", err)
	}

	node.Resume()

	if s := node.GetState(); s != state.Running {
		t.Fatalf("state should be Running, not %v", s)
	}

	if _, err := node.FetchLocal(agent.Address()); err != nil {
		t.Fatalf("agent identity should be committed, got %v", err)
	}
}

func TestShutdown(t *testing.T) {
	ks, peerSet := initPeers(t, 1)

	_, trans := net.NewInmemTransport("node0")

	node := newTestNode(t, ks[0], "node0", peerSet, trans, testDefinition())
	if err := node.Init(); err != nil {
		t.Fatal(err)
	}
	node.RunAsync()

	node.Shutdown()

	if s := node.GetState(); s != state.Shutdown {
		t.Fatalf("state should be Shutdown, not %v", s)
	}

	if _, err := node.Submit(entry.New("message", "{}")); err == nil {
		t.Fatal("Submit should be refused after shutdown")
	}

	// Shutdown is idempotent
	node.Shutdown()
}

func TestGetStats(t *testing.T) {
	ks, peerSet := initPeers(t, 2)

	_, trans := net.NewInmemTransport("node0")

	node := newTestNode(t, ks[0], "node0", peerSet, trans, testDefinition())
	if err := node.Init(); err != nil {
		t.Fatal(err)
	}
	node.RunAsync()
	defer node.Shutdown()

	if _, err := node.Submit(entry.New("message", "{\"message\":\"hello\"}")); err != nil {
		t.Fatal(err)
	}

	stats := node.GetStats()

	if stats["state"] != "Running" {
		t.Fatalf("state should be Running, not %s", stats["state"])
	}
	if stats["moniker"] != "node0" {
		t.Fatalf("moniker should be node0, not %s", stats["moniker"])
	}
	if stats["num_peers"] != "2" {
		t.Fatalf("num_peers should be 2, not %s", stats["num_peers"])
	}
	// genesis plus one submission
	if stats["state_version"] != "2" {
		t.Fatalf("state_version should be 2, not %s", stats["state_version"])
	}
	if stats["application"] != "chat" {
		t.Fatalf("application should be chat, not %s", stats["application"])
	}
}
