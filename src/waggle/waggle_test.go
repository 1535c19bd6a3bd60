package waggle

import (
	"crypto/ecdsa"
	"io/ioutil"
	"os"
	"reflect"
	"testing"

	cm "github.com/waggleworks/waggle/src/common"
	"github.com/waggleworks/waggle/src/config"
	"github.com/waggleworks/waggle/src/crypto/keys"
	"github.com/waggleworks/waggle/src/entry"
	"github.com/waggleworks/waggle/src/net"
	"github.com/waggleworks/waggle/src/peers"
	"github.com/waggleworks/waggle/src/schema"
)

func testDefinition() *schema.Definition {
	return &schema.Definition{
		Name: "chat",
		EntryTypes: map[string]*schema.EntryTypeDef{
			"message": {Sharing: schema.SharingPublic},
		},
	}
}

func newInmemEngine(
	t *testing.T,
	moniker string,
	key *ecdsa.PrivateKey,
	peerSet *peers.PeerSet,
	trans net.Transport,
) *Waggle {
	conf := config.NewTestConfig(t, cm.TestLogLevel)
	conf.Moniker = moniker
	conf.Key = key
	conf.NoService = true
	conf.Definition = testDefinition()

	engine := NewWaggle(conf)
	engine.Peers = peerSet
	engine.Transport = trans

	if err := engine.Init(); err != nil {
		t.Fatal(err)
	}

	return engine
}

func TestTwoNodes(t *testing.T) {
	key0, err := keys.GenerateECDSAKey()
	if err != nil {
		t.Fatal(err)
	}
	key1, err := keys.GenerateECDSAKey()
	if err != nil {
		t.Fatal(err)
	}

	peerSet := peers.NewPeerSet([]*peers.Peer{
		peers.NewPeer(keys.PublicKeyHex(&key0.PublicKey), "node0", "node0"),
		peers.NewPeer(keys.PublicKeyHex(&key1.PublicKey), "node1", "node1"),
	})

	_, trans0 := net.NewInmemTransport("node0")
	_, trans1 := net.NewInmemTransport("node1")
	// one way only, so that node1 has to ask for the entry rather than
	// receive it through the flood
	trans1.Connect("node0", trans0)

	engine0 := newInmemEngine(t, "node0", key0, peerSet, trans0)
	engine0.Node.RunAsync()
	defer engine0.Node.Shutdown()

	engine1 := newInmemEngine(t, "node1", key1, peerSet, trans1)
	engine1.Node.RunAsync()
	defer engine1.Node.Shutdown()

	e := entry.New("message", "{\"message\":\"hello\"}")

	address, err := engine0.Node.Submit(e)
	if err != nil {
		t.Fatal(err)
	}

	fetched, err := engine1.Node.Fetch(address)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(e, fetched) {
		t.Fatalf("entry should be %#v, not %#v", e, fetched)
	}

	// the fetched entry was cached on the way in
	if _, err := engine1.Node.FetchLocal(address); err != nil {
		t.Fatalf("entry should be held locally, got %v", err)
	}
}

func TestInitKey(t *testing.T) {
	os.RemoveAll("test_data")
	os.Mkdir("test_data", os.ModeDir|0777)
	defer os.RemoveAll("test_data")

	conf := config.NewTestConfig(t, cm.TestLogLevel)
	conf.SetDataDir("test_data")

	// no keyfile yet, so a key is generated and persisted
	engine := NewWaggle(conf)
	if err := engine.initKey(); err != nil {
		t.Fatal(err)
	}

	pub := engine.Validator.PublicKeyHex()

	conf2 := config.NewTestConfig(t, cm.TestLogLevel)
	conf2.SetDataDir("test_data")

	engine2 := NewWaggle(conf2)
	if err := engine2.initKey(); err != nil {
		t.Fatal(err)
	}

	if pub2 := engine2.Validator.PublicKeyHex(); pub2 != pub {
		t.Fatalf("reloaded key should be %s, not %s", pub, pub2)
	}
}

func TestKeygenRefusesOverwrite(t *testing.T) {
	os.RemoveAll("test_data")
	os.Mkdir("test_data", os.ModeDir|0777)
	defer os.RemoveAll("test_data")

	conf := config.NewTestConfig(t, cm.TestLogLevel)
	conf.SetDataDir("test_data")

	if _, err := Keygen(conf.Keyfile()); err != nil {
		t.Fatal(err)
	}

	if _, err := Keygen(conf.Keyfile()); err == nil {
		t.Fatal("Keygen should refuse to overwrite an existing key")
	}
}

func TestInitStore(t *testing.T) {
	os.RemoveAll("test_data")
	os.Mkdir("test_data", os.ModeDir|0777)
	defer os.RemoveAll("test_data")

	conf := config.NewTestConfig(t, cm.TestLogLevel)
	conf.SetDataDir("test_data")
	conf.Store = true

	engine := NewWaggle(conf)

	if err := engine.initStore(); err != nil {
		t.Fatal(err)
	}

	if err := engine.CAS.Add(entry.New("message", "{\"message\":\"hello\"}")); err != nil {
		t.Fatal(err)
	}

	if err := engine.CAS.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(conf.DatabaseDir); err != nil {
		t.Fatalf("database directory should exist: %v", err)
	}

	// a second engine picks the database back up
	engine2 := NewWaggle(conf)

	if err := engine2.initStore(); err != nil {
		t.Fatal(err)
	}
	defer engine2.CAS.Close()

	e := entry.New("message", "{\"message\":\"hello\"}")
	fetched, err := engine2.CAS.Fetch(e.Address())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(e, fetched) {
		t.Fatalf("entry should be %#v, not %#v", e, fetched)
	}
}

func TestInitDefinition(t *testing.T) {
	os.RemoveAll("test_data")
	os.Mkdir("test_data", os.ModeDir|0777)
	defer os.RemoveAll("test_data")

	conf := config.NewTestConfig(t, cm.TestLogLevel)
	conf.SetDataDir("test_data")

	// a missing app.json leaves the node without an application
	engine := NewWaggle(conf)
	if err := engine.initDefinition(); err != nil {
		t.Fatal(err)
	}
	if engine.Definition != nil {
		t.Fatalf("definition should be nil, not %#v", engine.Definition)
	}

	definition := testDefinition()
	data, err := definition.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(conf.SchemaFile(), data, 0644); err != nil {
		t.Fatal(err)
	}

	engine2 := NewWaggle(conf)
	if err := engine2.initDefinition(); err != nil {
		t.Fatal(err)
	}
	if engine2.Definition == nil || engine2.Definition.Name != "chat" {
		t.Fatalf("definition should be chat, not %#v", engine2.Definition)
	}
}
