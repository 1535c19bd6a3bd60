package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/waggleworks/waggle/src/cas"
	cm "github.com/waggleworks/waggle/src/common"
	"github.com/waggleworks/waggle/src/config"
	"github.com/waggleworks/waggle/src/crypto/keys"
	"github.com/waggleworks/waggle/src/dht"
	"github.com/waggleworks/waggle/src/eav"
	"github.com/waggleworks/waggle/src/entry"
	"github.com/waggleworks/waggle/src/net"
	"github.com/waggleworks/waggle/src/node"
	"github.com/waggleworks/waggle/src/peers"
	"github.com/waggleworks/waggle/src/runtime"
	"github.com/waggleworks/waggle/src/schema"
)

func newTestNode(t *testing.T) *node.Node {
	conf := config.NewTestConfig(t, cm.TestLogLevel)

	key, err := keys.GenerateECDSAKey()
	if err != nil {
		t.Fatal(err)
	}

	peerSet := peers.NewPeerSet([]*peers.Peer{
		peers.NewPeer(keys.PublicKeyHex(&key.PublicKey), "node0", "node0"),
	})

	_, trans := net.NewInmemTransport("node0")

	definition := &schema.Definition{
		Name: "chat",
		EntryTypes: map[string]*schema.EntryTypeDef{
			"message": {Sharing: schema.SharingPublic},
		},
	}

	validator := node.NewValidator(key, "node0")
	network := net.NewPeerNetwork(validator.ID(), peerSet, trans, conf.Logger())
	store := dht.NewStore(cas.NewInmemStore(), eav.NewInmemStore(), network)
	rt := runtime.NewRuntime(store, definition, validator.PublicKeyHex(), conf.CacheSize, conf.Logger())

	n := node.NewNode(conf, validator, peerSet, rt, trans)
	if err := n.Init(); err != nil {
		t.Fatal(err)
	}
	n.RunAsync()

	return n
}

// One test for all endpoints; the handlers register with the DefaultServeMux,
// which only accepts a pattern once per process.
func TestService(t *testing.T) {
	n := newTestNode(t)
	defer n.Shutdown()

	e := entry.New("message", "{\"message\":\"hello\"}")
	address, err := n.Submit(e)
	if err != nil {
		t.Fatal(err)
	}

	conf := config.NewTestConfig(t, cm.TestLogLevel)
	s := NewService("", n, conf.Logger())

	get := func(handler func(http.ResponseWriter, *http.Request), path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", path, nil)
		s.makeHandler(handler)(w, r)
		return w
	}

	t.Run("stats", func(t *testing.T) {
		w := get(s.GetStats, "/stats")

		if w.Code != http.StatusOK {
			t.Fatalf("code should be %d, not %d", http.StatusOK, w.Code)
		}
		if h := w.Header().Get("Access-Control-Allow-Origin"); h != "*" {
			t.Fatalf("Access-Control-Allow-Origin should be *, not %q", h)
		}

		stats := map[string]string{}
		if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
			t.Fatal(err)
		}
		if stats["state"] != "Running" {
			t.Fatalf("state should be Running, not %s", stats["state"])
		}
	})

	t.Run("entry", func(t *testing.T) {
		w := get(s.GetEntry, "/entry/"+address)

		if w.Code != http.StatusOK {
			t.Fatalf("code should be %d, not %d", http.StatusOK, w.Code)
		}

		var fetched entry.Entry
		if err := json.NewDecoder(w.Body).Decode(&fetched); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(*e, fetched) {
			t.Fatalf("entry should be %#v, not %#v", *e, fetched)
		}
	})

	t.Run("entry not found", func(t *testing.T) {
		w := get(s.GetEntry, "/entry/no-such-address")

		if w.Code != http.StatusNotFound {
			t.Fatalf("code should be %d, not %d", http.StatusNotFound, w.Code)
		}
	})

	t.Run("peers", func(t *testing.T) {
		w := get(s.GetPeers, "/peers")

		if w.Code != http.StatusOK {
			t.Fatalf("code should be %d, not %d", http.StatusOK, w.Code)
		}

		var ps []*peers.Peer
		if err := json.NewDecoder(w.Body).Decode(&ps); err != nil {
			t.Fatal(err)
		}
		if len(ps) != 1 {
			t.Fatalf("peers should contain 1 peer, not %d", len(ps))
		}
		if ps[0].Moniker != "node0" {
			t.Fatalf("peer moniker should be node0, not %s", ps[0].Moniker)
		}
	})

	t.Run("schema", func(t *testing.T) {
		w := get(s.GetSchema, "/schema")

		if w.Code != http.StatusOK {
			t.Fatalf("code should be %d, not %d", http.StatusOK, w.Code)
		}

		var definition schema.Definition
		if err := json.NewDecoder(w.Body).Decode(&definition); err != nil {
			t.Fatal(err)
		}
		if definition.Name != "chat" {
			t.Fatalf("definition name should be chat, not %s", definition.Name)
		}
	})
}
