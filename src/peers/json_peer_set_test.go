package peers

import (
	"fmt"
	"io/ioutil"
	"os"
	"testing"

	"crypto/ecdsa"

	"reflect"

	wkeys "github.com/waggleworks/waggle/src/crypto/keys"
)

func TestJSONPeerSet(t *testing.T) {
	// Create a test dir
	dir, err := ioutil.TempDir("", "waggle")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	// Create the store
	store := NewJSONPeerSet(dir)

	// Try a read, should get nothing
	peerSet, err := store.PeerSet()
	if err == nil {
		t.Fatalf("store.PeerSet() should generate an error")
	}
	if peerSet != nil {
		t.Fatalf("peerSet: %v", peerSet)
	}

	keys := map[string]*ecdsa.PrivateKey{}
	peers := []*Peer{}
	for i := 0; i < 3; i++ {
		key, _ := wkeys.GenerateECDSAKey()
		peer := &Peer{
			NetAddr:   fmt.Sprintf("addr%d", i),
			PubKeyHex: wkeys.PublicKeyHex(&key.PublicKey),
			Moniker:   fmt.Sprintf("peer%d", i),
		}
		peers = append(peers, peer)
		keys[peer.NetAddr] = key
	}

	newPeerSet := NewPeerSet(peers)
	newPeerSlice := newPeerSet.Peers

	if err := store.Write(newPeerSlice); err != nil {
		t.Fatalf("err: %v", err)
	}

	// Try a read, should find 3 peers
	peerSet, err = store.PeerSet()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if peerSet.Len() != 3 {
		t.Fatalf("peers: %v", peers)
	}

	peerSlice := peerSet.Peers

	for i := 0; i < 3; i++ {
		if peerSlice[i].NetAddr != newPeerSlice[i].NetAddr {
			t.Fatalf("peers[%d] NetAddr should be %s, not %s", i,
				newPeerSlice[i].NetAddr, peerSlice[i].NetAddr)
		}
		if peerSlice[i].Moniker != newPeerSlice[i].Moniker {
			t.Fatalf("peers[%d] Moniker should be %s, not %s", i,
				newPeerSlice[i].Moniker, peerSlice[i].Moniker)
		}
		if peerSlice[i].PubKeyHex != newPeerSlice[i].PubKeyHex {
			t.Fatalf("peers[%d] PubKeyHex should be %s, not %s", i,
				newPeerSlice[i].PubKeyHex, peerSlice[i].PubKeyHex)
		}
		pubKeyBytes := peerSlice[i].PubKeyBytes()
		pubKey := wkeys.ToPublicKey(pubKeyBytes)
		if !reflect.DeepEqual(*pubKey, keys[peerSlice[i].NetAddr].PublicKey) {
			t.Fatalf("peers[%d] PublicKey not parsed correctly", i)
		}
	}
}

func TestPeerID(t *testing.T) {
	key, _ := wkeys.GenerateECDSAKey()
	pubKeyHex := wkeys.PublicKeyHex(&key.PublicKey)

	peer1 := NewPeer(pubKeyHex, "addr1", "peer1")
	peer2 := NewPeer(pubKeyHex, "addr2", "peer2")

	// The ID is derived from the public key only
	if peer1.ID() != peer2.ID() {
		t.Fatalf("peers with the same public key should have the same ID")
	}

	otherKey, _ := wkeys.GenerateECDSAKey()
	peer3 := NewPeer(wkeys.PublicKeyHex(&otherKey.PublicKey), "addr3", "peer3")

	if peer1.ID() == peer3.ID() {
		t.Fatalf("peers with different public keys should have different IDs")
	}
}

func TestCleansePeerSet(t *testing.T) {
	key, _ := wkeys.GenerateECDSAKey()
	pubKeyHex := wkeys.PublicKeyHex(&key.PublicKey)

	// Create a test dir
	dir, err := ioutil.TempDir("", "waggle")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	store := NewJSONPeerSet(dir)

	// Write a peer with a lowercase public key
	lower := &Peer{
		NetAddr:   "addr0",
		PubKeyHex: "0x" + pubKeyHex[2:],
		Moniker:   "peer0",
	}

	if err := store.Write([]*Peer{lower}); err != nil {
		t.Fatalf("err: %v", err)
	}

	peerSet, err := store.PeerSet()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if got := peerSet.Peers[0].PubKeyHex; got != pubKeyHex {
		t.Fatalf("PubKeyHex should be cleansed to %s, not %s", pubKeyHex, got)
	}
}
