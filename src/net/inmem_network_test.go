package net

import (
	"reflect"
	"testing"

	cm "github.com/waggleworks/waggle/src/common"
	"github.com/waggleworks/waggle/src/entry"
)

func TestInmemNetworkGet(t *testing.T) {
	hub := NewInmemHub()

	alice := NewInmemNetwork("alice", hub)
	bob := NewInmemNetwork("bob", hub)

	e := &entry.Entry{
		Type:    "post",
		Content: "{\"message\":\"hello\"}",
	}

	if err := alice.Publish(e); err != nil {
		t.Fatal(err)
	}

	// bob gets what alice published
	data, err := bob.Get(e.Address())
	if err != nil {
		t.Fatal(err)
	}

	fetched, err := entry.FromBytes(data)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(e, fetched) {
		t.Fatalf("entry should be %#v, not %#v", e, fetched)
	}
}

func TestInmemNetworkGetOwnPublication(t *testing.T) {
	hub := NewInmemHub()

	alice := NewInmemNetwork("alice", hub)

	e := &entry.Entry{
		Type:    "post",
		Content: "{\"message\":\"hello\"}",
	}

	if err := alice.Publish(e); err != nil {
		t.Fatal(err)
	}

	// alice's own publications are not returned to her
	_, err := alice.Get(e.Address())
	if !cm.IsStore(err, cm.KeyNotFound) {
		t.Fatalf("err should be KeyNotFound, not %v", err)
	}
}

func TestInmemNetworkKeyNotFound(t *testing.T) {
	hub := NewInmemHub()

	alice := NewInmemNetwork("alice", hub)
	NewInmemNetwork("bob", hub)

	_, err := alice.Get("no-such-address")
	if !cm.IsStore(err, cm.KeyNotFound) {
		t.Fatalf("err should be KeyNotFound, not %v", err)
	}
}

func TestInmemNetworkSetRaw(t *testing.T) {
	hub := NewInmemHub()

	alice := NewInmemNetwork("alice", hub)
	bob := NewInmemNetwork("bob", hub)

	// bob holds garbage at a fabricated address
	bob.SetRaw("some-address", []byte("garbage"))

	data, err := alice.Get("some-address")
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "garbage" {
		t.Fatalf("raw data should be garbage, not %s", string(data))
	}
}
