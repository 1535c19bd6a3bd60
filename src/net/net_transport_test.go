package net

import (
	"reflect"
	"testing"
	"time"

	"github.com/waggleworks/waggle/src/common"
	"github.com/waggleworks/waggle/src/entry"
)

func TestNetworkTransport_StartStop(t *testing.T) {
	trans, err := NewTCPTransport("127.0.0.1:0", "", 2, time.Second, common.NewTestEntry(t, common.TestLogLevel))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	trans.Close()
}

// A pooled connection should be reused across consecutive RPCs.
func TestNetworkTransport_PooledConn(t *testing.T) {
	// Transport 1 is consumer
	trans1, err := NewTCPTransport("127.0.0.1:0", "", 2, time.Second, common.NewTestEntry(t, common.TestLogLevel))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer trans1.Close()

	go trans1.Listen()

	rpcCh := trans1.Consumer()

	entryBytes, err := (&entry.Entry{
		Type:    "post",
		Content: "{\"message\":\"hello\"}",
	}).Marshal()
	if err != nil {
		t.Fatal(err)
	}

	args := PublishRequest{
		FromID: 0,
		Entry:  entryBytes,
	}
	resp := PublishResponse{
		FromID:  1,
		Success: true,
	}

	// Listen for requests
	go func() {
		for {
			select {
			case rpc := <-rpcCh:
				req := rpc.Command.(*PublishRequest)
				if !reflect.DeepEqual(req, &args) {
					t.Errorf("command mismatch: %#v %#v", *req, args)
				}
				rpc.Respond(&resp, nil)

			case <-time.After(200 * time.Millisecond):
				return
			}
		}
	}()

	// Transport 2 makes outbound requests
	trans2, err := NewTCPTransport("127.0.0.1:0", "", 2, time.Second, common.NewTestEntry(t, common.TestLogLevel))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer trans2.Close()

	for i := 0; i < 5; i++ {
		var out PublishResponse
		if err := trans2.Publish(trans1.LocalAddr(), &args, &out); err != nil {
			t.Fatalf("err: %v", err)
		}

		if !reflect.DeepEqual(resp, out) {
			t.Fatalf("response mismatch: %#v %#v", resp, out)
		}
	}
}
