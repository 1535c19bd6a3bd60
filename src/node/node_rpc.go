package node

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/waggleworks/waggle/src/action"
	cm "github.com/waggleworks/waggle/src/common"
	"github.com/waggleworks/waggle/src/entry"
	"github.com/waggleworks/waggle/src/net"
)

func (n *Node) processRPC(rpc net.RPC) {
	switch cmd := rpc.Command.(type) {
	case *net.PublishRequest:
		n.processPublishRequest(rpc, cmd)
	case *net.GetRequest:
		n.processGetRequest(rpc, cmd)
	default:
		n.logger.WithField("cmd", rpc.Command).Error("Unexpected RPC command")
		rpc.Respond(nil, fmt.Errorf("unexpected command"))
	}
}

// processPublishRequest runs an entry received from another node through the
// local commit dispatch. The dispatch decides whether the entry is stored
// and republished; a rejection, like a duplicate delivery or an undeclared
// type, is reported with Success false, not as an error.
func (n *Node) processPublishRequest(rpc net.RPC, cmd *net.PublishRequest) {
	n.logger.WithFields(logrus.Fields{
		"from_id": cmd.FromID,
		"bytes":   len(cmd.Entry),
	}).Debug("process PublishRequest")

	atomic.AddInt32(&n.publishRequests, 1)

	resp := &net.PublishResponse{
		FromID: n.validator.ID(),
	}

	var respErr error

	e, err := entry.FromBytes(cmd.Entry)
	if err != nil {
		n.logger.WithField("error", err).Error("Parsing published entry")
		respErr = err
	} else {
		_, changed, err := n.runtime.Dispatch(action.Wrap(&action.Commit{Entry: e}))
		if err != nil {
			respErr = err
		} else {
			resp.Success = changed
		}

		if resp.Success && n.entryHandler != nil {
			n.entryHandler(e)
		}
	}

	n.logger.WithFields(logrus.Fields{
		"success": resp.Success,
		"error":   respErr,
	}).Debug("Responding to PublishRequest")

	rpc.Respond(resp, respErr)
}

// processGetRequest answers from local storage only. Fetching from the
// network on another node's behalf would let requests cascade through the
// group; a node that does not hold the address simply reports Found false.
func (n *Node) processGetRequest(rpc net.RPC, cmd *net.GetRequest) {
	n.logger.WithFields(logrus.Fields{
		"from_id": cmd.FromID,
		"address": cmd.Address,
	}).Debug("process GetRequest")

	atomic.AddInt32(&n.getRequests, 1)

	resp := &net.GetResponse{
		FromID: n.validator.ID(),
	}

	var respErr error

	e, err := n.runtime.State().Fetch(cmd.Address)
	if err == nil {
		data, err := e.Marshal()
		if err != nil {
			n.logger.WithField("error", err).Error("Marshalling entry")
			respErr = err
		} else {
			resp.Found = true
			resp.Entry = data
		}
	} else if !cm.IsStore(err, cm.KeyNotFound) {
		n.logger.WithField("error", err).Error("Fetching entry")
		respErr = err
	}

	n.logger.WithFields(logrus.Fields{
		"found": resp.Found,
		"error": respErr,
	}).Debug("Responding to GetRequest")

	rpc.Respond(resp, respErr)
}
