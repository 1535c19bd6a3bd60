package mobile

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/waggleworks/waggle/src/crypto/keys"
	"github.com/waggleworks/waggle/src/entry"
	"github.com/waggleworks/waggle/src/node"
	"github.com/waggleworks/waggle/src/peers"
	"github.com/waggleworks/waggle/src/schema"
	"github.com/waggleworks/waggle/src/waggle"
)

type Node struct {
	nodeID           uint32
	node             *node.Node
	exceptionHandler ExceptionHandler
	logger           *logrus.Entry
}

// New initializes Node struct
func New(privKey string,
	nodeAddr string,
	jsonPeers string,
	jsonSchema string,
	commitHandler CommitHandler,
	exceptionHandler ExceptionHandler,
	config *MobileConfig) *Node {

	waggleConfig := config.toWaggleConfig()
	waggleConfig.BindAddr = nodeAddr

	waggleConfig.Logger().WithFields(logrus.Fields{
		"nodeAddr": nodeAddr,
		"peers":    jsonPeers,
		"config":   fmt.Sprintf("%v", config),
	}).Debug("New Mobile Node")

	//Check private key
	keyBytes, err := hex.DecodeString(strings.TrimSpace(privKey))
	if err != nil {
		exceptionHandler.OnException(fmt.Sprintf("Failed to read private key: %s", err))
		return nil
	}

	key, err := keys.ParsePrivateKey(keyBytes)
	if err != nil {
		exceptionHandler.OnException(fmt.Sprintf("Failed to parse private key: %s", err))
		return nil
	}

	waggleConfig.Key = key

	// Decode the peers
	var ps []*peers.Peer
	dec := json.NewDecoder(strings.NewReader(jsonPeers))
	if err := dec.Decode(&ps); err != nil {
		exceptionHandler.OnException(fmt.Sprintf("Failed to parse PeerSet: %s", err))
		return nil
	}

	peerSet := peers.NewPeerSet(ps)

	// Decode the application definition, when one is given
	if jsonSchema != "" {
		definition := new(schema.Definition)
		if err := json.Unmarshal([]byte(jsonSchema), definition); err != nil {
			exceptionHandler.OnException(fmt.Sprintf("Failed to parse schema: %s", err))
			return nil
		}
		if err := definition.Validate(); err != nil {
			exceptionHandler.OnException(fmt.Sprintf("Invalid schema: %s", err))
			return nil
		}

		waggleConfig.Definition = definition
	}

	engine := waggle.NewWaggle(waggleConfig)

	engine.Peers = peerSet

	if err := engine.Init(); err != nil {
		exceptionHandler.OnException(fmt.Sprintf("Cannot initialize engine: %s", err))
		return nil
	}

	//Relay committed entries to the mobile application
	engine.Node.SetEntryHandler(func(e *entry.Entry) {
		data, err := e.Marshal()
		if err != nil {
			exceptionHandler.OnException(fmt.Sprintf("Failed to marshal entry: %s", err))
			return
		}
		commitHandler.OnCommit(string(data))
	})

	return &Node{
		node:             engine.Node,
		nodeID:           engine.Node.ID(),
		exceptionHandler: exceptionHandler,
		logger:           waggleConfig.Logger(),
	}
}

func (n *Node) Run(async bool) {
	if async {
		n.node.RunAsync()
	} else {
		n.node.Run()
	}
}

func (n *Node) Shutdown() {
	n.node.Shutdown()
}

// Submit commits an entry of the given type and returns its address, or an
// empty string when the commit is refused.
func (n *Node) Submit(entryType string, content string) string {
	address, err := n.node.Submit(entry.New(entry.Type(entryType), content))
	if err != nil {
		n.exceptionHandler.OnException(fmt.Sprintf("Failed to submit entry: %s", err))
		return ""
	}

	return address
}

// Fetch returns the JSON encoding of the entry at an address, asking the
// other nodes when it is not held locally, or an empty string when it cannot
// be found.
func (n *Node) Fetch(address string) string {
	e, err := n.node.Fetch(address)
	if err != nil {
		n.exceptionHandler.OnException(fmt.Sprintf("Failed to fetch entry: %s", err))
		return ""
	}

	data, err := e.Marshal()
	if err != nil {
		n.exceptionHandler.OnException(fmt.Sprintf("Failed to marshal entry: %s", err))
		return ""
	}

	return string(data)
}

func (n *Node) GetPeers() string {
	peers := n.node.Peers().Peers

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(peers); err != nil {
		return ""
	}

	return buf.String()
}

func (n *Node) GetStats() string {
	stats := n.node.GetStats()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(stats); err != nil {
		return ""
	}

	return buf.String()
}
