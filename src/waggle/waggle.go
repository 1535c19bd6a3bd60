package waggle

import (
	"crypto/ecdsa"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/waggleworks/waggle/src/cas"
	"github.com/waggleworks/waggle/src/config"
	"github.com/waggleworks/waggle/src/crypto/keys"
	"github.com/waggleworks/waggle/src/dht"
	"github.com/waggleworks/waggle/src/eav"
	"github.com/waggleworks/waggle/src/net"
	"github.com/waggleworks/waggle/src/net/signal/wamp"
	"github.com/waggleworks/waggle/src/node"
	"github.com/waggleworks/waggle/src/peers"
	"github.com/waggleworks/waggle/src/runtime"
	"github.com/waggleworks/waggle/src/schema"
	"github.com/waggleworks/waggle/src/service"
)

// Waggle is a struct containing the key parts of a Waggle node.
type Waggle struct {
	Config     *config.Config
	Validator  *node.Validator
	Peers      *peers.PeerSet
	Definition *schema.Definition
	CAS        cas.Store
	EAV        eav.Store
	Transport  net.Transport
	Runtime    *runtime.Runtime
	Node       *node.Node
	Service    *service.Service
}

// NewWaggle is a factory method that returns an uninitialised Waggle instance.
func NewWaggle(config *config.Config) *Waggle {
	engine := &Waggle{
		Config: config,
	}

	return engine
}

// initKey loads the private key from the keyfile, unless one was set directly
// in the configuration, and derives the validator from it. When no key is
// found, a new one is generated and persisted.
func (w *Waggle) initKey() error {
	if w.Config.Key == nil {
		simpleKeyfile := keys.NewSimpleKeyfile(w.Config.Keyfile())

		privKey, err := simpleKeyfile.ReadKey()

		if err != nil {
			w.Config.Logger().Warn("Cannot read private key from file", err)

			privKey, err = Keygen(w.Config.Keyfile())

			if err != nil {
				w.Config.Logger().Error("Cannot generate a new private key", err)

				return err
			}

			w.Config.Logger().Info("Created a new key: ", keys.PublicKeyHex(&privKey.PublicKey))
		}

		w.Config.Key = privKey
	}

	w.Validator = node.NewValidator(w.Config.Key, w.Config.Moniker)

	return nil
}

// initPeers loads the group's peer-set from the peers.json file in the data
// directory, unless one was set directly on the engine.
func (w *Waggle) initPeers() error {
	if w.Peers != nil {
		return nil
	}

	peerStore := peers.NewJSONPeerSet(w.Config.DataDir)

	participants, err := peerStore.PeerSet()

	if err != nil {
		return err
	}

	if participants.Len() == 0 {
		return fmt.Errorf("peers.json should define at least one peer")
	}

	w.Peers = participants

	return nil
}

// initDefinition loads the application definition from the app.json file in
// the data directory, unless one was set directly in the configuration. A
// node without an application still stores and relays entries, but commits
// nothing beyond its own system entries.
func (w *Waggle) initDefinition() error {
	if w.Config.Definition == nil {
		definition, err := schema.Load(w.Config.SchemaFile())

		if err != nil {
			if os.IsNotExist(err) {
				w.Config.Logger().Debug("No application definition")
				return nil
			}

			return err
		}

		w.Config.Definition = definition
	}

	w.Definition = w.Config.Definition

	return nil
}

// initStore builds the content-addressed store, backed by badger when Store
// is enabled, and the entity-attribute-value store.
func (w *Waggle) initStore() error {
	if !w.Config.Store {
		w.CAS = cas.NewInmemStore()

		w.Config.Logger().Debug("created new in-mem CAS")
	} else {
		w.Config.Logger().WithField("path", w.Config.DatabaseDir).Debug("Attempting to load or create database")

		casStore, err := cas.NewBadgerStore(w.Config.CacheSize, w.Config.DatabaseDir, w.Config.Logger())

		if err != nil {
			return err
		}

		w.CAS = casStore
	}

	w.EAV = eav.NewInmemStore()

	return nil
}

// initTransport builds the transport, unless one was set directly on the
// engine. With WebRTC, connections are negotiated through a WAMP signaling
// server, and the node is addressed by its public key rather than by an IP
// address.
func (w *Waggle) initTransport() error {
	if w.Transport != nil {
		return nil
	}

	if w.Config.WebRTC {
		signalClient, err := wamp.NewClient(
			w.Config.SignalAddr,
			w.Config.SignalRealm,
			w.Validator.PublicKeyHex(),
			w.Config.CertFile(),
			w.Config.SignalSkipVerify,
			w.Config.TCPTimeout,
			w.Config.Logger(),
		)

		if err != nil {
			return err
		}

		transport, err := net.NewWebRTCTransport(
			signalClient,
			w.Config.ICEServers(),
			w.Config.MaxPool,
			w.Config.TCPTimeout,
			w.Config.Logger(),
		)

		if err != nil {
			return err
		}

		w.Transport = transport

		return nil
	}

	transport, err := net.NewTCPTransport(
		w.Config.BindAddr,
		w.Config.AdvertiseAddr,
		w.Config.MaxPool,
		w.Config.TCPTimeout,
		w.Config.Logger(),
	)

	if err != nil {
		return err
	}

	w.Transport = transport

	return nil
}

// initNode assembles the runtime and the node. The local key must correspond
// to one of the peers in the peer-set.
func (w *Waggle) initNode() error {
	nodePub := w.Validator.PublicKeyHex()

	if _, ok := w.Peers.ByPubKey[nodePub]; !ok {
		return fmt.Errorf("cannot find self pubkey in peers.json")
	}

	w.Config.Logger().WithFields(logrus.Fields{
		"id":      w.Validator.ID(),
		"moniker": w.Validator.Moniker,
		"peers":   w.Peers.Len(),
	}).Debug("PARTICIPANT")

	network := net.NewPeerNetwork(w.Validator.ID(), w.Peers, w.Transport, w.Config.Logger())

	store := dht.NewStore(w.CAS, w.EAV, network)

	w.Runtime = runtime.NewRuntime(
		store,
		w.Definition,
		nodePub,
		w.Config.CacheSize,
		w.Config.Logger(),
	)

	w.Node = node.NewNode(
		w.Config,
		w.Validator,
		w.Peers,
		w.Runtime,
		w.Transport,
	)

	if err := w.Node.Init(); err != nil {
		return fmt.Errorf("failed to initialize node: %s", err)
	}

	return nil
}

// initService builds the HTTP API service, unless NoService is set.
func (w *Waggle) initService() error {
	if !w.Config.NoService {
		w.Service = service.NewService(w.Config.ServiceAddr, w.Node, w.Config.Logger())
	}

	return nil
}

// Init initialises the engine components in dependency order.
func (w *Waggle) Init() error {
	if err := w.initKey(); err != nil {
		return err
	}

	if err := w.initPeers(); err != nil {
		return err
	}

	if err := w.initDefinition(); err != nil {
		return err
	}

	if err := w.initStore(); err != nil {
		return err
	}

	if err := w.initTransport(); err != nil {
		return err
	}

	if err := w.initNode(); err != nil {
		return err
	}

	if err := w.initService(); err != nil {
		return err
	}

	return nil
}

// Run starts the service and the node's main loop. This is a blocking call.
func (w *Waggle) Run() {
	if w.Service != nil {
		go w.Service.Serve()
	}

	w.Node.Run()
}

// Keygen generates a new key pair and persists it to the keyfile. It refuses
// to overwrite an existing key.
func Keygen(keyfile string) (*ecdsa.PrivateKey, error) {
	simpleKeyfile := keys.NewSimpleKeyfile(keyfile)

	if _, err := simpleKeyfile.ReadKey(); err == nil {
		return nil, fmt.Errorf("another key already lives under %s", keyfile)
	}

	privKey, err := keys.GenerateECDSAKey()

	if err != nil {
		return nil, err
	}

	if err := simpleKeyfile.WriteKey(privKey); err != nil {
		return nil, err
	}

	return privKey, nil
}
