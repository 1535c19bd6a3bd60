package node

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/waggleworks/waggle/src/config"
	"github.com/waggleworks/waggle/src/entry"
	"github.com/waggleworks/waggle/src/net"
	"github.com/waggleworks/waggle/src/node/state"
	"github.com/waggleworks/waggle/src/peers"
	"github.com/waggleworks/waggle/src/runtime"
	"github.com/waggleworks/waggle/src/schema"
)

// Node defines a waggle node
type Node struct {
	// The node is also a state.Manager, which provides utilities to control
	// the node's state machine and limit the number of goroutines launched
	// by the RPC loop.
	state.Manager

	conf   *config.Config
	logger *logrus.Entry

	validator *Validator

	runtime *runtime.Runtime

	peers *peers.PeerSet

	trans net.Transport
	netCh <-chan net.RPC

	sigintCh   chan os.Signal
	controlCh  chan struct{}
	shutdownCh chan struct{}

	start           time.Time
	publishRequests int32
	getRequests     int32

	entryHandler func(*entry.Entry)
}

// NewNode is a factory method that returns a Node instance
func NewNode(conf *config.Config,
	validator *Validator,
	peerSet *peers.PeerSet,
	rt *runtime.Runtime,
	trans net.Transport,
) *Node {
	//Prepare sigintCh to relay SIGINT system calls
	sigintCh := make(chan os.Signal, 1)
	signal.Notify(sigintCh, os.Interrupt, syscall.SIGINT)

	node := Node{
		conf:       conf,
		logger:     conf.Logger().WithField("this_id", validator.ID()),
		validator:  validator,
		runtime:    rt,
		peers:      peerSet,
		trans:      trans,
		netCh:      trans.Consumer(),
		sigintCh:   sigintCh,
		controlCh:  make(chan struct{}, 1),
		shutdownCh: make(chan struct{}),
	}

	return &node
}

// Init activates the runtime, which runs genesis, and sets the initial state.
// With MaintenanceMode, the node comes up Suspended and the runtime stays
// inactive until Resume.
func (n *Node) Init() error {
	n.start = time.Now()

	if n.conf.MaintenanceMode {
		n.logger.Debug("MaintenanceMode => Suspended")
		n.SetState(state.Suspended)
		return nil
	}

	if err := n.runtime.Start(); err != nil {
		return err
	}

	n.SetState(state.Running)

	return nil
}

// RunAsync calls Run as a separate thread.
func (n *Node) RunAsync() {
	go n.Run()
}

// Run invokes the main loop of the node.
func (n *Node) Run() {
	for {
		s := n.GetState()

		n.logger.WithField("state", s.String()).Debug("Run loop")

		switch s {
		case state.Running:
			n.running()
		case state.Suspended:
			n.suspended()
		case state.Shutdown:
			return
		}
	}
}

// running processes incoming RPCs until the state changes.
func (n *Node) running() {
	for {
		select {
		case rpc := <-n.netCh:
			n.GoFunc(func() {
				n.logger.Debug("Processing RPC")
				n.processRPC(rpc)
			})
		case <-n.controlCh:
			return
		case <-n.shutdownCh:
			return
		case <-n.sigintCh:
			n.logger.Debug("Reacting to SIGINT - Shutdown")
			n.Shutdown()
			os.Exit(0)
		}
	}
}

// suspended refuses incoming RPCs until the state changes.
func (n *Node) suspended() {
	for {
		select {
		case rpc := <-n.netCh:
			//a request can race with the control signal after Resume
			if n.GetState() == state.Running {
				n.GoFunc(func() {
					n.processRPC(rpc)
				})
				return
			}
			n.logger.Debug("Refusing RPC while suspended")
			rpc.Respond(nil, fmt.Errorf("node suspended"))
		case <-n.controlCh:
			return
		case <-n.shutdownCh:
			return
		case <-n.sigintCh:
			n.logger.Debug("Reacting to SIGINT - Shutdown")
			n.Shutdown()
			os.Exit(0)
		}
	}
}

// wakeup takes the run loop out of its current select, so that it re-reads
// the state. The channel is buffered; when a signal is already pending,
// another one is not needed.
func (n *Node) wakeup() {
	select {
	case n.controlCh <- struct{}{}:
	default:
	}
}

// Suspend deactivates the runtime and stops processing requests, without
// releasing the transport or storage.
func (n *Node) Suspend() {
	if n.GetState() == state.Running {
		n.logger.Debug("Suspend")

		if err := n.runtime.Stop(); err != nil {
			n.logger.WithField("error", err).Error("Stopping runtime")
		}

		n.SetState(state.Suspended)
		n.wakeup()
	}
}

// Resume reactivates the runtime and returns to processing requests.
func (n *Node) Resume() {
	if n.GetState() == state.Suspended {
		n.logger.Debug("Resume")

		if err := n.runtime.Start(); err != nil {
			n.logger.WithField("error", err).Error("Starting runtime")
			return
		}

		n.SetState(state.Running)
		n.wakeup()
	}
}

// SetEntryHandler registers a callback invoked for every entry committed
// through a network publication. Entries submitted locally do not go through
// the callback. It must be set before the node starts processing requests.
func (n *Node) SetEntryHandler(handler func(*entry.Entry)) {
	n.entryHandler = handler
}

// Submit commits an application entry on behalf of the local application. It
// returns the address the entry was stored under, or an error when the
// commit was rejected.
func (n *Node) Submit(e *entry.Entry) (string, error) {
	if n.GetState() != state.Running {
		return "", fmt.Errorf("node not running")
	}

	n.logger.WithField("type", e.Type).Debug("Submitting entry")

	return n.runtime.Commit(e)
}

// Fetch returns the entry at an address, asking the other nodes when it is
// not held locally.
func (n *Node) Fetch(address string) (*entry.Entry, error) {
	if n.GetState() != state.Running {
		return nil, fmt.Errorf("node not running")
	}

	return n.runtime.FetchEntry(address)
}

// FetchLocal returns the entry at an address from local storage only. It
// works in any state, so that a suspended node can still be inspected.
func (n *Node) FetchLocal(address string) (*entry.Entry, error) {
	return n.runtime.State().Fetch(address)
}

// Shutdown shuts down the node
func (n *Node) Shutdown() {
	if n.GetState() != state.Shutdown {
		n.logger.Debug("Shutdown")

		//Exit any non-shutdown state immediately
		n.SetState(state.Shutdown)

		//Stop and wait for concurrent operations
		close(n.shutdownCh)

		n.WaitRoutines()

		if n.runtime.Active() {
			if err := n.runtime.Stop(); err != nil {
				n.logger.WithField("error", err).Error("Stopping runtime")
			}
		}

		//transport should only be closed once all concurrent operations are
		//finished, otherwise they will panic trying to use closed objects
		n.trans.Close()
	}
}

// ID returns the node's ID within the peer-set.
func (n *Node) ID() uint32 {
	return n.validator.ID()
}

// Peers returns the node's peer-set.
func (n *Node) Peers() *peers.PeerSet {
	return n.peers
}

// Definition returns the loaded application definition, or nil.
func (n *Node) Definition() *schema.Definition {
	return n.runtime.Definition()
}

// GetStats returns the node and runtime counters.
func (n *Node) GetStats() map[string]string {
	timeElapsed := time.Since(n.start)

	s := n.runtime.Stats()

	s["id"] = fmt.Sprint(n.validator.ID())
	s["moniker"] = n.validator.Moniker
	s["state"] = n.GetState().String()
	s["time_elapsed"] = strconv.FormatFloat(timeElapsed.Seconds(), 'f', 2, 64)
	s["num_peers"] = strconv.Itoa(n.peers.Len())
	s["publish_requests"] = strconv.Itoa(int(atomic.LoadInt32(&n.publishRequests)))
	s["get_requests"] = strconv.Itoa(int(atomic.LoadInt32(&n.getRequests)))

	return s
}
