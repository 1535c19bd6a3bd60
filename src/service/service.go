package service

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	cm "github.com/waggleworks/waggle/src/common"
	"github.com/waggleworks/waggle/src/node"
)

// Service is the HTTP API through which a Waggle node is inspected.
type Service struct {
	sync.Mutex

	bindAddress string
	node        *node.Node
	logger      *logrus.Entry
}

// NewService instantiates a Service and registers its handlers.
func NewService(bindAddress string, n *node.Node, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

// registerHandlers registers the API handlers with the DefaultServerMux of the
// http package. It is possible that another server in the same process is
// simultaneously using the DefaultServerMux. In which case, the handlers will
// be accessible from both servers. This is usefull when Waggle is used
// in-memory and expecpted to use the same endpoint (address:port) as the
// application's API.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering Waggle API handlers")
	http.HandleFunc("/stats", s.makeHandler(s.GetStats))
	http.HandleFunc("/entry/", s.makeHandler(s.GetEntry))
	http.HandleFunc("/peers", s.makeHandler(s.GetPeers))
	http.HandleFunc("/schema", s.makeHandler(s.GetSchema))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Serve calls ListenAndServe. This is a blocking call. It is not necessary to
// call Serve when Waggle is used in-memory and another server has already been
// started with the DefaultServerMux and the same address:port combination.
// Indeed, Waggle API handlers have already been registered when the service
// was instantiated.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving Waggle API")

	// Use the DefaultServerMux
	err := http.ListenAndServe(s.bindAddress, nil)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats returns the node and runtime counters.
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.node.GetStats()

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}

// GetEntry returns the entry at the address given in the URL path. It reads
// from local storage only, without asking other nodes, so it works in any
// node state; a missing address is a 404.
func (s *Service) GetEntry(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Path[len("/entry/"):]

	e, err := s.node.FetchLocal(address)

	if err != nil {
		s.logger.WithError(err).Errorf("Retrieving entry %s", address)

		code := http.StatusInternalServerError
		if cm.IsStore(err, cm.KeyNotFound) {
			code = http.StatusNotFound
		}

		http.Error(w, err.Error(), code)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(e)
}

// GetPeers returns the peer-set.
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(s.node.Peers().Peers)
}

// GetSchema returns the application definition the node was started with, or
// a 404 when the node runs without one.
func (s *Service) GetSchema(w http.ResponseWriter, r *http.Request) {
	definition := s.node.Definition()

	if definition == nil {
		http.Error(w, "no application definition", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(definition)
}
