package mobile

import (
	"time"

	"github.com/waggleworks/waggle/src/config"
)

// MobileConfig is a flat, gomobile-friendly counterpart of config.Config.
type MobileConfig struct {
	TCPTimeout int    //TCP timeout in milliseconds
	MaxPool    int    //Max number of pooled connections
	CacheSize  int    //Number of items in LRU caches
	StoreType  string //inmem or badger
	StorePath  string //Directory containing the badger database
	Moniker    string //Friendly name for this node
	WebRTC     bool   //Use WebRTC transport through a signaling server
	SignalAddr string //Address of the WAMP signaling server
}

func NewMobileConfig(tcpTimeout int,
	maxPool int,
	cacheSize int,
	storeType string,
	storePath string,
	moniker string,
	webRTC bool,
	signalAddr string) *MobileConfig {

	return &MobileConfig{
		TCPTimeout: tcpTimeout,
		MaxPool:    maxPool,
		CacheSize:  cacheSize,
		StoreType:  storeType,
		StorePath:  storePath,
		Moniker:    moniker,
		WebRTC:     webRTC,
		SignalAddr: signalAddr,
	}
}

func DefaultMobileConfig() *MobileConfig {
	return &MobileConfig{
		TCPTimeout: 1000,
		MaxPool:    2,
		CacheSize:  500,
		StoreType:  "inmem",
		StorePath:  "",
		Moniker:    "",
		WebRTC:     false,
		SignalAddr: config.DefaultSignalAddr,
	}
}

// toWaggleConfig maps a MobileConfig onto a config.Config. The mobile node
// runs without the HTTP service.
func (c *MobileConfig) toWaggleConfig() *config.Config {
	conf := config.NewDefaultConfig()

	conf.TCPTimeout = time.Duration(c.TCPTimeout) * time.Millisecond
	conf.MaxPool = c.MaxPool
	conf.CacheSize = c.CacheSize
	conf.Store = c.StoreType == "badger"
	conf.Moniker = c.Moniker
	conf.WebRTC = c.WebRTC
	conf.SignalAddr = c.SignalAddr
	conf.NoService = true

	if c.StorePath != "" {
		conf.DatabaseDir = c.StorePath
	}

	return conf
}
