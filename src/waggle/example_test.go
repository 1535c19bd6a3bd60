package waggle

import (
	"os"

	"github.com/waggleworks/waggle/src/config"
	"github.com/waggleworks/waggle/src/entry"
	"github.com/waggleworks/waggle/src/schema"
)

// This example runs Waggle with an application defined directly in code
// rather than loaded from the app.json file. It illustrates how a node is
// configured, started, and used to commit an entry.
func Example() {
	// Start from default configuration.
	conf := config.NewDefaultConfig()

	// Define the application: a name and the entry types it declares. Only
	// public entry types are published to the group.
	conf.Definition = &schema.Definition{
		Name: "chat",
		EntryTypes: map[string]*schema.EntryTypeDef{
			"message": {Sharing: schema.SharingPublic},
		},
	}

	// Instantiate Waggle.
	engine := NewWaggle(conf)

	// Read in the configuration and initialise the node accordingly. This
	// expects a priv_key and a peers.json file in the data directory.
	if err := engine.Init(); err != nil {
		conf.Logger().Error("Cannot initialize waggle:", err)
		os.Exit(1)
	}

	// Run the node asynchronously.
	go engine.Run()

	defer engine.Node.Shutdown()

	// Commit an entry. The address is derived from the entry's content, and
	// the entry is published to the other nodes.
	address, err := engine.Node.Submit(entry.New("message", "{\"message\":\"hello\"}"))
	if err != nil {
		conf.Logger().Error("Cannot commit entry:", err)
		os.Exit(1)
	}

	conf.Logger().Info("Committed entry: ", address)
}
