package commands

import (
	"github.com/spf13/cobra"

	"github.com/waggleworks/waggle/src/config"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for Waggle
var RootCmd = &cobra.Command{
	Use:              "waggle",
	Short:            "waggle DHT",
	TraverseChildren: true,
}
