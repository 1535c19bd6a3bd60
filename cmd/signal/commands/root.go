package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/waggleworks/waggle/src/config"
	"github.com/waggleworks/waggle/src/net/signal/wamp"
)

var (
	url      = config.DefaultSignalAddr
	realm    = config.DefaultSignalRealm
	certFile = "cert.pem"
	keyFile  = "key.pem"
	logLevel = "debug"
)

func init() {
	RootCmd.Flags().StringVar(&url, "listen", url, "Listen IP:Port")
	RootCmd.Flags().StringVar(&realm, "realm", realm, "Routing domain within the signaling server")
	RootCmd.Flags().StringVar(&certFile, "cert-file", certFile, "File containing TLS certificate")
	RootCmd.Flags().StringVar(&keyFile, "key-file", keyFile, "File containing certificate key")
	RootCmd.Flags().StringVar(&logLevel, "log", logLevel, "debug, info, warn, error, fatal, panic")
}

//RootCmd is the root command for the signaling server
var RootCmd = &cobra.Command{
	Use:   "signal",
	Short: "WebRTC signaling server for Waggle, using WebSockets",
	RunE:  runServer,
}

// runServer starts the WAMP server and waits for a SIGINT or SIGTERM
func runServer(cmd *cobra.Command, args []string) error {
	logger := logrus.New()
	logger.Level = config.LogLevel(logLevel)

	server, err := wamp.NewServer(url, realm, certFile, keyFile, logrus.NewEntry(logger))
	if err != nil {
		return err
	}

	go server.Run()

	//Prepare sigCh to relay SIGINT and SIGTERM system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh

	server.Shutdown()

	return nil
}
