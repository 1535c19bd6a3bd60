package commands

import (
	"os"
	"path/filepath"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/waggleworks/waggle/src/waggle"
)

//NewRunCmd returns the command that starts a Waggle node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runWaggle,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runWaggle(cmd *cobra.Command, args []string) error {
	engine := waggle.NewWaggle(_config)

	if err := engine.Init(); err != nil {
		_config.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	engine.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("moniker", _config.Moniker, "Optional name")
	cmd.Flags().Bool("maintenance-mode", _config.MaintenanceMode, "Start the node in a suspended state")

	// Network
	cmd.Flags().StringP("listen", "l", _config.BindAddr, "Listen IP:Port for waggle node")
	cmd.Flags().StringP("advertise", "a", _config.AdvertiseAddr, "Advertise IP:Port for waggle node")
	cmd.Flags().DurationP("timeout", "t", _config.TCPTimeout, "TCP Timeout")
	cmd.Flags().Int("max-pool", _config.MaxPool, "Connection pool size max")

	// WebRTC
	cmd.Flags().Bool("webrtc", _config.WebRTC, "Use WebRTC transport")
	cmd.Flags().String("signal-addr", _config.SignalAddr, "Address of WebRTC signaling server")
	cmd.Flags().String("signal-realm", _config.SignalRealm, "Routing domain within the signaling server")
	cmd.Flags().Bool("signal-skip-verify", _config.SignalSkipVerify, "(unsafe) Accept any certificate presented by the signaling server")
	cmd.Flags().String("ice-addr", _config.ICEAddress, "Address of ICE server (STUN or TURN)")
	cmd.Flags().String("ice-username", _config.ICEUsername, "Username for the ICE server")
	cmd.Flags().String("ice-password", _config.ICEPassword, "Password for the ICE server")

	// Service
	cmd.Flags().Bool("no-service", _config.NoService, "Disable the HTTP service")
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.DatabaseDir, "Database directory")
	cmd.Flags().Int("cache-size", _config.CacheSize, "Number of items in LRU caches")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	addFileHooks(_config.Logger().Logger)

	logFields := logrus.Fields{
		"DataDir":         _config.DataDir,
		"BindAddr":        _config.BindAddr,
		"AdvertiseAddr":   _config.AdvertiseAddr,
		"NoService":       _config.NoService,
		"ServiceAddr":     _config.ServiceAddr,
		"MaxPool":         _config.MaxPool,
		"TCPTimeout":      _config.TCPTimeout,
		"Store":           _config.Store,
		"CacheSize":       _config.CacheSize,
		"LogLevel":        _config.LogLevel,
		"Moniker":         _config.Moniker,
		"MaintenanceMode": _config.MaintenanceMode,
		"WebRTC":          _config.WebRTC,
	}

	if _config.Store {
		logFields["DatabaseDir"] = _config.DatabaseDir
	}

	if _config.WebRTC {
		logFields["SignalAddr"] = _config.SignalAddr
		logFields["SignalRealm"] = _config.SignalRealm
		logFields["ICEAddress"] = _config.ICEAddress
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/waggle.toml (.json, .yaml also work)
	viper.SetConfigName("waggle")        // name of config file (without extension)
	viper.AddConfigPath(_config.DataDir) // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}

//addFileHooks routes info and debug output to log files in the data
//directory, in addition to the default output.
func addFileHooks(logger *logrus.Logger) {
	pathMap := lfshook.PathMap{}

	infoLog := filepath.Join(_config.DataDir, "waggle_info.log")
	if _, err := os.OpenFile(infoLog, os.O_CREATE|os.O_WRONLY, 0666); err != nil {
		logger.Info("Failed to open waggle_info.log file, using default stderr")
	} else {
		pathMap[logrus.InfoLevel] = infoLog
	}

	debugLog := filepath.Join(_config.DataDir, "waggle_debug.log")
	if _, err := os.OpenFile(debugLog, os.O_CREATE|os.O_WRONLY, 0666); err != nil {
		logger.Info("Failed to open waggle_debug.log file, using default stderr")
	} else {
		pathMap[logrus.DebugLevel] = debugLog
	}

	logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))
}
