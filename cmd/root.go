package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/redwire/client"
	"github.com/luma/redwire/cmd/gen"
	"github.com/luma/redwire/internal/env"
)

var (
	// Overrides for the REDWIRE_* environment, applied when the flag is set
	addr     string
	network  string
	db       int
	password string
	logLevel string
)

var RootCmd = &cobra.Command{
	Use:   "redwire",
	Short: "A pipelined Redis client",
	Long: `A pipelined Redis client

Connection settings are read from REDWIRE_ADDR, REDWIRE_DB, REDWIRE_PASSWORD
and friends, or from a .env.local file. Flags take precedence.`,
	SilenceUsage: true,
}

func init() {
	flags := RootCmd.PersistentFlags()

	flags.StringVar(&addr, "addr", "", "The address of the Redis server (default $REDWIRE_ADDR)")
	flags.StringVar(&network, "network", "", `The network to dial, "tcp" or "unix" (default $REDWIRE_NETWORK)`)
	flags.IntVarP(&db, "db", "n", 0, "The database to select (default $REDWIRE_DB)")
	flags.StringVar(&password, "password", "", "The password to AUTH with (default $REDWIRE_PASSWORD)")
	flags.StringVar(&logLevel, "log-level", "", "The log level (default $REDWIRE_LOG_LEVEL)")

	RootCmd.AddCommand(ExecCmd)
	RootCmd.AddCommand(ScanCmd)
	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(VersionCmd)
	RootCmd.AddCommand(gen.RootCmd)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration, applies the flags the user set and builds
// the logger.
func setup(ctx context.Context, cmd *cobra.Command) (*env.Config, *zap.Logger, error) {
	conf, err := env.LoadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("addr") {
		conf.Addr = addr
	}

	if flags.Changed("network") {
		conf.Network = network
	}

	if flags.Changed("db") {
		conf.DB = db
	}

	if flags.Changed("password") {
		conf.Password = password
	}

	if flags.Changed("log-level") {
		conf.LogLevel = logLevel
	}

	log, err := env.MakeLogger(conf.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	return conf, log, nil
}

func clientOptions(conf *env.Config, log *zap.Logger) client.Options {
	return client.Options{
		Network:  conf.Network,
		Addr:     conf.Addr,
		DB:       conf.DB,
		Password: conf.Password,
		Log:      log.Named("client"),
	}
}
