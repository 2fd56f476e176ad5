package main

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/config"
	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/emulator"
	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/logging"
	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/worldstate"
)

// app holds what the commands of one invocation share. The store is opened
// on first use so that --help never touches the database.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger
	store  *worldstate.Store
	emu    *emulator.Emulator
}

func execute(args []string, out, errOut io.Writer) error {
	a := &app{v: config.New(), logger: zap.NewNop()}
	defer a.close()

	root, err := newRootCmd(a)
	if err != nil {
		return err
	}
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.Execute()
}

func newRootCmd(a *app) (*cobra.Command, error) {
	root := &cobra.Command{
		Use:          "halalctl",
		Short:        "Track halal meat batches from farm to retail",
		SilenceUsage: true,
		Long: `halalctl operates a halal supply chain ledger stored in SQLite.

Participants are identified by their ledger address (--as). The admin
registers participants; farmers create batches that slaughterhouses,
processors, distributors and retailers advance, and the certifier (JAKIM)
approves or rejects halal certificates. Configuration can be provided via
a config file (--config), a .env file or environment variables (prefix HALAL_).`,
		Example: `  halalctl --as 0xAD01 init
  halalctl --as 0xAD01 user register 0xFA01 "Pak Ali" farmer
  halalctl --as 0xFA01 batch create Chicken 250
  halalctl --as 0x5A01 batch advance 1 slaughtered --location "Shah Alam"
  halalctl verify 1`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	// the CLI is interactive, so keep ledger chatter out of the way by default
	a.v.SetDefault("log.level", "warn")
	a.v.SetDefault("log.format", "console")

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (yaml, json or toml)")
	pf.String("db", "halal.db", "path of the SQLite ledger")
	pf.String("as", "", "ledger address to act as")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.String("log-format", "console", "log format: json or console")
	for key, name := range map[string]string{
		"config":     "config",
		"db":         "db",
		"as":         "as",
		"log.level":  "log-level",
		"log.format": "log-format",
	} {
		if err := a.bind(key, pf.Lookup(name)); err != nil {
			return nil, err
		}
	}

	serveCmd, err := newServeCommand(a)
	if err != nil {
		return nil, err
	}
	root.AddCommand(
		newInitCommand(a),
		newUserCommand(a),
		newBatchCommand(a),
		newCertCommand(a),
		newVerifyCommand(a),
		serveCmd,
	)
	return root, nil
}

func (a *app) init() error {
	if err := config.LoadDotEnv(""); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.v.GetString("config"))
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// bind ties a flag to a config key; a flag set on the command line wins
// over the config file and environment.
func (a *app) bind(key string, f *pflag.Flag) error {
	if err := a.v.BindPFlag(key, f); err != nil {
		return errors.Wrapf(err, "could not bind flag to %s", key)
	}
	return nil
}

// ledger opens the configured world state once per invocation.
func (a *app) ledger(ctx context.Context) (*emulator.Emulator, error) {
	if a.emu != nil {
		return a.emu, nil
	}
	store, err := worldstate.Open(ctx, a.cfg.DB, worldstate.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.store = store
	a.emu = emulator.New(store, a.logger)
	return a.emu, nil
}

// caller is the address mutating commands act as.
func (a *app) caller() (string, error) {
	as := a.v.GetString("as")
	if as == "" {
		return "", errors.New("no caller: pass --as or set HALAL_AS")
	}
	return as, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("could not close ledger", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
