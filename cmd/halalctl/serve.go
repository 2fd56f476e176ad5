package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/api"
	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/ledger"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) (*cobra.Command, error) {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Long: `Serve the ledger's REST gateway under /api/v1. Callers identify themselves
with the X-Ledger-Address header. Every committed notification is logged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			emu, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events, unsubscribe := emu.Subscribe(64)
			done := make(chan struct{})
			go func() {
				defer close(done)
				logEvents(events, a.logger)
			}()
			defer func() {
				unsubscribe()
				<-done
			}()

			e := api.NewServer(emu, a.logger)
			serveErr := make(chan error, 1)
			go func() { serveErr <- e.Start(a.cfg.Listen) }()
			a.logger.Info("serving ledger gateway", zap.String("listen", a.cfg.Listen), zap.String("db", a.cfg.DB))

			select {
			case <-ctx.Done():
				a.logger.Info("shutting down")
			case err := <-serveErr:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
			return api.Shutdown(e, shutdownTimeout)
		},
	}
	serveCmd.Flags().String("listen", ":8080", "address the gateway listens on")
	if err := a.bind("listen", serveCmd.Flags().Lookup("listen")); err != nil {
		return nil, err
	}
	return serveCmd, nil
}

// logEvents logs each notification until the subscription ends.
func logEvents(events <-chan ledger.Event, logger *zap.Logger) {
	for ev := range events {
		logger.Info("ledger event",
			zap.String("event", ev.Name),
			zap.String("tx", ev.TxID),
			zap.ByteString("payload", ev.Payload))
	}
}
