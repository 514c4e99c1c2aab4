package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pallet-group/partsdb/internal/db"
	"github.com/pallet-group/partsdb/internal/server"
	"github.com/pallet-group/partsdb/pkg/bazaarvoice"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the parts search API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Store.DatabaseURL == "" {
			return eris.New("database URL is required (PARTSDB_STORE_DATABASE_URL)")
		}

		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
		if err != nil {
			return err
		}
		defer pool.Close()

		costco := bazaarvoice.New(
			cfg.Costco.BaseURL,
			time.Duration(cfg.Costco.TimeoutSecs)*time.Second,
			cfg.Costco.RateLimitRPS,
		)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: server.New(pool, costco, *cfg).Routes(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
