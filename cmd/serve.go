package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/yz4230/deployboard/internal/server"
)

var serveFlags struct {
	port       int
	dataFile   string
	sqlitePath string
	remoteOnly bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the deploy record API",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyStorageFlags(cmd)
		if cmd.Flags().Changed("port") {
			appConfig.Port = serveFlags.port
		}

		cfg := &server.Config{App: appConfig, Logger: log.Logger}
		srv, err := server.New(cfg)
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("failed to initialize server")
			return err
		}

		chSignal := make(chan os.Signal, 1)
		signal.Notify(chSignal, os.Interrupt, syscall.SIGTERM)

		wg := &sync.WaitGroup{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				cfg.Logger.Fatal().Err(err).Msg("server error")
			}
		}()

		sig := <-chSignal
		cfg.Logger.Info().Str("signal", sig.String()).Msg("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			cfg.Logger.Error().Err(err).Msg("error during server shutdown")
		}

		wg.Wait()
		cfg.Logger.Info().Msg("server stopped")
		return nil
	},
}

// applyStorageFlags lets flags override the storage settings from the
// environment.
func applyStorageFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("data-file") {
		appConfig.DataFile = serveFlags.dataFile
	}
	if flags.Changed("sqlite") {
		appConfig.SQLitePath = serveFlags.sqlitePath
	}
	if flags.Changed("remote-only") {
		appConfig.RemoteOnly = serveFlags.remoteOnly
	}
}

func addStorageFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serveFlags.dataFile, "data-file", "data/deploys.json", "JSON file used as the local storage tier (empty disables it)")
	cmd.Flags().StringVar(&serveFlags.sqlitePath, "sqlite", "", "SQLite database used as an extra storage tier")
	cmd.Flags().BoolVar(&serveFlags.remoteOnly, "remote-only", false, "Use redis exclusively and surface its failures")
}

func init() {
	serveCmd.Flags().IntVarP(&serveFlags.port, "port", "p", 8080, "Port to listen on")
	addStorageFlags(serveCmd)
}
