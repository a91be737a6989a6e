package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hwinsight/hic/pkg/api"
	"github.com/hwinsight/hic/pkg/infra/logger"
	"github.com/hwinsight/hic/pkg/store"
	"github.com/spf13/cobra"
)

func NewServeCommand(root *RootCommand) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the console REST API server",
		Long: `Serve starts the HTTP API for host registration, assessment jobs,
and report retrieval. State is kept in a SQLite database under the
configured data directory. Jobs run on a single background worker.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(root, listenAddr)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default from config)")

	return cmd
}

func runServe(root *RootCommand, listenAddr string) error {
	cfg := root.Config()
	log := logger.Default()

	if listenAddr != "" {
		cfg.API.ListenAddr = listenAddr
	}

	if err := os.MkdirAll(cfg.General.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	dbPath := filepath.Join(cfg.General.DataDir, "hic.db")

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	runner := api.NewJobRunner(st, log, cfg.Assess.CommandTimeoutD)
	server := api.NewServer(cfg, st, runner, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		runner.Stop()
		return err
	case sig := <-sigCh:
		log.Info("received signal, shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
