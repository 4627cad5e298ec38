package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/subtitle-kit/subkit/internal/api"
	"github.com/subtitle-kit/subkit/internal/job"
	"github.com/subtitle-kit/subkit/internal/logging"
	"github.com/subtitle-kit/subkit/internal/translate"
	"github.com/subtitle-kit/subkit/internal/whisper"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser UI and job API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			queue := job.NewQueue()
			defer queue.Stop()

			whisperSvc := whisper.NewService(cfg.Whisper.Binary, cfg.Whisper.ServerURL)
			translateClient := translate.NewClient(cfg.Translate)

			srv, err := api.NewServer(cfg, queue, whisperSvc, translateClient)
			if err != nil {
				return err
			}

			httpSrv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           srv.NewRouter(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logging.Infof("listening on %s", cfg.Addr)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			case <-runCtx.Done():
			}

			logging.Infof("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8570)")
	return cmd
}
