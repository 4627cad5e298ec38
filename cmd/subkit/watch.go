package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/subtitle-kit/subkit/internal/watcher"
	"github.com/subtitle-kit/subkit/internal/whisper"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	opts := newTranscribeFlags()

	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Watch a directory and transcribe new media files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := whisper.NewService(cfg.Whisper.Binary, cfg.Whisper.ServerURL)
			engine := opts.engine
			if engine == "" {
				engine = cfg.Whisper.Engine
			}
			recOpts := opts.options(cfg)

			w, err := watcher.New(args[0], func(handlerCtx context.Context, path string) error {
				outputPath, cues, err := svc.TranscribeMedia(handlerCtx, path, "", engine, recOpts, nil)
				if err != nil {
					color.Red("transcribe %s: %v", path, err)
					return err
				}
				color.Green("Wrote %d cues to %s", len(cues), outputPath)
				return nil
			})
			if err != nil {
				return err
			}

			fmt.Printf("Watching %s for media files (Ctrl-C to stop)...\n", args[0])
			if err := w.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	opts.register(cmd.Flags())
	return cmd
}
