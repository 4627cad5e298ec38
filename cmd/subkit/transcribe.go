package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/subtitle-kit/subkit/internal/config"
	"github.com/subtitle-kit/subkit/internal/whisper"
)

// transcribeFlags holds the recognition options shared by the root
// shorthand and the transcribe subcommand.
type transcribeFlags struct {
	modelSize   string
	language    string
	device      string
	computeType string
	noVAD       bool
	engine      string
	output      string

	flagSet *pflag.FlagSet
}

func newTranscribeFlags() *transcribeFlags {
	return &transcribeFlags{}
}

func (f *transcribeFlags) register(flags *pflag.FlagSet) {
	f.flagSet = flags
	flags.StringVar(&f.modelSize, "model-size", "", "Recognition model size (tiny, base, small, medium, large-v3)")
	flags.StringVar(&f.language, "language", "", "Audio language code, empty for auto-detect")
	flags.StringVar(&f.device, "device", "", "Compute device (auto, cpu, cuda)")
	flags.StringVar(&f.computeType, "compute-type", "", "Model compute type (e.g. int8_float16)")
	flags.BoolVar(&f.noVAD, "no-vad", false, "Disable the voice activity filter")
	flags.StringVar(&f.engine, "engine", "", "Recognition engine (local or server)")
	flags.StringVarP(&f.output, "output", "o", "", "Output SRT path (default: <input>.srt)")
}

// options merges configuration defaults with explicit flag values. An
// empty --language is meaningful (auto-detect), so it is only applied
// when the flag was set.
func (f *transcribeFlags) options(cfg *config.Config) whisper.Options {
	opts := whisper.Options{
		ModelSize:   cfg.Whisper.ModelSize,
		Language:    cfg.Whisper.Language,
		Device:      cfg.Whisper.Device,
		ComputeType: cfg.Whisper.ComputeType,
		VADFilter:   !cfg.Whisper.NoVAD,
	}
	if f.modelSize != "" {
		opts.ModelSize = f.modelSize
	}
	if f.flagSet != nil && f.flagSet.Changed("language") {
		opts.Language = f.language
	}
	if f.device != "" {
		opts.Device = f.device
	}
	if f.computeType != "" {
		opts.ComputeType = f.computeType
	}
	if f.noVAD {
		opts.VADFilter = false
	}
	return opts
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	opts := newTranscribeFlags()

	cmd := &cobra.Command{
		Use:   "transcribe <media_path>",
		Short: "Transcribe a media file into an SRT subtitle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runTranscribe(cmd.Context(), cfg, args[0], opts)
		},
	}
	opts.register(cmd.Flags())
	return cmd
}

func runTranscribe(ctx context.Context, cfg *config.Config, mediaPath string, flags *transcribeFlags) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := os.Stat(mediaPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("media file %q not found", mediaPath)
		}
		return fmt.Errorf("stat media file: %w", err)
	}

	svc := whisper.NewService(cfg.Whisper.Binary, cfg.Whisper.ServerURL)

	engine := flags.engine
	if engine == "" {
		engine = cfg.Whisper.Engine
	}

	opts := flags.options(cfg)
	fmt.Printf("Transcribing %s (model=%s, engine=%s)...\n", mediaPath, opts.ModelSize, engine)

	outputPath, cues, err := svc.TranscribeMedia(ctx, mediaPath, flags.output, engine, opts, printProgress)
	if err != nil {
		return err
	}

	fmt.Println()
	color.Green("Wrote %d cues to %s", len(cues), outputPath)
	return nil
}

func printProgress(p float64) {
	fmt.Printf("\rProgress: %3.0f%%", p*100)
}
