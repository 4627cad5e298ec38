package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/subtitle-kit/subkit/internal/subtitle"
	"github.com/subtitle-kit/subkit/internal/translate"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var targetLang string
	var output string
	var baseURL string
	var apiKey string
	var model string
	var batchSize int
	var concurrency int

	cmd := &cobra.Command{
		Use:   "translate <subtitle_path>",
		Short: "Translate an SRT subtitle through an OpenAI-compatible API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			subtitlePath := args[0]
			data, err := os.ReadFile(subtitlePath)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("subtitle file %q not found", subtitlePath)
				}
				return fmt.Errorf("read subtitle: %w", err)
			}
			cues := subtitle.Parse(string(data))
			if len(cues) == 0 {
				return fmt.Errorf("no subtitle cues found in %s", subtitlePath)
			}

			tcfg := cfg.Translate
			if baseURL != "" {
				tcfg.BaseURL = baseURL
			}
			if apiKey != "" {
				tcfg.APIKey = apiKey
			}
			if model != "" {
				tcfg.Model = model
			}
			if batchSize > 0 {
				tcfg.BatchSize = batchSize
			}
			if concurrency > 0 {
				tcfg.Concurrency = concurrency
			}
			client := translate.NewClient(tcfg)

			fmt.Printf("Translating %d cues to %s...\n", len(cues), targetLang)
			translated, err := client.Translate(runCtx, cues, targetLang, printProgress)
			fmt.Println()

			var partial *translate.PartialError
			switch {
			case err == nil:
			case errors.As(err, &partial) && translated != nil:
				color.Yellow("Some batches failed and kept their source text: %v", err)
			default:
				return err
			}

			if output == "" {
				ext := filepath.Ext(subtitlePath)
				output = strings.TrimSuffix(subtitlePath, ext) + "_" + targetLang + ext
			}
			if err := os.WriteFile(output, []byte(subtitle.Render(translated)), 0o644); err != nil {
				return fmt.Errorf("write translated subtitle: %w", err)
			}

			color.Green("Wrote %d cues to %s", len(translated), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetLang, "target-lang", "en", "Target language code")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output SRT path (default: <input>_<lang>.srt)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Chat-completion endpoint base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the translation endpoint")
	cmd.Flags().StringVar(&model, "model", "", "Model name")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Cues per API request")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent API requests")

	return cmd
}
