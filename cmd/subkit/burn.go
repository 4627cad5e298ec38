package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/subtitle-kit/subkit/internal/ffmpeg"
	"github.com/subtitle-kit/subkit/internal/logging"
)

func newBurnCommand(ctx *commandContext) *cobra.Command {
	var output string
	var style ffmpeg.BurnStyle

	cmd := &cobra.Command{
		Use:   "burn <video_path> <subtitle_path>",
		Short: "Burn an SRT subtitle into a video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			videoPath, subtitlePath := args[0], args[1]
			for _, p := range args {
				if _, err := os.Stat(p); err != nil {
					if os.IsNotExist(err) {
						return fmt.Errorf("input file %q not found", p)
					}
					return fmt.Errorf("stat input: %w", err)
				}
			}

			if output == "" {
				ext := filepath.Ext(videoPath)
				output = strings.TrimSuffix(videoPath, ext) + "_sub" + ext
			}

			fmt.Printf("Burning %s into %s...\n", subtitlePath, videoPath)
			if err := ffmpeg.Burn(runCtx, videoPath, subtitlePath, output, style, func(line string) {
				logging.Debugf("[ffmpeg] %s", line)
			}); err != nil {
				return err
			}

			color.Green("Wrote %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output video path (default: <video>_sub.<ext>)")
	cmd.Flags().StringVar(&style.FontName, "font-name", "", "Subtitle font name")
	cmd.Flags().IntVar(&style.FontSize, "font-size", 0, "Subtitle font size")
	cmd.Flags().StringVar(&style.Colour, "colour", "", "Primary colour in ASS form, e.g. &HFFFFFF&")
	cmd.Flags().IntVar(&style.Outline, "outline", 0, "Outline width")
	cmd.Flags().StringVar(&style.ForceStyle, "force-style", "", "Raw force_style string, overrides the other style flags")

	return cmd
}
