package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)
	opts := newTranscribeFlags()

	rootCmd := &cobra.Command{
		Use:           "subkit [video_path]",
		Short:         "Subtitle toolkit: transcribe, burn and translate",
		Long: `subkit turns media files into SRT subtitles with a speech
recognition engine, burns subtitles into video with ffmpeg, and
translates subtitle files through an OpenAI-compatible API.

Running subkit with a media path is shorthand for "subkit transcribe".`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runTranscribe(cmd.Context(), cfg, args[0], opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	opts.register(rootCmd.Flags())

	rootCmd.AddCommand(newTranscribeCommand(ctx))
	rootCmd.AddCommand(newBurnCommand(ctx))
	rootCmd.AddCommand(newTranslateCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))

	return rootCmd
}
