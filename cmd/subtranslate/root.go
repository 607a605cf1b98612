package main

import (
	"github.com/spf13/cobra"

	"github.com/tboy1337/SubtranSlate/pkg/log"
)

// verboseFlag takes precedence over the configured log level.
var verboseFlag bool

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "subtranslate",
		Short:         "Translate and re-encode SRT subtitle files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verboseFlag {
				log.Default().SetLevel(log.LevelDebug)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newTranslateCommand())
	rootCmd.AddCommand(newEncodeCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}
