package main

import (
	"github.com/spf13/cobra"

	"github.com/tboy1337/SubtranSlate/internal/pipeline"
)

func newWatchCommand() *cobra.Command {
	var (
		srcLang    string
		targetLang string
		mode       string
		cronExpr   string
		pattern    string
	)

	cmd := &cobra.Command{
		Use:   "watch <input-dir> <output-dir>",
		Short: "Translate new files in a directory on a cron schedule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("src-lang") {
				cfg.Translate.SrcLang = srcLang
			}
			if flags.Changed("target-lang") {
				cfg.Translate.TargetLang = targetLang
			}
			if flags.Changed("mode") {
				cfg.Translate.Mode = mode
			}
			if flags.Changed("cron") {
				cfg.Batch.CronExpr = cronExpr
			}
			if flags.Changed("pattern") {
				cfg.Files.Pattern = pattern
			}

			translator, store, err := newPipeline(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			watcher := pipeline.NewWatcher(translator, cfg.Batch.CronExpr)
			return watcher.Run(cmd.Context(), pipeline.WatchSpec{
				InputDir:    args[0],
				OutputDir:   args[1],
				SrcLang:     cfg.Translate.SrcLang,
				TargetLang:  cfg.Translate.TargetLang,
				Options:     pipelineOptions(cfg),
				Pattern:     cfg.Files.Pattern,
				Concurrency: cfg.Batch.Concurrency,
			})
		},
	}

	cmd.Flags().StringVarP(&srcLang, "src-lang", "s", "", "Source language code (default from config)")
	cmd.Flags().StringVarP(&targetLang, "target-lang", "t", "", "Target language code (default from config)")
	cmd.Flags().StringVar(&mode, "mode", "", "Translation mode, split or naive")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression controlling how often the directory is rescanned")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob pattern for matching subtitle files")

	return cmd
}
