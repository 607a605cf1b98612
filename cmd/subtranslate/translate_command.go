package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tboy1337/SubtranSlate/internal/checkpoint"
	"github.com/tboy1337/SubtranSlate/internal/config"
	"github.com/tboy1337/SubtranSlate/internal/pipeline"
)

func newTranslateCommand() *cobra.Command {
	var (
		srcLang         string
		targetLang      string
		mode            string
		onlyTranslation bool
		space           bool
		encoding        string
		batch           bool
		pattern         string
		apiKey          string
		service         string
		noResume        bool
	)

	cmd := &cobra.Command{
		Use:   "translate <input> [output]",
		Short: "Translate an SRT file, or a directory of them with --batch",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfgOpts []config.Option
			if apiKey != "" {
				cfgOpts = append(cfgOpts, config.WithAPIKey(apiKey))
			}
			cfg, err := loadConfig(cfgOpts...)
			if err != nil {
				return err
			}
			applyTranslateFlags(cmd, cfg, srcLang, targetLang, mode, onlyTranslation, space, encoding, pattern, service, noResume)
			if m := cfg.Translate.Mode; m != "split" && m != "naive" {
				return fmt.Errorf("invalid translation mode %q, expected split or naive", m)
			}

			translator, store, err := newPipeline(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			opts := pipelineOptions(cfg)
			input := args[0]

			if batch {
				outputDir := input
				if len(args) == 2 {
					outputDir = args[1]
				}
				state, err := translator.TranslateDirectory(cmd.Context(), input, outputDir,
					cfg.Translate.SrcLang, cfg.Translate.TargetLang, opts,
					cfg.Files.Pattern, cfg.Batch.Concurrency)
				if err != nil {
					return err
				}
				printBatchSummary(cmd, state)
				return nil
			}

			output := pipeline.OutputName(input, cfg.Translate.SrcLang, cfg.Translate.TargetLang, cfg.Translate.Both)
			output = filepath.Join(filepath.Dir(input), output)
			if len(args) == 2 {
				output = args[1]
			}
			if err := translator.TranslateFile(cmd.Context(), input, output,
				cfg.Translate.SrcLang, cfg.Translate.TargetLang, opts); err != nil {
				return err
			}
			cmd.Printf("Translated %s -> %s\n", input, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&srcLang, "src-lang", "s", "", "Source language code, or auto to detect (default from config)")
	cmd.Flags().StringVarP(&targetLang, "target-lang", "t", "", "Target language code (default from config)")
	cmd.Flags().StringVar(&mode, "mode", "", "Translation mode, split or naive")
	cmd.Flags().BoolVar(&onlyTranslation, "only-translation", false, "Write only the translated text, dropping the original lines")
	cmd.Flags().BoolVar(&space, "space", false, "Target language delimits words with spaces")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Input file encoding")
	cmd.Flags().BoolVar(&batch, "batch", false, "Treat input as a directory and translate every matching file")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob pattern for batch mode")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Google Cloud Translation API key")
	cmd.Flags().StringVar(&service, "service", "", "Translation service")
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "Ignore checkpoints and start from scratch")

	return cmd
}

// applyTranslateFlags overlays set flags onto the environment-derived
// configuration. Unset flags keep the configured values.
func applyTranslateFlags(cmd *cobra.Command, cfg *config.Config, srcLang, targetLang, mode string, onlyTranslation, space bool, encoding, pattern, service string, noResume bool) {
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
	if flags.Changed("only-translation") {
		cfg.Translate.Both = !onlyTranslation
	}
	if flags.Changed("space") {
		cfg.Translate.Space = space
	}
	if flags.Changed("encoding") {
		cfg.Files.Encoding = encoding
	}
	if flags.Changed("pattern") {
		cfg.Files.Pattern = pattern
	}
	if flags.Changed("service") {
		cfg.Translate.Service = service
	}
	if flags.Changed("no-resume") {
		cfg.Translate.Resume = !noResume
	}
}

func printBatchSummary(cmd *cobra.Command, state checkpoint.BatchState) {
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	var done, failed, throttled int
	for _, name := range names {
		result := state[name]
		switch result.Status {
		case checkpoint.FileSuccess:
			done++
		case checkpoint.FileRateLimited:
			throttled++
			cmd.Printf("rate limited: %s\n", name)
		default:
			failed++
			cmd.Printf("failed: %s (%s)\n", name, result.Message)
		}
	}
	cmd.Println(batchSummaryLine(done, failed, throttled))
}

func batchSummaryLine(done, failed, throttled int) string {
	return fmt.Sprintf("Batch finished: %d translated, %d failed, %d rate limited", done, failed, throttled)
}
