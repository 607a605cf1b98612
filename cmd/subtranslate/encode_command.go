package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tboy1337/SubtranSlate/internal/subtitle"
	"github.com/tboy1337/SubtranSlate/pkg/file"
	"github.com/tboy1337/SubtranSlate/pkg/log"
)

// defaultTargetEncodings is what encode produces when nothing more
// specific is requested. Thai variants are included because players on
// that market still commonly expect them.
var defaultTargetEncodings = []string{"utf-8", "utf-8-sig", "tis-620", "cp874"}

func newEncodeCommand() *cobra.Command {
	var (
		listEncodings bool
		outputDir     string
		fromEncoding  string
		toEncodings   string
		all           bool
		recommended   bool
		langCode      string
		batch         bool
		pattern       string
	)

	cmd := &cobra.Command{
		Use:   "encode [input]",
		Short: "Convert subtitle files between character encodings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if listEncodings {
				for _, name := range subtitle.CommonEncodings {
					cmd.Println(name)
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("input file or directory is required unless --list-encodings is given")
			}
			input := args[0]
			targets := targetEncodings(toEncodings, all, recommended, langCode)

			if batch {
				if pattern == "" {
					pattern = "*.srt"
				}
				return encodeBatch(cmd, input, outputDir, fromEncoding, pattern, targets)
			}
			return encodeFile(cmd, input, outputDir, fromEncoding, targets)
		},
	}

	cmd.Flags().BoolVar(&listEncodings, "list-encodings", false, "List supported encodings and exit")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for converted files (default alongside the input)")
	cmd.Flags().StringVarP(&fromEncoding, "from-encoding", "f", "", "Source encoding (default detected)")
	cmd.Flags().StringVarP(&toEncodings, "to-encoding", "t", "", "Comma separated target encodings")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Convert to every supported encoding")
	cmd.Flags().BoolVarP(&recommended, "recommended", "r", false, "Convert to the encodings recommended for --language")
	cmd.Flags().StringVarP(&langCode, "language", "l", "en", "Language code used with --recommended")
	cmd.Flags().BoolVar(&batch, "batch", false, "Treat input as a directory")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob pattern for batch mode")

	return cmd
}

// targetEncodings resolves the requested target encodings, in priority
// order: explicit list, recommended set, the full set, then defaults.
func targetEncodings(toEncodings string, all, recommended bool, langCode string) []string {
	if toEncodings != "" {
		parts := strings.Split(toEncodings, ",")
		targets := make([]string, 0, len(parts))
		for _, p := range parts {
			if name := strings.TrimSpace(p); name != "" {
				targets = append(targets, name)
			}
		}
		if len(targets) > 0 {
			return targets
		}
	}
	if recommended {
		return subtitle.RecommendedEncodings(langCode)
	}
	if all {
		return append([]string(nil), subtitle.CommonEncodings...)
	}
	return append([]string(nil), defaultTargetEncodings...)
}

// encodedOutputName names a converted file <stem>-<encoding><ext>,
// replacing any encoding suffix the stem already carries.
func encodedOutputName(inputPath, encoding string) string {
	ext := filepath.Ext(inputPath)
	stem := file.Stem(inputPath)
	for _, known := range subtitle.CommonEncodings {
		if strings.HasSuffix(strings.ToLower(stem), "-"+known) {
			stem = stem[:len(stem)-len(known)-1]
			break
		}
	}
	return stem + "-" + encoding + ext
}

func encodeFile(cmd *cobra.Command, inputPath, outputDir, fromEncoding string, targets []string) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("stat %s: %w", inputPath, err)
	}
	if fromEncoding == "" {
		detected, err := subtitle.DetectEncoding(inputPath, nil)
		if err != nil {
			return err
		}
		fromEncoding = detected
		log.Info("detected %s encoding for %s", fromEncoding, inputPath)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(inputPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var failed []string
	for _, target := range targets {
		outputPath := filepath.Join(outputDir, encodedOutputName(inputPath, target))
		if err := subtitle.ConvertFile(inputPath, outputPath, fromEncoding, target); err != nil {
			log.Warn("conversion to %s failed: %v", target, err)
			failed = append(failed, target)
			continue
		}
		cmd.Printf("wrote %s\n", outputPath)
	}
	if len(failed) > 0 {
		return fmt.Errorf("conversion failed for encodings: %s", strings.Join(failed, ", "))
	}
	return nil
}

func encodeBatch(cmd *cobra.Command, inputDir, outputDir, fromEncoding, pattern string, targets []string) error {
	info, err := os.Stat(inputDir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", inputDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", inputDir)
	}
	matches, err := file.FindMatching(inputDir, pattern)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no files matching %q in %s", pattern, inputDir)
	}
	if outputDir == "" {
		outputDir = inputDir
	}

	var converted, failures int
	for _, path := range matches {
		if err := encodeFile(cmd, path, outputDir, fromEncoding, targets); err != nil {
			log.Error("encode %s: %v", path, err)
			failures++
			continue
		}
		converted++
	}
	cmd.Printf("Batch finished: %d converted, %d failed\n", converted, failures)
	if failures > 0 {
		return fmt.Errorf("%d of %d files failed to convert", failures, len(matches))
	}
	return nil
}
