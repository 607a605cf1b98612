package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tboy1337/SubtranSlate/internal/checkpoint"
	"github.com/tboy1337/SubtranSlate/internal/translate"
	"github.com/tboy1337/SubtranSlate/pkg/file"
)

// TranslateDirectory translates every file in inputDir matching
// pattern, writing results to outputDir. Outcomes are recorded in the
// directory's batch state so a later run skips files that already
// succeeded. Per-file failures do not abort the batch; only
// cancellation does.
func (t *Translator) TranslateDirectory(ctx context.Context, inputDir, outputDir, srcLang, targetLang string, opts Options, pattern string, concurrency int) (checkpoint.BatchState, error) {
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("input directory does not exist: %s", inputDir)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if pattern == "" {
		pattern = "*.srt"
	}
	if concurrency < 1 {
		concurrency = 1
	}

	matches, err := file.FindMatching(inputDir, pattern)
	if err != nil {
		return nil, err
	}
	t.logger.Info("found %d subtitle files to translate", len(matches))

	var batch *checkpoint.BatchStore
	if opts.Resume {
		batch = checkpoint.NewBatchStore(outputDir, srcLang, targetLang)
	}

	results := make(checkpoint.BatchState)
	var mu sync.Mutex
	record := func(input string, res checkpoint.FileResult) {
		mu.Lock()
		results[input] = res
		mu.Unlock()
		if batch != nil {
			batch.Record(input, res)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, input := range matches {
		if batch != nil {
			if prev, ok := batch.Get(input); ok && prev.Status == checkpoint.FileSuccess {
				t.logger.Info("skipping %s (already completed according to batch state)", input)
				mu.Lock()
				results[input] = prev
				mu.Unlock()
				continue
			}
		}

		input := input
		g.Go(func() error {
			outputPath := filepath.Join(outputDir, OutputName(input, srcLang, targetLang, opts.Both))

			err := t.TranslateFile(gctx, input, outputPath, srcLang, targetLang, opts)
			switch {
			case err == nil:
				record(input, checkpoint.FileResult{Status: checkpoint.FileSuccess, Output: outputPath})
				t.logger.Info("successfully translated %s to %s", input, outputPath)
			case translate.IsRateLimited(err):
				record(input, checkpoint.FileResult{
					Status:  checkpoint.FileRateLimited,
					Output:  outputPath,
					Message: err.Error(),
				})
				t.logger.Error("rate limited when translating %s: %v", input, err)
				t.logger.Info("pausing for %s before continuing", t.batchPause)
				// the pause is worker-scoped so other workers keep going
				if serr := t.sleep(gctx, t.batchPause); serr != nil {
					return serr
				}
			default:
				record(input, checkpoint.FileResult{Status: checkpoint.FileError, Message: err.Error()})
				t.logger.Error("failed to translate %s: %v", input, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	successes, rateLimited := 0, 0
	for _, res := range results {
		switch res.Status {
		case checkpoint.FileSuccess:
			successes++
		case checkpoint.FileRateLimited:
			rateLimited++
		}
	}
	t.logger.Info("translation complete: %d/%d files successful, %d rate limited",
		successes, len(matches), rateLimited)

	return results, nil
}
