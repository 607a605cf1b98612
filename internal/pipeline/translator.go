// Package pipeline drives subtitle translation end to end: parse,
// translate through the client, realign, write output. Progress is
// checkpointed so interrupted runs resume cheaply.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"

	"github.com/tboy1337/SubtranSlate/internal/align"
	"github.com/tboy1337/SubtranSlate/internal/checkpoint"
	"github.com/tboy1337/SubtranSlate/internal/history"
	"github.com/tboy1337/SubtranSlate/internal/subtitle"
	"github.com/tboy1337/SubtranSlate/internal/translate"
	"github.com/tboy1337/SubtranSlate/pkg/file"
	"github.com/tboy1337/SubtranSlate/pkg/log"
)

// Options controls how a file is translated.
//
// Mode is "split" (sentence-aware, realigned) or "naive" (entry by
// entry). Both keeps the original text under the translation. Space
// marks the target language as space-delimited for realignment.
type Options struct {
	Encoding string
	Mode     string
	Both     bool
	Space    bool
	Resume   bool
}

// Translator orchestrates per-file and per-directory translation.
type Translator struct {
	client  translate.Translator
	history *history.Store
	logger  *log.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	progressInterval  time.Duration
	rateLimitBackoffs []time.Duration
	batchPause        time.Duration

	segOnce   sync.Once
	segmenter align.Segmenter
}

// Option customizes a Translator.
type Option func(*Translator)

// WithHistory records run outcomes in the given store.
func WithHistory(store *history.Store) Option {
	return func(t *Translator) { t.history = store }
}

// WithLogger replaces the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(t *Translator) { t.logger = logger }
}

// WithSegmenter replaces the lazily loaded Chinese word segmenter.
func WithSegmenter(seg align.Segmenter) Option {
	return func(t *Translator) { t.segmenter = seg }
}

// New creates a translation pipeline on top of the given client.
func New(client translate.Translator, opts ...Option) *Translator {
	t := &Translator{
		client:            client,
		logger:            log.Default(),
		sleep:             contextSleep,
		now:               time.Now,
		progressInterval:  5 * time.Second,
		rateLimitBackoffs: []time.Duration{60 * time.Second, 120 * time.Second},
		batchPause:        2 * time.Minute,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// chineseSegmenter loads the embedded segmentation dictionary on first
// use. Loading is expensive, so it only happens for Chinese targets.
func (t *Translator) chineseSegmenter() align.Segmenter {
	t.segOnce.Do(func() {
		if t.segmenter != nil {
			return
		}
		seg, err := align.NewChineseSegmenter()
		if err != nil {
			t.logger.Warn("failed to load word segmentation dictionary: %v", err)
			return
		}
		t.segmenter = seg
	})
	return t.segmenter
}

// OutputName returns the conventional output file name for an input
// file and language pair.
func OutputName(inputFile, srcLang, targetLang string, both bool) string {
	stem := file.Stem(inputFile)
	suffix := "_only"
	if both {
		suffix = "_both"
	}
	return fmt.Sprintf("%s_%s_%s%s.srt", stem, srcLang, targetLang, suffix)
}

// TranslateFile translates one subtitle file, resuming from a
// checkpoint when allowed. A checkpoint already marked complete is
// trusted and skips all work.
func (t *Translator) TranslateFile(ctx context.Context, inputFile, outputFile, srcLang, targetLang string, opts Options) error {
	start := t.now()
	t.logger.Info("translating %s from %s to %s", inputFile, srcLang, targetLang)

	if dir := filepath.Dir(outputFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	store := checkpoint.NewStore(outputFile)
	var cp *checkpoint.Checkpoint
	if opts.Resume {
		if loaded, ok := store.Load(); ok {
			t.logger.Info("found checkpoint at %.0f%% completion", loaded.Progress)
			if loaded.Status == checkpoint.StatusComplete {
				t.logger.Info("translation already completed according to checkpoint")
				return nil
			}
			cp = loaded
		}
	}

	var entries []subtitle.Entry
	var freshParse bool
	if cp != nil && len(cp.ParsedSubtitles) > 0 {
		decoded, err := checkpoint.DecodeEntries(cp.ParsedSubtitles)
		if err != nil {
			t.logger.Warn("failed to load subtitles from checkpoint: %v, will reparse file", err)
		} else {
			entries = decoded
			t.logger.Info("loaded %d subtitle entries from checkpoint", len(entries))
		}
	}
	if entries == nil {
		parsed, err := subtitle.ReadFile(inputFile, opts.Encoding)
		if err != nil {
			t.record(ctx, inputFile, outputFile, srcLang, targetLang, opts.Mode, err, 0, t.now().Sub(start))
			return err
		}
		entries = parsed
		freshParse = true
		t.logger.Info("parsed %d subtitle entries", len(entries))
	}

	if srcLang == "" || srcLang == "auto" {
		tag := subtitle.DetectLanguage(entries)
		if tag == language.Und {
			err := fmt.Errorf("could not detect source language of %s", inputFile)
			t.record(ctx, inputFile, outputFile, srcLang, targetLang, opts.Mode, err, 0, t.now().Sub(start))
			return err
		}
		srcLang = tag.String()
		t.logger.Info("detected source language %s", srcLang)
	}

	if freshParse && opts.Resume {
		store.Save(&checkpoint.Checkpoint{
			Status:          checkpoint.StatusParsingComplete,
			InputFile:       inputFile,
			OutputFile:      outputFile,
			SrcLang:         srcLang,
			TargetLang:      targetLang,
			Mode:            opts.Mode,
			Both:            opts.Both,
			ParsedSubtitles: checkpoint.EncodeEntries(entries),
		})
	}

	chkStore := store
	if !opts.Resume {
		chkStore = nil
	}

	translated, chars, err := t.translateEntries(ctx, entries, srcLang, targetLang, opts, chkStore, cp)
	if err != nil {
		t.record(ctx, inputFile, outputFile, srcLang, targetLang, opts.Mode, err, chars, t.now().Sub(start))
		return err
	}

	if chkStore != nil {
		chkStore.Save(&checkpoint.Checkpoint{
			Status:   checkpoint.StatusTranslationComplete,
			Mode:     opts.Mode,
			Progress: 100,
		})
	}

	if err := subtitle.WriteFile(outputFile, translated); err != nil {
		t.record(ctx, inputFile, outputFile, srcLang, targetLang, opts.Mode, err, chars, t.now().Sub(start))
		return err
	}

	if chkStore != nil {
		chkStore.Save(&checkpoint.Checkpoint{
			Status:     checkpoint.StatusComplete,
			InputFile:  inputFile,
			OutputFile: outputFile,
			Progress:   100,
		})
	}

	elapsed := t.now().Sub(start)
	t.logger.Info("translation completed in %.2f seconds", elapsed.Seconds())
	t.record(ctx, inputFile, outputFile, srcLang, targetLang, opts.Mode, nil, chars, elapsed)
	return nil
}

// translateEntries runs the mode-specific pipeline and returns the
// translated entries plus the number of source characters sent.
func (t *Translator) translateEntries(ctx context.Context, entries []subtitle.Entry, srcLang, targetLang string, opts Options, store *checkpoint.Store, cp *checkpoint.Checkpoint) ([]subtitle.Entry, int, error) {
	var lines []string
	var assemble func(translatedText string) ([]subtitle.Entry, error)

	if opts.Mode == "naive" {
		t.logger.Info("using naive translation mode")
		lines = make([]string, len(entries))
		for i, e := range entries {
			lines[i] = strings.ReplaceAll(e.Content, "\n", "")
		}
		assemble = func(translatedText string) ([]subtitle.Entry, error) {
			list := strings.Split(translatedText, "\n")
			list = align.PadOrTruncate(list, len(entries), t.logger)
			return align.ApplyTranslations(entries, list, opts.Both)
		}
	} else {
		t.logger.Info("using split translation mode")
		text, dialogIdx := align.Flatten(entries)
		sentences, senIdx := align.NewSplitter().SplitAndRecord(text)
		t.logger.Info("split into %d sentences", len(sentences))

		lines = sentences
		assemble = func(translatedText string) ([]subtitle.Entry, error) {
			list := strings.Split(translatedText, "\n")
			list = align.PadOrTruncate(list, len(sentences), t.logger)

			mass := align.ComputeMassList(dialogIdx, senIdx)
			chinese := subtitle.IsChinese(targetLang)
			var seg align.Segmenter
			if chinese {
				seg = t.chineseSegmenter()
			}
			space := opts.Space || subtitle.IsSpaceDelimited(targetLang)
			realigner := align.NewRealigner(space, chinese, seg, t.logger)
			dialogs := realigner.Realign(list, mass)
			return align.ApplyTranslations(entries, dialogs, opts.Both)
		}
	}

	chars := 0
	for _, l := range lines {
		chars += utf8.RuneCountInString(l)
	}

	var translatedText string
	if cp != nil && cp.PartialTranslation != "" {
		// A partial blob only ever holds complete batches, so it is
		// usable as-is without re-translating.
		t.logger.Info("resuming translation from checkpoint at %.0f%% completion", cp.Progress)
		translatedText = cp.PartialTranslation
	} else {
		out, err := t.translateWithRetry(ctx, lines, srcLang, targetLang, opts.Mode, store)
		if err != nil {
			return nil, chars, err
		}
		translatedText = out
	}

	result, err := assemble(translatedText)
	if err != nil {
		return nil, chars, err
	}
	return result, chars, nil
}

// translateWithRetry calls the client, writing periodic translating
// checkpoints and absorbing rate limits with escalating pauses before
// giving up.
func (t *Translator) translateWithRetry(ctx context.Context, lines []string, srcLang, targetLang, mode string, store *checkpoint.Store) (string, error) {
	lastReport := t.now()
	progress := func(done, total int, partial string) {
		pct := 0.0
		if total > 0 {
			pct = float64(done) / float64(total) * 100
		}
		now := t.now()
		if now.Sub(lastReport) < t.progressInterval {
			return
		}
		lastReport = now
		t.logger.Info("translation progress: %.1f%% (%d/%d)", pct, done, total)
		if store != nil {
			store.Save(&checkpoint.Checkpoint{
				Status:             checkpoint.StatusTranslating,
				Progress:           pct,
				CurrentIndex:       done,
				TotalItems:         total,
				Mode:               mode,
				PartialTranslation: partial,
			})
		}
	}

	maxAttempts := len(t.rateLimitBackoffs) + 1
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := t.client.TranslateLines(ctx, lines, srcLang, targetLang, progress)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !translate.IsRateLimited(err) || attempt == maxAttempts-1 {
			return "", err
		}

		backoff := t.rateLimitBackoffs[attempt]
		t.logger.Warn("rate limit detected, backing off for %s before retry %d/%d", backoff, attempt+1, maxAttempts)
		if serr := t.sleep(ctx, backoff); serr != nil {
			return "", serr
		}
	}
	return "", lastErr
}

func (t *Translator) record(ctx context.Context, inputFile, outputFile, srcLang, targetLang, mode string, runErr error, chars int, elapsed time.Duration) {
	if t.history == nil {
		return
	}

	rec := history.Record{
		InputFile:  inputFile,
		OutputFile: outputFile,
		SrcLang:    srcLang,
		TargetLang: targetLang,
		Mode:       mode,
		Status:     "success",
		Chars:      chars,
		Duration:   elapsed,
	}
	if runErr != nil {
		rec.Status = "error"
		if translate.IsRateLimited(runErr) {
			rec.Status = "rate_limited"
		}
		rec.Message = runErr.Error()
	}

	if _, err := t.history.Add(ctx, rec); err != nil {
		t.logger.Warn("failed to record translation history: %v", err)
	}
}
