package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/tboy1337/SubtranSlate/pkg/log"
)

// WatchSpec describes the batch run repeated by a Watcher.
type WatchSpec struct {
	InputDir    string
	OutputDir   string
	SrcLang     string
	TargetLang  string
	Options     Options
	Pattern     string
	Concurrency int
}

// Watcher re-runs a directory batch on a cron schedule, picking up
// subtitle files dropped into the input directory between runs.
type Watcher struct {
	translator *Translator
	cronExpr   string
	logger     *log.Logger
	group      singleflight.Group
}

// NewWatcher creates a watcher driving the given pipeline.
func NewWatcher(translator *Translator, cronExpr string) *Watcher {
	return &Watcher{
		translator: translator,
		cronExpr:   cronExpr,
		logger:     log.Default(),
	}
}

// Run executes one batch immediately, then repeats on the schedule
// until the context is cancelled. A tick firing while a run is still
// in flight joins it instead of starting a second one.
func (w *Watcher) Run(ctx context.Context, spec WatchSpec) error {
	schedule, err := cron.ParseStandard(w.cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", w.cronExpr, err)
	}

	run := func() {
		_, _, _ = w.group.Do("batch", func() (any, error) {
			if _, err := w.translator.TranslateDirectory(
				ctx,
				spec.InputDir, spec.OutputDir,
				spec.SrcLang, spec.TargetLang,
				spec.Options, spec.Pattern, spec.Concurrency,
			); err != nil {
				w.logger.Error("scheduled batch run failed: %v", err)
			}
			return nil, nil
		})
	}

	run()

	c := cron.New()
	if _, err := c.AddFunc(w.cronExpr, run); err != nil {
		return fmt.Errorf("schedule batch run: %w", err)
	}
	c.Start()
	defer c.Stop()

	w.logger.Info("watching %s, next run at %s", spec.InputDir, schedule.Next(time.Now()).Format(time.RFC3339))
	<-ctx.Done()
	return ctx.Err()
}
