package main

import (
	"fmt"

	"github.com/tboy1337/SubtranSlate/internal/config"
	"github.com/tboy1337/SubtranSlate/internal/history"
	"github.com/tboy1337/SubtranSlate/internal/pipeline"
	"github.com/tboy1337/SubtranSlate/internal/translate"
	"github.com/tboy1337/SubtranSlate/pkg/log"
)

// loadConfig builds the effective configuration from the environment
// and applies the command-line log level.
func loadConfig(opts ...config.Option) (*config.Config, error) {
	cfg, err := config.NewFromEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg.System.LogLevel != "" && !verboseFlag {
		log.Default().SetLevel(log.ParseLevel(cfg.System.LogLevel))
	}
	return cfg, nil
}

// newPipeline wires the translation client and history store into a
// pipeline. The caller must close the returned store.
func newPipeline(cfg *config.Config) (*pipeline.Translator, *history.Store, error) {
	if cfg.Translate.Service != "google" {
		return nil, nil, fmt.Errorf("unsupported translation service %q", cfg.Translate.Service)
	}

	var clientOpts []translate.Option
	if cfg.Translate.APIKey != "" {
		clientOpts = append(clientOpts, translate.WithAPIKey(cfg.Translate.APIKey))
	}
	client := translate.NewGoogle(clientOpts...)

	store, err := history.NewStore(cfg.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("open history store: %w", err)
	}

	return pipeline.New(client, pipeline.WithHistory(store)), store, nil
}

// pipelineOptions maps the translation configuration to per-run
// pipeline options.
func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		Encoding: cfg.Files.Encoding,
		Mode:     cfg.Translate.Mode,
		Both:     cfg.Translate.Both,
		Space:    cfg.Translate.Space,
		Resume:   cfg.Translate.Resume,
	}
}
