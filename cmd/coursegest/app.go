package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/coursegest/internal/chunker"
	"github.com/dgallion1/coursegest/internal/config"
	"github.com/dgallion1/coursegest/internal/coursedoc"
	"github.com/dgallion1/coursegest/internal/parser"
	"github.com/dgallion1/coursegest/internal/pipeline"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	parser *coursedoc.Parser
}

func newApp(g *globalFlags) (*app, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.SlogLevel()
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	strategy, err := chunker.SplitterByName(cfg.SentenceSplitter)
	if err != nil {
		return nil, err
	}
	splitter, err := chunker.New(cfg.ChunkerConfig(), chunker.WithSentenceSplitter(strategy))
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		log:    log,
		parser: coursedoc.NewParser(splitter),
	}, nil
}

func (a *app) readerOptions() parser.Options {
	return parser.Options{
		PDFFallbackPdftotext: a.cfg.PDFFallbackPdftotext,
		MaxBytes:             a.cfg.MaxDocumentBytes,
	}
}

func (a *app) orchestrator(sink pipeline.Sink) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(a.parser, sink, a.log, pipeline.Options{
		WorkerCount: a.cfg.WorkerCount,
		Reader:      a.readerOptions(),
		JobTTL:      a.cfg.JobTTL,
	})
}
