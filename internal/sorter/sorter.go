package sorter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turbosort/turbosort/internal/blob"
	"github.com/turbosort/turbosort/internal/config"
	"github.com/turbosort/turbosort/internal/source"
	"github.com/turbosort/turbosort/internal/utils"
)

type trigger interface {
	Run(ctx context.Context) error
}

// Sorter wires the source provider, resolver, ledger and engine together
// and owns the trigger loop for the configured source kind.
type Sorter struct {
	cfg     *config.Config
	engine  *Engine
	ledger  *Ledger
	trigger trigger
}

func New(cfg *config.Config) (*Sorter, error) {
	ledger, err := OpenLedger(cfg.HistoryPath)
	if err != nil {
		return nil, err
	}

	resolver := NewResolver(cfg)

	var provider source.Provider
	var engine *Engine
	var trig trigger

	switch cfg.SourceKind {
	case config.SourceLocal:
		local, err := source.NewLocal(cfg.SourceDir)
		if err != nil {
			return nil, err
		}
		provider = local
		engine = NewEngine(provider, resolver, ledger, cfg.ForceRecopy)
		trig = NewLocalTrigger(local, engine, cfg)

	case config.SourceS3:
		client, err := blob.NewClient(&blob.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		remote := source.NewS3(client, cfg.S3.Prefix)
		provider = remote
		engine = NewEngine(provider, resolver, ledger, cfg.ForceRecopy)
		trig = NewRemoteTrigger(remote, engine, cfg)

	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.SourceKind)
	}

	return &Sorter{
		cfg:     cfg,
		engine:  engine,
		ledger:  ledger,
		trigger: trig,
	}, nil
}

func (s *Sorter) Ledger() *Ledger {
	return s.ledger
}

// Run performs the initial full scan and then watches or polls until ctx is
// cancelled.
func (s *Sorter) Run(ctx context.Context) error {
	if err := s.ledger.Acquire(); err != nil {
		return err
	}
	defer s.ledger.Close()

	if err := utils.EnsureDir(s.cfg.DestDir); err != nil {
		return fmt.Errorf("create destination root: %w", err)
	}

	s.logStartup()

	if err := s.engine.ScanAll(ctx); err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	if s.engine.Stats().FilesCopied() > 0 {
		s.engine.Stats().LogSummary()
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return s.trigger.Run(egCtx)
	})

	eg.Go(func() error {
		return s.emitStats(egCtx)
	})

	err := eg.Wait()
	if s.engine.Stats().FilesCopied() > 0 {
		slog.Info("final statistics")
		s.engine.Stats().LogSummary()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// RunOnce performs a single full scan and returns.
func (s *Sorter) RunOnce(ctx context.Context) error {
	if err := s.ledger.Acquire(); err != nil {
		return err
	}
	defer s.ledger.Close()

	if err := utils.EnsureDir(s.cfg.DestDir); err != nil {
		return fmt.Errorf("create destination root: %w", err)
	}

	s.logStartup()

	if err := s.engine.ScanAll(ctx); err != nil {
		return err
	}
	s.engine.Stats().LogSummary()
	return nil
}

func (s *Sorter) emitStats(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.engine.Stats().FilesCopied() > 0 {
				s.engine.Stats().LogSummary()
			}
		}
	}
}

func (s *Sorter) logStartup() {
	if s.cfg.SourceKind == config.SourceS3 {
		slog.Info("watching bucket", "bucket", s.cfg.S3.Bucket, "prefix", s.cfg.S3.Prefix)
	} else {
		slog.Info("watching directory", "dir", s.cfg.SourceDir)
	}
	slog.Info("files will be sorted", "dest", s.cfg.DestDir)
	if s.cfg.YearPrefix {
		slog.Info("year prefix feature is enabled")
	}
	if s.cfg.ForceRecopy {
		slog.Info("force recopy is enabled, identity checks are bypassed")
	}
}
