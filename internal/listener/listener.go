package listener

import (
	"context"
	"strings"
	"time"

	"woldo/internal/config"
	"woldo/internal/connectors"
	"woldo/internal/logger"
	"woldo/internal/pipeline"
	"woldo/internal/storage"
)

// Service polls the supplier mailbox and turns invoice replies into
// marketplace upload files.
type Service struct {
	db  *storage.DB
	cfg config.Config

	newConnector func(provider string, cfg config.Config) (connectors.MailConnector, error)
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg, newConnector: connectors.New}
}

type CycleResult struct {
	Fetched   int
	Stored    int
	Processed int
	Matched   int
}

// Run repeats fetch and process cycles until ctx is cancelled. A failed
// cycle is logged and retried on the next tick.
func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.MailListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	for {
		if _, err := s.RunCycle(ctx); err != nil {
			logger.Logger.Errorw("listener cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	if err := ctx.Err(); err != nil {
		return CycleResult{}, err
	}

	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.newConnector(provider, s.cfg)
	if err != nil {
		return CycleResult{}, err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, s.cfg.SupplierFrom, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return CycleResult{}, err
	}

	processor := pipeline.NewProcessingService(s.db, s.cfg)
	processed, matched, err := processor.ProcessPending(s.cfg.MailListenerProcessBatch, provider)
	res := CycleResult{Fetched: fetchResult.Fetched, Stored: fetchResult.Stored, Processed: processed, Matched: matched}
	if err != nil {
		return res, err
	}

	logger.Logger.Infow("listener cycle done", "provider", provider, "fetched", res.Fetched, "stored", res.Stored, "processed", res.Processed, "matched", res.Matched)
	return res, nil
}
