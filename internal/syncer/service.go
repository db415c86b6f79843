package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/config"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/connectors"
	gmailconnector "github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/connectors/gmail"
	imapconnector "github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/connectors/imap"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/extract"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/pipeline"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/storage"
)

// Service runs ingestion cycles on a fixed interval. Each cycle syncs both
// channels; within a cycle the channels run concurrently because they share
// no state beyond the database.
type Service struct {
	db         *storage.DB
	cfg        config.Config
	controller *Controller
	log        *slog.Logger
}

func NewService(db *storage.DB, cfg config.Config, controller *Controller, log *slog.Logger) *Service {
	return &Service{db: db, cfg: cfg, controller: controller, log: log}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		s.runCycle(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.SyncIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) {
	mailSvc, err := MakeConnector(s.cfg)
	if err != nil {
		s.log.Error("cannot build mail connector", "provider", s.cfg.MailProvider, "err", err)
		return
	}

	p := pipeline.New(s.db, mailSvc, MakeExtractor(s.cfg), s.controller, s.cfg, s.log)

	var wg sync.WaitGroup
	for _, channel := range []internal.SyncChannel{internal.ChannelInquiry, internal.ChannelPurchaseOrder} {
		if !s.controller.Start(channel) {
			s.log.Warn("channel still active, skipping", "channel", channel)
			continue
		}
		wg.Add(1)
		go func(channel internal.SyncChannel) {
			defer wg.Done()
			s.runChannel(ctx, p, channel)
		}(channel)
	}
	wg.Wait()
}

func (s *Service) runChannel(ctx context.Context, p *pipeline.Pipeline, channel internal.SyncChannel) {
	result, err := p.Run(ctx, channel)
	switch {
	case errors.Is(err, pipeline.ErrNoMessages):
		s.log.Info("nothing found", "channel", channel)
	case err != nil:
		s.log.Error("sync cycle failed", "channel", channel, "err", err)
	default:
		s.log.Info("sync cycle done", "channel", channel, "total", result.Total, "success", result.Success, "failed", result.Failed)
	}
}

// MakeConnector builds the configured mail connector.
func MakeConnector(cfg config.Config) (connectors.MailService, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.MailProvider)) {
	case "gmail", "":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", cfg.MailProvider)
	}
}

// MakeExtractor prefers the remote extraction service and falls back to the
// built-in PDF parser when none is configured.
func MakeExtractor(cfg config.Config) extract.Extractor {
	if strings.TrimSpace(cfg.ExtractorBaseURL) != "" && strings.ToLower(cfg.ExtractorProvider) != "local" {
		return extract.NewRemoteExtractor(cfg)
	}
	return extract.NewLocalExtractor()
}
