package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/catalog"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/config"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/connectors"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/extract"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/quote"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/storage"
)

// ErrNoMessages signals an empty mailbox: the batch completed but there was
// nothing to do. Callers surface it as "nothing found", not as a failure.
var ErrNoMessages = errors.New("no messages found")

// ProgressSink receives the pipeline's ordered progress reports. The sync
// controller is the production implementation.
type ProgressSink interface {
	ReportProgress(channel internal.SyncChannel, current, total, success, failed int)
	Complete(channel internal.SyncChannel, total, success, failed int)
	Error(channel internal.SyncChannel)
}

var inquiryExtensions = []string{".pdf", ".doc", ".docx"}
var orderExtensions = []string{".pdf"}

// Pipeline executes one end-to-end ingestion batch for a channel. Messages
// are processed strictly sequentially with a fixed inter-item delay; that is
// deliberate backpressure against the extractor's rate limits.
type Pipeline struct {
	db        *storage.DB
	mail      connectors.MailService
	extractor extract.Extractor
	sink      ProgressSink
	log       *slog.Logger

	accountEmail string
	fetchMax     int

	listTimeout    time.Duration
	interItemDelay time.Duration
	cooldown       time.Duration

	assembler *quote.Assembler
	numbers   *quote.NumberGenerator

	okThreshold  float64
	gapThreshold float64
}

func New(db *storage.DB, mailSvc connectors.MailService, extractor extract.Extractor, sink ProgressSink, cfg config.Config, log *slog.Logger) *Pipeline {
	return &Pipeline{
		db:             db,
		mail:           mailSvc,
		extractor:      extractor,
		sink:           sink,
		log:            log,
		accountEmail:   cfg.AccountEmail,
		fetchMax:       cfg.FetchMax,
		listTimeout:    time.Duration(cfg.ListTimeoutSec) * time.Second,
		interItemDelay: time.Duration(cfg.InterItemDelayMs) * time.Millisecond,
		cooldown:       time.Duration(cfg.RateLimitCooldownMs) * time.Millisecond,
		assembler:      quote.NewAssembler(cfg.QuoteCurrency, cfg.QuoteValidityDays, cfg.QuoteVATRate),
		numbers:        quote.NewNumberGenerator(db, cfg.QuoteNumberPrefix),
		okThreshold:    cfg.MatchOKThreshold,
		gapThreshold:   cfg.MatchGapThreshold,
	}
}

// Run lists the channel's messages and processes them one by one. Only the
// listing call can abort the batch; per-message failures are counted and
// the run carries on.
func (p *Pipeline) Run(ctx context.Context, channel internal.SyncChannel) (internal.BatchResult, error) {
	listCtx, cancel := context.WithTimeout(ctx, p.listTimeout)
	messages, err := p.mail.ListMessages(listCtx, channel, p.fetchMax)
	cancel()
	if err != nil {
		p.log.Error("listing failed", "channel", channel, "err", err)
		p.sink.Error(channel)
		return internal.BatchResult{}, err
	}

	fresh, err := p.filterProcessed(channel, messages)
	if err != nil {
		p.sink.Error(channel)
		return internal.BatchResult{}, err
	}

	if len(fresh) == 0 {
		p.sink.ReportProgress(channel, 0, 0, 0, 0)
		p.sink.Complete(channel, 0, 0, 0)
		return internal.BatchResult{}, ErrNoMessages
	}

	items, err := p.db.ListCatalogItems()
	if err != nil {
		p.sink.Error(channel)
		return internal.BatchResult{}, err
	}
	matcher := catalog.NewPriceMatcher(p.okThreshold, p.gapThreshold, items)

	total := len(fresh)
	success, failed := 0, 0
	for i, msg := range fresh {
		err := p.processOne(ctx, channel, msg, matcher)
		switch {
		case err == nil:
			success++
			if markErr := p.db.MarkMessageProcessed(channel, msg.ID); markErr != nil {
				p.log.Warn("could not record processed message", "channel", channel, "messageId", msg.ID, "err", markErr)
			}
		case errors.Is(err, extract.ErrRateLimited):
			failed++
			p.log.Warn("rate limited, cooling down", "channel", channel, "messageId", msg.ID)
			time.Sleep(p.cooldown)
		default:
			failed++
			p.log.Warn("message failed", "channel", channel, "messageId", msg.ID, "err", err)
		}

		p.sink.ReportProgress(channel, i+1, total, success, failed)

		if i < total-1 {
			time.Sleep(p.interItemDelay)
		}
	}

	p.sink.Complete(channel, total, success, failed)
	return internal.BatchResult{Total: total, Success: success, Failed: failed}, nil
}

func (p *Pipeline) filterProcessed(channel internal.SyncChannel, messages []internal.InboundMessage) ([]internal.InboundMessage, error) {
	out := make([]internal.InboundMessage, 0, len(messages))
	for _, msg := range messages {
		done, err := p.db.IsMessageProcessed(channel, msg.ID)
		if err != nil {
			return nil, err
		}
		if !done {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (p *Pipeline) processOne(ctx context.Context, channel internal.SyncChannel, msg internal.InboundMessage, matcher *catalog.PriceMatcher) error {
	accepted := inquiryExtensions
	if channel == internal.ChannelPurchaseOrder {
		accepted = orderExtensions
	}

	att, ok := selectAttachment(msg.Attachments, accepted)
	if !ok {
		return fmt.Errorf("no attachment with accepted extension %v", accepted)
	}

	data := att.Data
	if len(data) == 0 {
		if att.AttachmentID == "" || att.MessageID == "" {
			return errors.New("attachment has no bytes and no fetch reference")
		}
		fetched, err := p.mail.FetchAttachmentData(ctx, att.MessageID, att.AttachmentID)
		if err != nil {
			return fmt.Errorf("fetch attachment bytes: %w", err)
		}
		data = fetched
	}
	if len(data) == 0 {
		return errors.New("attachment bytes are empty")
	}

	doc, err := p.extractor.Extract(ctx, data, att.Name)
	if err != nil {
		return err
	}

	if channel == internal.ChannelPurchaseOrder {
		return p.persistOrder(msg, doc)
	}
	return p.persistInquiry(msg, doc, matcher)
}

func (p *Pipeline) persistInquiry(msg internal.InboundMessage, doc internal.ExtractedDocument, matcher *catalog.PriceMatcher) error {
	if len(doc.Lines) == 0 {
		return errors.New("extractor returned no line items")
	}

	customerEmail := ResolveCustomerEmail(doc.CustomerEmail, msg, p.accountEmail)
	cc := FilterCC(msg.CC, p.accountEmail)

	inquiryID, err := p.db.InsertInquiry(internal.InquiryRecord{
		MessageID:       msg.ID,
		ThreadID:        msg.ThreadID,
		Subject:         msg.Subject,
		Sender:          msg.From,
		CustomerName:    doc.CustomerName,
		CustomerEmail:   customerEmail,
		CustomerAddress: doc.CustomerAddress,
		Lines:           doc.Lines,
	})
	if err != nil {
		return fmt.Errorf("persist inquiry: %w", err)
	}

	lines := make([]quote.PricedLine, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		price := matcher.Match(line.Name, line.Description)
		lines = append(lines, quote.PricedLine{Line: line, UnitPrice: price})
	}

	q, _ := p.assembler.Assemble(quote.Customer{
		Name:    doc.CustomerName,
		Email:   customerEmail,
		Address: doc.CustomerAddress,
	}, lines)
	q.InquiryID = inquiryID

	number, err := p.numbers.Next()
	if err != nil {
		return fmt.Errorf("allocate quotation number: %w", err)
	}
	q.QuotationNumber = number

	quotationID, err := p.db.InsertQuotation(&q)
	if err != nil {
		return fmt.Errorf("persist quotation: %w", err)
	}

	if err := p.db.InsertThreadRef(internal.ThreadRef{
		QuotationID: quotationID,
		ThreadID:    msg.ThreadID,
		MessageID:   msg.ID,
		CC:          cc,
	}); err != nil {
		return fmt.Errorf("persist thread ref: %w", err)
	}

	p.log.Info("quotation created", "number", number, "items", len(q.Items), "status", q.Status)
	return nil
}

func (p *Pipeline) persistOrder(msg internal.InboundMessage, doc internal.ExtractedDocument) error {
	if len(doc.Lines) == 0 {
		return errors.New("extractor returned no line items")
	}

	id, err := p.db.InsertPurchaseOrder(internal.PurchaseOrderRecord{
		MessageID:    msg.ID,
		Subject:      msg.Subject,
		Sender:       msg.From,
		CustomerName: doc.CustomerName,
		Reference:    doc.Reference,
		Lines:        doc.Lines,
	})
	if err != nil {
		return fmt.Errorf("persist purchase order: %w", err)
	}

	p.log.Info("purchase order stored", "id", id, "lines", len(doc.Lines))
	return nil
}

func selectAttachment(attachments []internal.Attachment, accepted []string) (internal.Attachment, bool) {
	for _, att := range attachments {
		ext := strings.ToLower(filepath.Ext(att.Name))
		for _, want := range accepted {
			if ext == want {
				return att, true
			}
		}
	}
	return internal.Attachment{}, false
}
