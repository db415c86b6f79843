package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/config"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/extract"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/storage"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/util"
)

type fakeMail struct {
	messages []internal.InboundMessage
	listErr  error
	fetched  map[string][]byte
}

func (f *fakeMail) ListMessages(ctx context.Context, channel internal.SyncChannel, max int) ([]internal.InboundMessage, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.messages) > max {
		return f.messages[:max], nil
	}
	return f.messages, nil
}

func (f *fakeMail) FetchAttachmentData(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	data, ok := f.fetched[messageID+"/"+attachmentID]
	if !ok {
		return nil, errors.New("unknown attachment")
	}
	return data, nil
}

type fakeExtractor struct {
	perMessage map[string]error
	doc        internal.ExtractedDocument
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte, filename string) (internal.ExtractedDocument, error) {
	if err, ok := f.perMessage[string(data)]; ok && err != nil {
		return internal.ExtractedDocument{}, err
	}
	return f.doc, nil
}

type progressEvent struct {
	current, total, success, failed int
}

type recordingSink struct {
	reports   []progressEvent
	completes []progressEvent
	errors    int
}

func (s *recordingSink) ReportProgress(_ internal.SyncChannel, current, total, success, failed int) {
	s.reports = append(s.reports, progressEvent{current, total, success, failed})
}

func (s *recordingSink) Complete(_ internal.SyncChannel, total, success, failed int) {
	s.completes = append(s.completes, progressEvent{total, total, success, failed})
}

func (s *recordingSink) Error(internal.SyncChannel) {
	s.errors++
}

func testConfig() config.Config {
	return config.Config{
		AccountEmail:        "quotes@supplier.example",
		MatchOKThreshold:    0.90,
		MatchGapThreshold:   0.08,
		QuoteNumberPrefix:   "QTN",
		QuoteCurrency:       "AED",
		QuoteValidityDays:   30,
		QuoteVATRate:        0.05,
		FetchMax:            50,
		ListTimeoutSec:      60,
		InterItemDelayMs:    0,
		RateLimitCooldownMs: 0,
	}
}

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "pipeline.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedCatalog(t *testing.T, db *storage.DB) {
	t.Helper()
	err := db.UpsertCatalogItems([]internal.CatalogItem{
		{Name: "Copper Pipe 15mm", Code: "CP-15", UnitPrice: 12.50, Unit: "m"},
	}, util.NormalizeName)
	if err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
}

func testMessage(id string) internal.InboundMessage {
	return internal.InboundMessage{
		ID:       id,
		ThreadID: "thread-" + id,
		Subject:  "RFQ " + id,
		From:     fmt.Sprintf("buyer-%s@acme.example", id),
		Attachments: []internal.Attachment{
			{Name: "inquiry.pdf", Data: []byte(id)},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunContinuesAfterRateLimit(t *testing.T) {
	db := openTestDB(t)
	seedCatalog(t, db)

	var messages []internal.InboundMessage
	for i := 1; i <= 5; i++ {
		messages = append(messages, testMessage(fmt.Sprintf("m%d", i)))
	}

	mail := &fakeMail{messages: messages}
	extractor := &fakeExtractor{
		perMessage: map[string]error{"m3": fmt.Errorf("extractor: %w", extract.ErrRateLimited)},
		doc: internal.ExtractedDocument{
			CustomerName: "Acme Trading",
			Lines:        []internal.DocumentLine{{Name: "Copper Pipe 15mm", Quantity: 3, Unit: "m"}},
		},
	}
	sink := &recordingSink{}

	p := New(db, mail, extractor, sink, testConfig(), discardLogger())
	result, err := p.Run(context.Background(), internal.ChannelInquiry)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Total != 5 || result.Success != 4 || result.Failed != 1 {
		t.Fatalf("result = %+v, want total=5 success=4 failed=1", result)
	}

	if len(sink.reports) != 5 {
		t.Fatalf("got %d progress reports, want 5", len(sink.reports))
	}
	for i, rep := range sink.reports {
		if rep.current != i+1 || rep.total != 5 {
			t.Fatalf("report %d = %+v, want current=%d total=5", i, rep, i+1)
		}
	}
	// After the rate-limited third message the counts must show the failure
	// while the batch keeps going.
	if got := sink.reports[2]; got.success != 2 || got.failed != 1 {
		t.Fatalf("report after rate limit = %+v, want success=2 failed=1", got)
	}

	if len(sink.completes) != 1 {
		t.Fatalf("got %d completions, want 1", len(sink.completes))
	}
	if got := sink.completes[0]; got.success != 4 || got.failed != 1 {
		t.Fatalf("completion = %+v, want success=4 failed=1", got)
	}

	done, err := db.IsMessageProcessed(internal.ChannelInquiry, "m3")
	if err != nil {
		t.Fatalf("IsMessageProcessed: %v", err)
	}
	if done {
		t.Fatal("rate-limited message must stay unprocessed for the next run")
	}
	done, err = db.IsMessageProcessed(internal.ChannelInquiry, "m1")
	if err != nil {
		t.Fatalf("IsMessageProcessed: %v", err)
	}
	if !done {
		t.Fatal("successful message should be recorded as processed")
	}
}

func TestRunCreatesQuotationWithSequentialNumbers(t *testing.T) {
	db := openTestDB(t)
	seedCatalog(t, db)

	mail := &fakeMail{messages: []internal.InboundMessage{testMessage("m1"), testMessage("m2")}}
	extractor := &fakeExtractor{
		doc: internal.ExtractedDocument{
			CustomerName:  "Acme Trading",
			CustomerEmail: "buyer@acme.example",
			Lines: []internal.DocumentLine{
				{Name: "Copper Pipe 15mm", Quantity: 3, Unit: "m"},
				{Name: "Unknown Widget", Quantity: 2, Unit: "pcs"},
			},
		},
	}
	sink := &recordingSink{}

	p := New(db, mail, extractor, sink, testConfig(), discardLogger())
	result, err := p.Run(context.Background(), internal.ChannelInquiry)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Success != 2 {
		t.Fatalf("result = %+v, want 2 successes", result)
	}

	q, err := db.GetQuotationByNumber("QTN-000001")
	if err != nil {
		t.Fatalf("GetQuotationByNumber: %v", err)
	}
	if q == nil {
		t.Fatal("first quotation not found")
	}
	if q.Status != internal.QuotationDraft {
		t.Fatalf("status = %q, want draft while an item is unpriced", q.Status)
	}
	if len(q.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(q.Items))
	}
	if q.Items[0].UnitPrice != 12.50 || q.Items[0].Total != 37.50 {
		t.Fatalf("matched item = %+v, want price 12.50 total 37.50", q.Items[0])
	}
	if q.Items[1].UnitPrice != 0 || q.Items[1].Status != internal.ItemPending {
		t.Fatalf("unmatched item = %+v, want zero price and pending status", q.Items[1])
	}
	// VAT over all items: 37.50 * 1.05.
	if q.TotalAmount != 39.38 {
		t.Fatalf("TotalAmount = %v, want 39.38", q.TotalAmount)
	}

	ref, err := db.GetThreadRef(q.ID)
	if err != nil {
		t.Fatalf("GetThreadRef: %v", err)
	}
	if ref == nil || ref.ThreadID != "thread-m1" {
		t.Fatalf("thread ref = %+v, want thread-m1", ref)
	}

	second, err := db.GetQuotationByNumber("QTN-000002")
	if err != nil {
		t.Fatalf("GetQuotationByNumber: %v", err)
	}
	if second == nil {
		t.Fatal("second quotation not found")
	}
}

func TestRunEmptyMailboxReturnsErrNoMessages(t *testing.T) {
	db := openTestDB(t)
	mail := &fakeMail{}
	sink := &recordingSink{}

	p := New(db, mail, &fakeExtractor{}, sink, testConfig(), discardLogger())
	_, err := p.Run(context.Background(), internal.ChannelInquiry)
	if !errors.Is(err, ErrNoMessages) {
		t.Fatalf("Run() error = %v, want ErrNoMessages", err)
	}
	if len(sink.completes) != 1 {
		t.Fatal("empty mailbox should still complete the batch")
	}
	if sink.errors != 0 {
		t.Fatal("empty mailbox is not an error state")
	}
}

func TestRunListingFailureReportsError(t *testing.T) {
	db := openTestDB(t)
	listErr := errors.New("upstream down")
	mail := &fakeMail{listErr: listErr}
	sink := &recordingSink{}

	p := New(db, mail, &fakeExtractor{}, sink, testConfig(), discardLogger())
	_, err := p.Run(context.Background(), internal.ChannelInquiry)
	if !errors.Is(err, listErr) {
		t.Fatalf("Run() error = %v, want %v", err, listErr)
	}
	if sink.errors != 1 {
		t.Fatalf("sink.errors = %d, want 1", sink.errors)
	}
	if len(sink.completes) != 0 {
		t.Fatal("a failed listing must not complete")
	}
}

func TestRunSkipsAlreadyProcessedMessages(t *testing.T) {
	db := openTestDB(t)
	seedCatalog(t, db)
	if err := db.MarkMessageProcessed(internal.ChannelInquiry, "m1"); err != nil {
		t.Fatalf("MarkMessageProcessed: %v", err)
	}

	mail := &fakeMail{messages: []internal.InboundMessage{testMessage("m1"), testMessage("m2")}}
	extractor := &fakeExtractor{
		doc: internal.ExtractedDocument{
			Lines: []internal.DocumentLine{{Name: "Copper Pipe 15mm", Quantity: 1}},
		},
	}
	sink := &recordingSink{}

	p := New(db, mail, extractor, sink, testConfig(), discardLogger())
	result, err := p.Run(context.Background(), internal.ChannelInquiry)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Total != 1 || result.Success != 1 {
		t.Fatalf("result = %+v, want the already-processed message skipped", result)
	}
}

func TestRunDedupeDoesNotCrossChannels(t *testing.T) {
	db := openTestDB(t)
	seedCatalog(t, db)
	if err := db.MarkMessageProcessed(internal.ChannelInquiry, "m1"); err != nil {
		t.Fatalf("MarkMessageProcessed: %v", err)
	}

	mail := &fakeMail{messages: []internal.InboundMessage{testMessage("m1")}}
	extractor := &fakeExtractor{
		doc: internal.ExtractedDocument{
			CustomerName: "Acme Trading",
			Reference:    "PO-100",
			Lines:        []internal.DocumentLine{{Name: "Copper Pipe 15mm", Quantity: 4}},
		},
	}
	sink := &recordingSink{}

	p := New(db, mail, extractor, sink, testConfig(), discardLogger())
	result, err := p.Run(context.Background(), internal.ChannelPurchaseOrder)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Success != 1 {
		t.Fatalf("result = %+v, want the order channel to ignore inquiry dedupe state", result)
	}
}

func TestRunSkipsMessagesWithoutUsableAttachment(t *testing.T) {
	db := openTestDB(t)
	seedCatalog(t, db)

	noAttachment := internal.InboundMessage{ID: "bare", Subject: "no files here"}
	wrongType := internal.InboundMessage{
		ID:          "img",
		Attachments: []internal.Attachment{{Name: "photo.png", Data: []byte{1}}},
	}
	good := testMessage("good")

	mail := &fakeMail{messages: []internal.InboundMessage{noAttachment, wrongType, good}}
	extractor := &fakeExtractor{
		doc: internal.ExtractedDocument{
			Lines: []internal.DocumentLine{{Name: "Copper Pipe 15mm", Quantity: 1}},
		},
	}
	sink := &recordingSink{}

	p := New(db, mail, extractor, sink, testConfig(), discardLogger())
	result, err := p.Run(context.Background(), internal.ChannelInquiry)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Total != 3 || result.Success != 1 || result.Failed != 2 {
		t.Fatalf("result = %+v, want total=3 success=1 failed=2", result)
	}
}

func TestRunFetchesLazyAttachmentBytes(t *testing.T) {
	db := openTestDB(t)
	seedCatalog(t, db)

	lazy := internal.InboundMessage{
		ID:       "lazy",
		ThreadID: "thread-lazy",
		From:     "buyer@acme.example",
		Attachments: []internal.Attachment{
			{Name: "inquiry.pdf", MessageID: "lazy", AttachmentID: "att-1"},
		},
	}
	mail := &fakeMail{
		messages: []internal.InboundMessage{lazy},
		fetched:  map[string][]byte{"lazy/att-1": []byte("pdf bytes")},
	}
	extractor := &fakeExtractor{
		doc: internal.ExtractedDocument{
			Lines: []internal.DocumentLine{{Name: "Copper Pipe 15mm", Quantity: 2}},
		},
	}
	sink := &recordingSink{}

	p := New(db, mail, extractor, sink, testConfig(), discardLogger())
	result, err := p.Run(context.Background(), internal.ChannelInquiry)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Success != 1 {
		t.Fatalf("result = %+v, want lazy attachment fetched and processed", result)
	}
}
