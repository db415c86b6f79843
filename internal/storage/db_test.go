package storage

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestIncrementAndGetConcurrent(t *testing.T) {
	db := openTestDB(t)

	const n = 50
	results := make(chan int64, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			v, err := db.IncrementAndGet("quotation_number")
			if err != nil {
				t.Error(err)
				return
			}
			results <- v
		}()
	}
	wg.Wait()
	close(results)

	seen := map[int64]bool{}
	for v := range results {
		if seen[v] {
			t.Fatalf("duplicate counter value %d", v)
		}
		seen[v] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct values, got %d", n, len(seen))
	}
	for v := int64(1); v <= n; v++ {
		if !seen[v] {
			t.Fatalf("gap in sequence: missing %d", v)
		}
	}
}

func TestIncrementAndGetSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	first, err := db.IncrementAndGet("quotation_number")
	if err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	second, err := db.IncrementAndGet("quotation_number")
	if err != nil {
		t.Fatal(err)
	}
	if second != first+1 {
		t.Fatalf("counter did not survive reopen: first=%d second=%d", first, second)
	}
}

func TestInsertQuotationRejectsEmpty(t *testing.T) {
	db := openTestDB(t)
	q := &internal.Quotation{QuotationNumber: "QTN-000001", QuotationDate: time.Now(), ValidityDate: time.Now(), Currency: "AED", Status: internal.QuotationDraft}
	if _, err := db.InsertQuotation(q); err == nil {
		t.Fatal("expected error for quotation without items")
	}
}

func TestQuotationRoundTrip(t *testing.T) {
	db := openTestDB(t)

	q := &internal.Quotation{
		QuotationNumber: "QTN-000042",
		QuotationDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		ValidityDate:    time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		CustomerName:    "Acme Trading",
		CustomerEmail:   "buyer@acme.example",
		TotalAmount:     47.78,
		Currency:        "AED",
		Status:          internal.QuotationDraft,
		Items: []internal.QuotationItem{
			{ItemName: "Pump A", Quantity: 2, Unit: "pcs", UnitPrice: 10, Total: 20, IsPriced: true, Status: internal.ItemReady},
			{ItemName: "Gasket", Quantity: 5, Unit: "pcs", UnitPrice: 0, Total: 0, IsPriced: false, Status: internal.ItemPending},
		},
	}
	id, err := db.InsertQuotation(q)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.InsertThreadRef(internal.ThreadRef{QuotationID: id, ThreadID: "t-1", MessageID: "m-1", CC: []string{"partner@x.com"}}); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetQuotationByNumber("QTN-000042")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("quotation not found")
	}
	if len(got.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(got.Items))
	}
	if got.Items[0].ItemName != "Pump A" || got.Items[1].Status != internal.ItemPending {
		t.Fatalf("unexpected items: %+v", got.Items)
	}

	ref, err := db.GetThreadRef(id)
	if err != nil {
		t.Fatal(err)
	}
	if ref == nil || len(ref.CC) != 1 || ref.CC[0] != "partner@x.com" {
		t.Fatalf("unexpected thread ref: %+v", ref)
	}
}

func TestProcessedMessages(t *testing.T) {
	db := openTestDB(t)

	done, err := db.IsMessageProcessed(internal.ChannelInquiry, "msg-1")
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("msg-1 should not be processed yet")
	}

	if err := db.MarkMessageProcessed(internal.ChannelInquiry, "msg-1"); err != nil {
		t.Fatal(err)
	}
	// Marking twice is a no-op.
	if err := db.MarkMessageProcessed(internal.ChannelInquiry, "msg-1"); err != nil {
		t.Fatal(err)
	}

	done, err = db.IsMessageProcessed(internal.ChannelInquiry, "msg-1")
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Fatal("msg-1 should be processed")
	}

	// Channels are independent.
	done, err = db.IsMessageProcessed(internal.ChannelPurchaseOrder, "msg-1")
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("order channel should not see inquiry's processed ids")
	}
}
