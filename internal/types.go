package internal

import (
	"fmt"
	"time"
)

// SyncChannel identifies one of the two independent ingestion tracks.
type SyncChannel string

const (
	ChannelInquiry       SyncChannel = "inquiry"
	ChannelPurchaseOrder SyncChannel = "purchase_order"
)

// SyncProgress is an immutable snapshot of one channel's batch state.
// Every update replaces the whole value.
type SyncProgress struct {
	Current  int
	Total    int
	Success  int
	Failed   int
	IsActive bool
}

func (p SyncProgress) Label() string {
	return fmt.Sprintf("%d/%d", p.Current, p.Total)
}

// Attachment is one attachment of an inbound message. Empty Data with a
// non-empty AttachmentID means the bytes must be fetched lazily.
type Attachment struct {
	Name         string
	Data         []byte
	AttachmentID string
	MessageID    string
}

// InboundMessage is a candidate message supplied by the mail collaborator.
type InboundMessage struct {
	ID          string
	ThreadID    string
	Subject     string
	From        string
	To          string
	ReplyTo     string
	CC          []string
	Attachments []Attachment
}

// DocumentLine is one line item produced by the extractor.
type DocumentLine struct {
	Name             string
	Code             string
	Description      string
	Quantity         float64
	Unit             string
	ManufacturerPart string
}

// ExtractedDocument is the extractor collaborator's output: customer
// identity plus ordered line items, one document per attachment.
type ExtractedDocument struct {
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	Reference       string
	Lines           []DocumentLine
}

type ItemStatus string

const (
	ItemReady   ItemStatus = "ready"
	ItemPending ItemStatus = "pending"
)

type QuotationStatus string

const (
	QuotationDraft QuotationStatus = "draft"
	QuotationReady QuotationStatus = "ready"
	QuotationSent  QuotationStatus = "sent"
)

type QuotationItem struct {
	ItemName    string
	ItemCode    string
	Description string
	Quantity    float64
	Unit        string
	UnitPrice   float64
	Total       float64
	IsPriced    bool
	Status      ItemStatus
}

type Quotation struct {
	ID              int64
	QuotationNumber string
	QuotationDate   time.Time
	ValidityDate    time.Time
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	Items           []QuotationItem
	TotalAmount     float64
	Currency        string
	Notes           string
	Status          QuotationStatus
	InquiryID       int64
	CreatedAt       time.Time
}

// ThreadRef carries reply-threading metadata and the resolved CC list for a
// quotation. Stored as its own record, never encoded into Notes.
type ThreadRef struct {
	QuotationID int64
	ThreadID    string
	MessageID   string
	CC          []string
}

// InquiryRecord is the persisted extracted document for an inquiry message.
type InquiryRecord struct {
	ID              int64
	MessageID       string
	ThreadID        string
	Subject         string
	Sender          string
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	Lines           []DocumentLine
	CreatedAt       time.Time
}

// PurchaseOrderRecord is the persisted extracted document for an order
// message; orders skip the pricing step entirely.
type PurchaseOrderRecord struct {
	ID           int64
	MessageID    string
	Subject      string
	Sender       string
	CustomerName string
	Reference    string
	Lines        []DocumentLine
	CreatedAt    time.Time
}

// CatalogItem is one priced row of the product catalog.
type CatalogItem struct {
	ID          int64
	Name        string
	Code        string
	Description string
	Unit        string
	UnitPrice   float64
	Currency    string
	UpdatedAt   string
}

// BatchResult summarizes one pipeline run over a channel.
type BatchResult struct {
	Total   int
	Success int
	Failed  int
}
