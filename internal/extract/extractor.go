package extract

import (
	"context"
	"errors"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
)

// ErrUnparseable marks a permanent format error: the document cannot be
// understood and retrying will not help.
var ErrUnparseable = errors.New("document format not understood")

// ErrRateLimited marks a transient throttling error from the extraction
// backend. Callers cool down and move on rather than retrying the item.
var ErrRateLimited = errors.New("extractor rate limited")

// Extractor turns attachment bytes into a structured document.
type Extractor interface {
	Extract(ctx context.Context, data []byte, filename string) (internal.ExtractedDocument, error)
}
