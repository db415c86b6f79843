package connectors

import (
	"context"
	"errors"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
)

// ErrAuth marks an authentication failure against the mail provider. It is
// fatal to a batch: the pipeline surfaces it to the controller instead of
// retrying.
var ErrAuth = errors.New("mail authentication failed")

// MailService is the narrow mail surface the ingestion pipeline needs.
type MailService interface {
	// ListMessages returns candidate messages for a channel, newest last.
	ListMessages(ctx context.Context, channel internal.SyncChannel, max int) ([]internal.InboundMessage, error)
	// FetchAttachmentData resolves lazily-referenced attachment bytes.
	FetchAttachmentData(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}
