package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/config"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/connectors"
)

type Connector struct {
	service      *gmail.Service
	inquiryQuery string
	orderQuery   string
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if err := cfg.Require("GMAIL_CLIENT_ID", cfg.GmailClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_CLIENT_SECRET", cfg.GmailClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GMAIL_REFRESH_TOKEN", cfg.GmailRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GmailRedirectURI,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}

	tokenSource := oauthCfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.GmailRefreshToken})
	svc, err := gmail.NewService(context.Background(), option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &Connector{service: svc, inquiryQuery: cfg.InquiryQuery, orderQuery: cfg.OrderQuery}, nil
}

func (c *Connector) ListMessages(ctx context.Context, channel internal.SyncChannel, max int) ([]internal.InboundMessage, error) {
	query := c.inquiryQuery
	if channel == internal.ChannelPurchaseOrder {
		query = c.orderQuery
	}

	listResp, err := c.service.Users.Messages.List("me").Q(query).MaxResults(int64(max)).Context(ctx).Do()
	if err != nil {
		return nil, classifyErr(err)
	}

	out := make([]internal.InboundMessage, 0, len(listResp.Messages))
	for _, ref := range listResp.Messages {
		if ref.Id == "" {
			continue
		}
		msg, err := c.service.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, classifyErr(err)
		}
		out = append(out, toInboundMessage(msg))
	}

	return out, nil
}

func (c *Connector) FetchAttachmentData(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	body, err := c.service.Users.Messages.Attachments.Get("me", messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, classifyErr(err)
	}
	if body.Data == "" {
		return nil, nil
	}
	return decodeBase64URL(body.Data)
}

func toInboundMessage(msg *gmail.Message) internal.InboundMessage {
	headers := map[string]string{}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			headers[strings.ToLower(h.Name)] = h.Value
		}
	}

	out := internal.InboundMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Subject:  headers["subject"],
		From:     headers["from"],
		To:       headers["to"],
		ReplyTo:  headers["reply-to"],
		CC:       splitAddressList(headers["cc"]),
	}

	if msg.Payload != nil {
		collectAttachments(msg.Id, msg.Payload.Parts, &out.Attachments)
	}
	return out
}

func collectAttachments(messageID string, parts []*gmail.MessagePart, out *[]internal.Attachment) {
	for _, part := range parts {
		if part == nil {
			continue
		}
		if part.Filename != "" && part.Body != nil {
			att := internal.Attachment{Name: part.Filename, MessageID: messageID}
			if part.Body.Data != "" {
				if decoded, err := decodeBase64URL(part.Body.Data); err == nil {
					att.Data = decoded
				}
			}
			if len(att.Data) == 0 {
				att.AttachmentID = part.Body.AttachmentId
			}
			*out = append(*out, att)
		}
		if len(part.Parts) > 0 {
			collectAttachments(messageID, part.Parts, out)
		}
	}
}

func splitAddressList(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	if parsed, err := mail.ParseAddressList(header); err == nil {
		out := make([]string, 0, len(parsed))
		for _, a := range parsed {
			out = append(out, a.Address)
		}
		return out
	}
	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func classifyErr(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		// 403 is also what Gmail uses for daily quota exhaustion, which is
		// just as fatal to a batch as a bad credential.
		if apiErr.Code == 401 || apiErr.Code == 403 {
			return fmt.Errorf("%w: %v", connectors.ErrAuth, err)
		}
	}
	return err
}

func decodeBase64URL(input string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	decoded, err = base64.URLEncoding.DecodeString(input)
	if err == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("decode gmail payload: %w", err)
}
