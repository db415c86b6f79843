package imap

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/jhillyerd/enmime"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/config"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/connectors"
)

// Connector pulls messages over IMAP. Attachment bytes always come inline
// with the message body, so there is never anything to fetch lazily.
type Connector struct {
	host           string
	port           int
	secure         bool
	user           string
	password       string
	inquiryMailbox string
	orderMailbox   string
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if err := cfg.Require("IMAP_HOST", cfg.IMAPHost); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_USER", cfg.IMAPUser); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_PASSWORD", cfg.IMAPPassword); err != nil {
		return nil, err
	}

	return &Connector{
		host:           cfg.IMAPHost,
		port:           cfg.IMAPPort,
		secure:         cfg.IMAPSecure,
		user:           cfg.IMAPUser,
		password:       cfg.IMAPPassword,
		inquiryMailbox: cfg.InquiryQuery,
		orderMailbox:   cfg.OrderQuery,
	}, nil
}

func (c *Connector) ListMessages(ctx context.Context, channel internal.SyncChannel, max int) ([]internal.InboundMessage, error) {
	mailbox := c.inquiryMailbox
	if channel == internal.ChannelPurchaseOrder {
		mailbox = c.orderMailbox
	}

	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	var client *imapclient.Client
	var err error
	if c.secure {
		client, err = imapclient.DialTLS(addr, &tls.Config{ServerName: c.host})
	} else {
		client, err = imapclient.Dial(addr)
	}
	if err != nil {
		return nil, err
	}
	defer client.Logout()

	if err := client.Login(c.user, c.password); err != nil {
		return nil, fmt.Errorf("%w: %v", connectors.ErrAuth, err)
	}

	if _, err := client.Select(mailbox, false); err != nil {
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := client.Search(criteria)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > max {
		ids = ids[len(ids)-max:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}
	messages := make(chan *imap.Message, len(ids))
	fetchDone := make(chan error, 1)
	go func() { fetchDone <- client.Fetch(seqset, items, messages) }()

	out := make([]internal.InboundMessage, 0, len(ids))
	for msg := range messages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if msg == nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}

		inbound, err := parseRawMessage(raw)
		if err != nil {
			continue
		}
		if inbound.ID == "" {
			inbound.ID = fmt.Sprintf("imap-%d", msg.Uid)
		}
		out = append(out, inbound)
	}

	if err := <-fetchDone; err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Connector) FetchAttachmentData(context.Context, string, string) ([]byte, error) {
	return nil, errors.New("imap attachments are delivered inline")
}

func parseRawMessage(raw []byte) (internal.InboundMessage, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return internal.InboundMessage{}, err
	}

	msg := internal.InboundMessage{
		ID:       strings.Trim(env.GetHeader("Message-ID"), "<>"),
		ThreadID: strings.Trim(env.GetHeader("References"), "<>"),
		Subject:  env.GetHeader("Subject"),
		From:     env.GetHeader("From"),
		To:       env.GetHeader("To"),
		ReplyTo:  env.GetHeader("Reply-To"),
		CC:       splitAddressList(env.GetHeader("Cc")),
	}

	for _, att := range env.Attachments {
		name := strings.TrimSpace(att.FileName)
		if name == "" {
			name = "attachment"
		}
		msg.Attachments = append(msg.Attachments, internal.Attachment{Name: name, Data: att.Content})
	}

	return msg, nil
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
