package pipeline

import (
	"net/mail"
	"strings"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
)

// ResolveCustomerEmail picks the customer's address. The extractor's answer
// wins; otherwise headers are tried in From, Reply-To, To order, each
// accepted only when it is not our own account address. Empty means manual
// entry later.
func ResolveCustomerEmail(extracted string, msg internal.InboundMessage, accountEmail string) string {
	if addr := normalizeAddress(extracted); addr != "" {
		return addr
	}
	account := strings.ToLower(strings.TrimSpace(accountEmail))
	for _, header := range []string{msg.From, msg.ReplyTo, msg.To} {
		addr := normalizeAddress(header)
		if addr == "" {
			continue
		}
		if strings.ToLower(addr) == account {
			continue
		}
		return addr
	}
	return ""
}

// FilterCC trims and drops the account's own address and anything that is
// not an email. An empty result is valid.
func FilterCC(cc []string, accountEmail string) []string {
	account := strings.ToLower(strings.TrimSpace(accountEmail))
	out := make([]string, 0, len(cc))
	for _, entry := range cc {
		addr := normalizeAddress(entry)
		if addr == "" || !strings.Contains(addr, "@") {
			continue
		}
		if strings.ToLower(addr) == account {
			continue
		}
		out = append(out, addr)
	}
	return out
}

// normalizeAddress unwraps "Name <addr>" forms and trims whitespace.
func normalizeAddress(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if parsed, err := mail.ParseAddress(trimmed); err == nil {
		return parsed.Address
	}
	return trimmed
}
