package pipeline

import (
	"reflect"
	"testing"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
)

func TestResolveCustomerEmail(t *testing.T) {
	account := "quotes@supplier.example"

	tests := []struct {
		name      string
		extracted string
		msg       internal.InboundMessage
		want      string
	}{
		{
			name:      "extracted address wins over headers",
			extracted: "buyer@acme.example",
			msg:       internal.InboundMessage{From: "someone@else.example"},
			want:      "buyer@acme.example",
		},
		{
			name: "falls back to from header",
			msg:  internal.InboundMessage{From: "Jo Buyer <jo@acme.example>", To: account},
			want: "jo@acme.example",
		},
		{
			name: "skips own account and uses reply-to",
			msg: internal.InboundMessage{
				From:    "Quotes <QUOTES@supplier.example>",
				ReplyTo: "procurement@acme.example",
			},
			want: "procurement@acme.example",
		},
		{
			name: "skips own account everywhere",
			msg: internal.InboundMessage{
				From: account,
				To:   account,
			},
			want: "",
		},
		{
			name: "empty message yields empty",
			msg:  internal.InboundMessage{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCustomerEmail(tt.extracted, tt.msg, account)
			if got != tt.want {
				t.Fatalf("ResolveCustomerEmail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterCC(t *testing.T) {
	got := FilterCC(
		[]string{"me@acct.com", "  partner@x.com  ", "", "not-an-email"},
		"me@acct.com",
	)
	want := []string{"partner@x.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FilterCC() = %v, want %v", got, want)
	}
}

func TestFilterCCEmptyInput(t *testing.T) {
	if got := FilterCC(nil, "me@acct.com"); len(got) != 0 {
		t.Fatalf("FilterCC(nil) = %v, want empty", got)
	}
}
