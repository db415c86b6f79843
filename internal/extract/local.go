package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
)

// LocalExtractor is an offline fallback that pulls line items straight out
// of PDF text. It understands only PDFs; anything else is a format error.
type LocalExtractor struct{}

func NewLocalExtractor() *LocalExtractor {
	return &LocalExtractor{}
}

func (e *LocalExtractor) Extract(_ context.Context, data []byte, filename string) (internal.ExtractedDocument, error) {
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return internal.ExtractedDocument{}, fmt.Errorf("%w: local extractor only reads pdf, got %s", ErrUnparseable, filename)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return internal.ExtractedDocument{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	doc := internal.ExtractedDocument{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, line := range splitLines(text) {
			if doc.CustomerEmail == "" {
				if email := findEmail(line); email != "" {
					doc.CustomerEmail = email
				}
			}
			item, ok := parseItemLine(line)
			if ok {
				doc.Lines = append(doc.Lines, item)
			}
		}
	}

	if len(doc.Lines) == 0 {
		return internal.ExtractedDocument{}, fmt.Errorf("%w: no line items found", ErrUnparseable)
	}
	return doc, nil
}

var (
	qtyWithUnit = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(pcs|pc|nos|no\.|set|sets|m|mtr|meter|kg|box|roll|ea)\b`)
	trailingQty = regexp.MustCompile(`(?i)(?:qty[:\s]*)?(\d+(?:[.,]\d+)?)\s*$`)
	emailRe     = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	noiseRe     = regexp.MustCompile(`(?i)^(page \d+|total|subtotal|thank|regards|tel[:\s]|fax[:\s]|e-?mail[:\s]|http)`)
)

// parseItemLine splits "name ... qty unit" style lines. Lines without a
// quantity are not items.
func parseItemLine(line string) (internal.DocumentLine, bool) {
	compact := strings.Join(strings.Fields(line), " ")
	if compact == "" || noiseRe.MatchString(compact) {
		return internal.DocumentLine{}, false
	}

	var qtyToken, unit string
	var nameEnd int
	if m := qtyWithUnit.FindStringSubmatchIndex(compact); m != nil {
		qtyToken = compact[m[2]:m[3]]
		unit = strings.ToLower(compact[m[4]:m[5]])
		nameEnd = m[0]
	} else if m := trailingQty.FindStringSubmatchIndex(compact); m != nil {
		qtyToken = compact[m[2]:m[3]]
		nameEnd = m[0]
	} else {
		return internal.DocumentLine{}, false
	}

	name := strings.TrimRight(strings.TrimSpace(compact[:nameEnd]), ".,:;-")
	if len(name) < 3 || !regexp.MustCompile(`[A-Za-z]`).MatchString(name) {
		return internal.DocumentLine{}, false
	}

	qty, err := strconv.ParseFloat(strings.ReplaceAll(qtyToken, ",", "."), 64)
	if err != nil || qty <= 0 {
		return internal.DocumentLine{}, false
	}

	return internal.DocumentLine{Name: name, Quantity: qty, Unit: unit}, true
}

func findEmail(line string) string {
	return emailRe.FindString(line)
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
