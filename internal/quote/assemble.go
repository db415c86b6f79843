package quote

import (
	"math"
	"time"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
)

// Customer is the party a quotation is addressed to.
type Customer struct {
	Name    string
	Email   string
	Address string
}

// PricedLine pairs an inquiry line with its matched catalog price. A zero
// price means the catalog had no answer and the item stays pending.
type PricedLine struct {
	Line      internal.DocumentLine
	UnitPrice float64
}

// Totals are the sums over the ready items only. They exist for outbound
// communication on partial quotes and are never persisted on the quotation.
type Totals struct {
	Subtotal   float64
	VAT        float64
	GrandTotal float64
}

// Assembler builds draft quotations from priced inquiry lines. It is pure:
// no I/O, and time is injected for deterministic tests.
type Assembler struct {
	Currency     string
	ValidityDays int
	VATRate      float64
	Now          func() time.Time
}

func NewAssembler(currency string, validityDays int, vatRate float64) *Assembler {
	return &Assembler{Currency: currency, ValidityDays: validityDays, VATRate: vatRate, Now: time.Now}
}

// Assemble prices every line, computes document totals over all items
// (pending ones contribute zero), and derives the document status: ready
// only when every item is priced.
func (a *Assembler) Assemble(customer Customer, lines []PricedLine) (internal.Quotation, Totals) {
	now := a.Now()

	items := make([]internal.QuotationItem, 0, len(lines))
	subtotalAll := 0.0
	readySubtotal := 0.0
	allReady := true

	for _, pl := range lines {
		total := Round2(pl.UnitPrice * pl.Line.Quantity)
		priced := pl.UnitPrice > 0
		status := internal.ItemReady
		if !priced {
			status = internal.ItemPending
			allReady = false
		}

		items = append(items, internal.QuotationItem{
			ItemName:    pl.Line.Name,
			ItemCode:    pl.Line.Code,
			Description: pl.Line.Description,
			Quantity:    pl.Line.Quantity,
			Unit:        pl.Line.Unit,
			UnitPrice:   pl.UnitPrice,
			Total:       total,
			IsPriced:    priced,
			Status:      status,
		})

		subtotalAll += total
		if priced {
			readySubtotal += total
		}
	}

	status := internal.QuotationDraft
	if allReady && len(items) > 0 {
		status = internal.QuotationReady
	}

	q := internal.Quotation{
		QuotationDate:   now,
		ValidityDate:    now.AddDate(0, 0, a.ValidityDays),
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		CustomerAddress: customer.Address,
		Items:           items,
		TotalAmount:     Round2(subtotalAll * (1 + a.VATRate)),
		Currency:        a.Currency,
		Status:          status,
		CreatedAt:       now,
	}

	ready := Totals{
		Subtotal:   Round2(readySubtotal),
		VAT:        Round2(readySubtotal * a.VATRate),
		GrandTotal: Round2(readySubtotal * (1 + a.VATRate)),
	}

	return q, ready
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
