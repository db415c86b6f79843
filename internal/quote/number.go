package quote

import (
	"fmt"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/storage"
)

const numberCounterKey = "quotation_number"

// NumberGenerator hands out quotation numbers with a fixed organizational
// prefix and a strictly increasing suffix. The counter lives in the
// database and is bumped atomically, so concurrent pipeline runs across
// channels never see the same value and restarts never reset the sequence.
type NumberGenerator struct {
	db     *storage.DB
	prefix string
}

func NewNumberGenerator(db *storage.DB, prefix string) *NumberGenerator {
	return &NumberGenerator{db: db, prefix: prefix}
}

func (g *NumberGenerator) Next() (string, error) {
	n, err := g.db.IncrementAndGet(numberCounterKey)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", g.prefix, n), nil
}
