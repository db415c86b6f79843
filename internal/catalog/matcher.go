package catalog

import (
	"sort"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/util"
)

// PriceMatcher resolves an inquiry line to a catalog unit price. A zero
// return means "unmatched" and is a valid result, never an error.
type PriceMatcher struct {
	okThreshold  float64
	gapThreshold float64
	index        *Index
}

func NewPriceMatcher(okThreshold, gapThreshold float64, items []internal.CatalogItem) *PriceMatcher {
	return &PriceMatcher{
		okThreshold:  okThreshold,
		gapThreshold: gapThreshold,
		index:        BuildIndex(items),
	}
}

// Match looks up the unit price for an item name, optionally assisted by a
// free-text description. Exact normalized match wins; otherwise the best
// fuzzy candidate is accepted only when its score clears the threshold and
// leads the runner-up by the configured gap.
func (m *PriceMatcher) Match(itemName, description string) float64 {
	normalized := util.NormalizeName(itemName)
	if normalized == "" {
		return 0
	}

	if util.LooksLikeCode(itemName) {
		if byCode := m.index.ByCode[util.NormalizeCode(itemName)]; len(byCode) == 1 {
			return byCode[0].UnitPrice
		}
	}

	if exact := m.index.ByName[normalized]; len(exact) > 0 {
		return exact[0].UnitPrice
	}

	if price := m.fuzzyPrice(normalized); price > 0 {
		return price
	}

	if description != "" {
		normDesc := util.NormalizeName(description)
		if exact := m.index.ByName[normDesc]; len(exact) > 0 {
			return exact[0].UnitPrice
		}
		return m.fuzzyPrice(normDesc)
	}

	return 0
}

type scoredItem struct {
	id    int64
	score float64
}

func (m *PriceMatcher) fuzzyPrice(query string) float64 {
	candidates := m.rankCandidates(query)
	if len(candidates) == 0 {
		return 0
	}

	top1 := candidates[0]
	gap := top1.score
	if len(candidates) > 1 {
		gap = top1.score - candidates[1].score
	}

	if top1.score >= m.okThreshold && gap >= m.gapThreshold {
		return m.index.ItemsByID[top1.id].UnitPrice
	}
	return 0
}

func (m *PriceMatcher) rankCandidates(query string) []scoredItem {
	queryTokens := util.Tokenize(query)
	ids := map[int64]struct{}{}

	for _, token := range queryTokens {
		for id := range m.index.TokenToItemIDs[token] {
			ids[id] = struct{}{}
		}
	}

	out := make([]scoredItem, 0, len(ids))
	for id := range ids {
		candidateName := m.index.NormalizedNameByID[id]
		score := scoreName(query, candidateName, queryTokens, util.Tokenize(candidateName))
		out = append(out, scoredItem{id: id, score: score})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

func scoreName(query, candidate string, queryTokens, candidateTokens []string) float64 {
	dice := util.DiceCoefficient(query, candidate)
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return dice
	}

	set := map[string]struct{}{}
	for _, t := range candidateTokens {
		set[t] = struct{}{}
	}
	overlap := 0
	for _, t := range queryTokens {
		if _, ok := set[t]; ok {
			overlap++
		}
	}
	tokenScore := float64(overlap) / float64(len(queryTokens))
	return 0.65*dice + 0.35*tokenScore
}
