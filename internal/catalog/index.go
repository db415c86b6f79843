package catalog

import (
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/util"
)

type Index struct {
	ItemsByID          map[int64]internal.CatalogItem
	ByCode             map[string][]internal.CatalogItem
	ByName             map[string][]internal.CatalogItem
	TokenToItemIDs     map[string]map[int64]struct{}
	NormalizedNameByID map[int64]string
}

func BuildIndex(items []internal.CatalogItem) *Index {
	idx := &Index{
		ItemsByID:          map[int64]internal.CatalogItem{},
		ByCode:             map[string][]internal.CatalogItem{},
		ByName:             map[string][]internal.CatalogItem{},
		TokenToItemIDs:     map[string]map[int64]struct{}{},
		NormalizedNameByID: map[int64]string{},
	}

	for _, item := range items {
		idx.ItemsByID[item.ID] = item
		normName := util.NormalizeName(item.Name)
		idx.NormalizedNameByID[item.ID] = normName
		idx.ByName[normName] = append(idx.ByName[normName], item)

		if code := util.NormalizeCode(item.Code); code != "" {
			idx.ByCode[code] = append(idx.ByCode[code], item)
		}

		for _, token := range util.Tokenize(item.Name) {
			if _, ok := idx.TokenToItemIDs[token]; !ok {
				idx.TokenToItemIDs[token] = map[int64]struct{}{}
			}
			idx.TokenToItemIDs[token][item.ID] = struct{}{}
		}
	}

	return idx
}
