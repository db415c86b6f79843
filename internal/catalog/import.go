package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/storage"
	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal/util"
)

// ImportFile loads a price list exported as .xlsx or an .html table into the
// local catalog.
func ImportFile(db *storage.DB, path string) (int, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var items []internal.CatalogItem
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		items, err = parsePriceListXLSX(blob)
	case ".html", ".htm":
		items, err = parsePriceListHTML(blob)
	default:
		return 0, fmt.Errorf("unsupported price list format: %s", filepath.Ext(path))
	}
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	if err := db.UpsertCatalogItems(items, util.NormalizeName); err != nil {
		return 0, err
	}
	return len(items), nil
}

func parsePriceListXLSX(blob []byte) ([]internal.CatalogItem, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := []internal.CatalogItem{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		nameIdx, codeIdx, priceIdx, unitIdx, descIdx := -1, -1, -1, -1, -1
		for i, row := range rows {
			cells := normalizeCells(row)
			if len(cells) == 0 {
				continue
			}

			if i < 3 && nameIdx < 0 {
				nameIdx, codeIdx, priceIdx, unitIdx, descIdx = inferColumns(cells)
				if nameIdx >= 0 && priceIdx >= 0 {
					continue
				}
			}
			if nameIdx < 0 {
				nameIdx, codeIdx, priceIdx, unitIdx, descIdx = 0, 1, 2, 3, 4
			}

			item, ok := rowToCatalogItem(cells, nameIdx, codeIdx, priceIdx, unitIdx, descIdx)
			if ok {
				out = append(out, item)
			}
		}
	}
	return out, nil
}

func parsePriceListHTML(blob []byte) ([]internal.CatalogItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}

	out := []internal.CatalogItem{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.TrimSpace(cell.Text()))
		})
		nameIdx, codeIdx, priceIdx, unitIdx, descIdx := inferColumns(headers)
		if nameIdx < 0 || priceIdx < 0 {
			return
		}

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			item, ok := rowToCatalogItem(cells, nameIdx, codeIdx, priceIdx, unitIdx, descIdx)
			if ok {
				out = append(out, item)
			}
		})
	})
	return out, nil
}

func rowToCatalogItem(cells []string, nameIdx, codeIdx, priceIdx, unitIdx, descIdx int) (internal.CatalogItem, bool) {
	name := pickCell(cells, nameIdx)
	priceCell := pickCell(cells, priceIdx)
	if name == "" || priceCell == "" {
		return internal.CatalogItem{}, false
	}
	price, err := parsePrice(priceCell)
	if err != nil || price < 0 {
		return internal.CatalogItem{}, false
	}
	return internal.CatalogItem{
		Name:        name,
		Code:        pickCell(cells, codeIdx),
		Description: pickCell(cells, descIdx),
		Unit:        pickCell(cells, unitIdx),
		UnitPrice:   price,
	}, true
}

func inferColumns(headers []string) (nameIdx, codeIdx, priceIdx, unitIdx, descIdx int) {
	norm := make([]string, 0, len(headers))
	for _, h := range headers {
		norm = append(norm, strings.ToLower(h))
	}
	nameIdx = findHeaderIndex(norm, []string{"item", "name", "product", "material"})
	codeIdx = findHeaderIndex(norm, []string{"code", "sku", "part", "article"})
	priceIdx = findHeaderIndex(norm, []string{"price", "rate", "cost"})
	unitIdx = findHeaderIndex(norm, []string{"unit", "uom"})
	descIdx = findHeaderIndex(norm, []string{"desc", "detail", "spec"})
	return
}

func findHeaderIndex(headers []string, probes []string) int {
	for i, h := range headers {
		for _, probe := range probes {
			if strings.Contains(h, probe) {
				return i
			}
		}
	}
	return -1
}

func pickCell(cells []string, idx int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	return ""
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, strings.Join(strings.Fields(c), " "))
	}
	return out
}

func parsePrice(cell string) (float64, error) {
	compact := strings.TrimSpace(cell)
	compact = strings.TrimLeft(compact, "$€£")
	compact = strings.ReplaceAll(compact, " ", "")
	if strings.Contains(compact, ",") && strings.Contains(compact, ".") {
		compact = strings.ReplaceAll(compact, ",", "")
	} else if strings.Contains(compact, ",") {
		compact = strings.ReplaceAll(compact, ",", ".")
	}
	return strconv.ParseFloat(compact, 64)
}
