package dataset

import (
	"strings"
	"unicode"
)

// Canonical column names.
const (
	ColCompany  = "Company"
	ColSaleDate = "Sale Date"
	ColItem     = "Item"
	ColQty      = "Qty"
)

// RequiredColumns lists the canonical schema in reporting order.
var RequiredColumns = []string{ColCompany, ColSaleDate, ColItem, ColQty}

// columnSynonyms maps lower-cased, trimmed header names to canonical names.
var columnSynonyms = map[string]string{
	"company":      ColCompany,
	"company name": ColCompany,
	"companyname":  ColCompany,
	"company_name": ColCompany,

	"sale date": ColSaleDate,
	"date":      ColSaleDate,
	"saledate":  ColSaleDate,
	"sale_date": ColSaleDate,

	"qty":      ColQty,
	"quantity": ColQty,
	"amount":   ColQty,

	"item":         ColItem,
	"item name":    ColItem,
	"itemname":     ColItem,
	"item_name":    ColItem,
	"product":      ColItem,
	"product name": ColItem,
}

// CanonicalColumn maps a raw header to its canonical name. Headers outside the synonym table are
// returned in title case.
func CanonicalColumn(header string) string {
	key := strings.ToLower(strings.TrimSpace(header))
	if canonical, ok := columnSynonyms[key]; ok {
		return canonical
	}
	return titleCase(key)
}

// resolveColumns returns canonical name -> column index, first occurrence wins.
func resolveColumns(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		name := CanonicalColumn(h)
		if _, ok := idx[name]; ok {
			continue
		}
		idx[name] = i
	}
	return idx
}

func titleCase(s string) string {
	out := []rune(s)
	start := true
	for i, r := range out {
		if unicode.IsLetter(r) {
			if start {
				out[i] = unicode.ToUpper(r)
			}
			start = false
			continue
		}
		start = true
	}
	return string(out)
}
