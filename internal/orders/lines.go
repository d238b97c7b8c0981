package orders

import (
	"errors"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/HenriqueProj/Web-App-BD/internal/platform/validate"
)

// QuantityFieldPrefix prefixes the per-product quantity inputs of the order form.
const QuantityFieldPrefix = "qty_"

// MaxQuantity is the largest quantity a single order line can hold.
const MaxQuantity = math.MaxInt32

// NormalizeLines drops non-positive quantities and merges repeated SKUs, keeping the
// order in which each SKU first appeared. Merged sums saturate at math.MaxInt instead of
// wrapping, so an oversized line still fails the MaxQuantity check.
func NormalizeLines(lines []LineItem) []LineItem {
	index := make(map[string]int, len(lines))
	out := make([]LineItem, 0, len(lines))
	for _, line := range lines {
		sku := strings.TrimSpace(line.SKU)
		if sku == "" || line.Quantity <= 0 {
			continue
		}
		if i, ok := index[sku]; ok {
			out[i].Quantity = addSaturating(out[i].Quantity, line.Quantity)
			continue
		}
		index[sku] = len(out)
		out = append(out, LineItem{SKU: sku, Quantity: line.Quantity})
	}
	return out
}

func addSaturating(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// ParseQuantities reads qty_<SKU> form fields. Values that are not plain digits, or
// are zero, are ignored. Digit strings too long for an int come back as math.MaxInt so
// the order is rejected as too large rather than silently shortened. Lines come back
// sorted by SKU.
func ParseQuantities(form url.Values) []LineItem {
	var lines []LineItem
	for key, values := range form {
		sku, ok := strings.CutPrefix(key, QuantityFieldPrefix)
		if !ok || sku == "" {
			continue
		}
		for _, raw := range values {
			raw = strings.TrimSpace(raw)
			if !validate.IsDigits(raw) {
				continue
			}
			qty, err := strconv.Atoi(raw)
			if errors.Is(err, strconv.ErrRange) {
				qty, err = math.MaxInt, nil
			}
			if err != nil || qty == 0 {
				continue
			}
			lines = append(lines, LineItem{SKU: sku, Quantity: qty})
		}
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].SKU < lines[j].SKU })
	return lines
}
