package analysis

import (
	"sort"
	"strings"

	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
)

const (
	DefaultBatchSize  = 50
	DefaultSampleSize = 500
)

var severity = map[string]int{
	"low":      0,
	"medium":   1,
	"high":     2,
	"critical": 3,
}

// mostSevere returns whichever of a and b ranks higher (critical > high > medium > low).
func mostSevere(a, b string) string {
	if severity[b] > severity[a] {
		return b
	}
	return a
}

// riskFromRecommendations grades one batch by the priority words found in its
// recommendation text: any "critical" wins outright, more than two "high" or
// more than five "medium" lift the level, anything else is low.
func riskFromRecommendations(recommendations []string) string {
	high, medium := 0, 0
	for _, r := range recommendations {
		text := strings.ToLower(r)
		if strings.Contains(text, "critical") {
			return "critical"
		}
		if strings.Contains(text, "high") {
			high++
		}
		if strings.Contains(text, "medium") {
			medium++
		}
	}
	switch {
	case high > 2:
		return "high"
	case medium > 5:
		return "medium"
	}
	return "low"
}

func chunk(items []map[string]interface{}, size int) [][]map[string]interface{} {
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([][]map[string]interface{}, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}

func categoryOf(item map[string]interface{}) string {
	if c, ok := item["category_id"].(string); ok && c != "" {
		return c
	}
	return "uncategorized"
}

// stratifiedSample reduces items to budget while keeping each category's share.
// Quotas use largest-remainder rounding and every category keeps at least one
// item when the budget allows. Items are taken at an even stride so a quota
// spans the whole group rather than its head.
func stratifiedSample(items []map[string]interface{}, budget int) []map[string]interface{} {
	if budget <= 0 || len(items) <= budget {
		return items
	}

	var order []string
	groups := make(map[string][]map[string]interface{})
	for _, item := range items {
		c := categoryOf(item)
		if _, seen := groups[c]; !seen {
			order = append(order, c)
		}
		groups[c] = append(groups[c], item)
	}

	type share struct {
		category  string
		quota     int
		remainder float64
	}
	shares := make([]share, len(order))
	allocated := 0
	for i, c := range order {
		exact := float64(budget) * float64(len(groups[c])) / float64(len(items))
		q := int(exact)
		if q == 0 && len(order) <= budget {
			q = 1
		}
		shares[i] = share{category: c, quota: q, remainder: exact - float64(int(exact))}
		allocated += q
	}

	byRemainder := make([]int, len(shares))
	for i := range byRemainder {
		byRemainder[i] = i
	}
	sort.SliceStable(byRemainder, func(a, b int) bool {
		return shares[byRemainder[a]].remainder > shares[byRemainder[b]].remainder
	})
	for i := 0; allocated < budget && i < len(byRemainder); i++ {
		s := &shares[byRemainder[i]]
		if s.quota < len(groups[s.category]) {
			s.quota++
			allocated++
		}
	}

	// guaranteed minimums can overshoot when there are many tiny categories
	for allocated > budget {
		largest := 0
		for i := range shares {
			if shares[i].quota > shares[largest].quota {
				largest = i
			}
		}
		shares[largest].quota--
		allocated--
	}

	sample := make([]map[string]interface{}, 0, budget)
	for _, s := range shares {
		group := groups[s.category]
		for i := 0; i < s.quota; i++ {
			sample = append(sample, group[i*len(group)/s.quota])
		}
	}
	return sample
}

func itemPayload(item models.Item) map[string]interface{} {
	return map[string]interface{}{
		"id":              item.ID.Hex(),
		"sku":             item.SKU,
		"name":            item.Name,
		"quantity":        item.Quantity,
		"min_stock_level": item.MinStockLevel,
		"price":           item.Price,
		"category_id":     item.CategoryID,
		"supplier_id":     item.SupplierID,
	}
}

func itemPayloads(items []models.Item) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, itemPayload(item))
	}
	return out
}

func itemBriefs(items []models.Item) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]interface{}{
			"id":              item.ID.Hex(),
			"sku":             item.SKU,
			"name":            item.Name,
			"quantity":        item.Quantity,
			"min_stock_level": item.MinStockLevel,
		})
	}
	return out
}
