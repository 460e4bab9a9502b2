package ai

import (
	"encoding/json"
	"math"
	"strings"
)

// extractItems validates data["items"] and returns it as a list of objects.
func extractItems(data map[string]interface{}) ([]map[string]interface{}, error) {
	raw, ok := data["items"]
	if !ok || raw == nil {
		return nil, &InputError{Field: "items", Message: "is required"}
	}

	var items []map[string]interface{}
	switch list := raw.(type) {
	case []map[string]interface{}:
		items = list
	case []interface{}:
		items = make([]map[string]interface{}, 0, len(list))
		for _, entry := range list {
			m, ok := entry.(map[string]interface{})
			if !ok {
				return nil, &InputError{Field: "items", Message: "every entry must be an object"}
			}
			items = append(items, m)
		}
	default:
		return nil, &InputError{Field: "items", Message: "must be a list"}
	}

	if len(items) == 0 {
		return nil, &InputError{Field: "items", Message: "must not be empty"}
	}
	for _, item := range items {
		name, _ := item["name"].(string)
		if strings.TrimSpace(name) == "" {
			return nil, &InputError{Field: "items.name", Message: "must be a non-empty string"}
		}
		if _, ok := ToFloat(item["quantity"]); !ok {
			return nil, &InputError{Field: "items.quantity", Message: "must be numeric for " + name}
		}
	}
	return items, nil
}

// ToFloat converts any JSON or Go numeric value to float64.
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ToInt is ToFloat truncated toward zero; non-numeric values yield 0.
func ToInt(v interface{}) int {
	f, _ := ToFloat(v)
	return int(f)
}

// MinStockOf reads an item's minimum stock under either key convention.
func MinStockOf(item map[string]interface{}) int {
	for _, k := range []string{"min_stock_level", "minStockLevel", "min_stock"} {
		if v, ok := item[k]; ok {
			return ToInt(v)
		}
	}
	return 0
}
