package analysis

import (
	"context"
	"math"

	"github.com/shopspring/decimal"

	"julianmorley.ca/stockpilot/inventory-api/pkg/ai"
	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
)

// Planning placeholders until suppliers and purchasing provide real figures.
const (
	defaultLeadTimeDays = 7
	maxStockMultiplier  = 5
	unitCostRatio       = 0.6
)

func optimizationRecord(item models.Item) map[string]interface{} {
	return map[string]interface{}{
		"id":             item.ID.Hex(),
		"name":           item.Name,
		"quantity":       item.Quantity,
		"current_stock":  item.Quantity,
		"min_stock":      item.MinStockLevel,
		"max_stock":      item.MinStockLevel * maxStockMultiplier,
		"lead_time_days": defaultLeadTimeDays,
		"unit_cost":      decimal.NewFromFloat(item.Price).Mul(decimal.NewFromFloat(unitCostRatio)).Round(2).InexactFloat64(),
		"daily_usage":    math.Round(ai.EstimateDailyUsage(item.Quantity, item.MinStockLevel)*100) / 100,
		"category":       item.CategoryID,
	}
}

// OptimizeInventory proposes stock levels for up to 2000 items and prices
// the difference.
func (s *Service) OptimizeInventory(ctx context.Context) map[string]interface{} {
	return s.cached(ctx, "optimization", struct{}{}, s.computeOptimization, s.fallbackOptimization)
}

func (s *Service) computeOptimization(ctx context.Context) (map[string]interface{}, error) {
	var items []models.Item
	err := s.fetch("items", func(ctx context.Context) error {
		page, err := s.source.ListItems(ctx, models.ItemFilter{}, models.ListOptions{Limit: maxOptimizationItems})
		if err == nil {
			items = page.Items
		}
		return err
	})(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"items_analyzed":      len(items),
		"optimizations":       []map[string]interface{}{},
		"savings_analysis":    savingsAnalysis(nil, items),
		"implementation_plan": implementationPlan(),
		"timestamp":           s.timestamp(),
		"is_fallback":         false,
	}
	if len(items) == 0 {
		return payload, nil
	}

	records := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		records = append(records, optimizationRecord(item))
	}

	result, err := s.ai.OptimizeStockLevels(ctx, records)
	if err != nil {
		return nil, err
	}
	optimizations := result.FindingList("optimizations")
	if optimizations == nil {
		optimizations = []map[string]interface{}{}
	}

	payload["optimizations"] = optimizations
	payload["savings_analysis"] = savingsAnalysis(optimizations, items)
	payload["is_fallback"] = result.IsFallback
	return payload, nil
}

// savingsAnalysis prices each proposal at the item's unit price and sums the
// reductions; proposals that would raise cost contribute nothing.
func savingsAnalysis(optimizations []map[string]interface{}, items []models.Item) map[string]interface{} {
	byName := make(map[string]models.Item, len(items))
	byID := make(map[string]models.Item, len(items))
	for _, item := range items {
		byName[item.Name] = item
		byID[item.ID.Hex()] = item
	}

	savings, currentTotal, optimizedTotal := decimal.Zero, decimal.Zero, decimal.Zero
	withSavings := 0
	for _, opt := range optimizations {
		optimal, ok := ai.ToFloat(opt["optimal_stock"])
		if !ok {
			continue
		}
		id := stringOf(opt["id"])
		if id == "" {
			id = stringOf(opt["item_id"])
		}
		item, found := byID[id]
		if !found {
			item, found = byName[stringOf(opt["name"])]
		}
		if !found {
			continue
		}

		price := decimal.NewFromFloat(item.Price)
		current := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		optimized := price.Mul(decimal.NewFromFloat(optimal))
		currentTotal = currentTotal.Add(current)
		optimizedTotal = optimizedTotal.Add(optimized)

		if optimized.LessThan(current) {
			savings = savings.Add(current.Sub(optimized))
			withSavings++
		}
	}

	return map[string]interface{}{
		"total_potential_savings":  savings.Round(2).InexactFloat64(),
		"items_with_savings":       withSavings,
		"current_inventory_cost":   currentTotal.Round(2).InexactFloat64(),
		"optimized_inventory_cost": optimizedTotal.Round(2).InexactFloat64(),
	}
}

func implementationPlan() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"phase":    1,
			"name":     "Immediate adjustments",
			"duration": "1-2 weeks",
			"actions": []string{
				"Reorder items below their minimum stock level",
				"Pause purchasing for overstocked items",
			},
		},
		{
			"phase":    2,
			"name":     "Reorder point tuning",
			"duration": "3-4 weeks",
			"actions": []string{
				"Apply the proposed optimal stock levels",
				"Review supplier lead times",
			},
		},
		{
			"phase":    3,
			"name":     "Continuous monitoring",
			"duration": "ongoing",
			"actions": []string{
				"Track stock movements against forecasts",
				"Re-run optimization monthly",
			},
		},
	}
}

func stringOf(v interface{}) string {
	s, _ := v.(string)
	return s
}
