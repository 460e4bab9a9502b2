package analysis

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"julianmorley.ca/stockpilot/inventory-api/pkg/ai"
	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
)

const (
	DefaultForecastDays = 30
	unassignedSupplier  = "unassigned"
)

// PredictInventoryNeeds forecasts demand for the next forecastDays (default 30)
// and turns it into purchase recommendations per supplier.
func (s *Service) PredictInventoryNeeds(ctx context.Context, forecastDays int) map[string]interface{} {
	if forecastDays <= 0 {
		forecastDays = DefaultForecastDays
	}
	params := map[string]int{"forecast_days": forecastDays}

	return s.cached(ctx, "predictions", params, func(ctx context.Context) (map[string]interface{}, error) {
		return s.computePredictions(ctx, forecastDays)
	}, func() map[string]interface{} {
		return s.fallbackPredictions(forecastDays)
	})
}

func (s *Service) computePredictions(ctx context.Context, days int) (map[string]interface{}, error) {
	var items []models.Item
	err := s.fetch("items", func(ctx context.Context) error {
		page, err := s.source.ListItems(ctx, models.ItemFilter{}, models.ListOptions{Limit: maxAnalysisItems})
		if err == nil {
			items = page.Items
		}
		return err
	})(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"forecast_period_days":     days,
		"predictions":              []map[string]interface{}{},
		"sales_trends":             emptySubAnalysis(),
		"purchase_recommendations": []map[string]interface{}{},
		"confidence_score":         ai.FallbackConfidence,
		"timestamp":                s.timestamp(),
		"is_fallback":              false,
	}
	if len(items) == 0 {
		return payload, nil
	}

	payloads := itemPayloads(items)
	var prediction, trends *ai.AnalysisResult
	err = s.run(ctx,
		func(ctx context.Context) (err error) {
			prediction, err = s.ai.PredictStockNeeds(ctx, payloads, days)
			return err
		},
		func(ctx context.Context) (err error) {
			trends, err = s.ai.AnalyzeSalesTrends(ctx, stratifiedSample(payloads, s.cfg.SampleSize), days)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	predictions := prediction.FindingList("predictions")
	if predictions == nil {
		predictions = []map[string]interface{}{}
	}
	confidence := prediction.ConfidenceScore
	if confidence <= 0 {
		confidence = ai.FallbackConfidence
	}

	payload["predictions"] = predictions
	payload["sales_trends"] = subAnalysis(trends)
	payload["purchase_recommendations"] = purchaseRecommendations(predictions, items)
	payload["confidence_score"] = confidence
	payload["is_fallback"] = prediction.IsFallback
	return payload, nil
}

// purchaseRecommendations groups predicted orders by supplier. Predictions are
// matched to items by id first, then by name.
func purchaseRecommendations(predictions []map[string]interface{}, items []models.Item) []map[string]interface{} {
	byID := make(map[string]models.Item, len(items))
	byName := make(map[string]models.Item, len(items))
	for _, item := range items {
		byID[item.ID.Hex()] = item
		byName[item.Name] = item
	}

	type group struct {
		lines []map[string]interface{}
		units int
		cost  decimal.Decimal
	}
	groups := make(map[string]*group)

	for _, p := range predictions {
		units := ai.ToInt(p["recommended_order"])
		if units <= 0 {
			continue
		}

		var item models.Item
		var found bool
		if id, ok := p["item_id"].(string); ok {
			item, found = byID[id]
		}
		if !found {
			if name, ok := p["name"].(string); ok {
				item, found = byName[name]
			}
		}

		supplier, _ := p["supplier_id"].(string)
		if supplier == "" && found {
			supplier = item.SupplierID
		}
		if supplier == "" {
			supplier = unassignedSupplier
		}

		line := map[string]interface{}{
			"name":     p["name"],
			"quantity": units,
		}
		cost := decimal.Zero
		if found {
			line["item_id"] = item.ID.Hex()
			line["sku"] = item.SKU
			cost = decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(units)))
		}
		line["estimated_cost"] = cost.Round(2).InexactFloat64()

		g, ok := groups[supplier]
		if !ok {
			g = &group{cost: decimal.Zero}
			groups[supplier] = g
		}
		g.lines = append(g.lines, line)
		g.units += units
		g.cost = g.cost.Add(cost)
	}

	suppliers := make([]string, 0, len(groups))
	for supplier := range groups {
		suppliers = append(suppliers, supplier)
	}
	sort.Strings(suppliers)

	out := make([]map[string]interface{}, 0, len(suppliers))
	for _, supplier := range suppliers {
		g := groups[supplier]
		out = append(out, map[string]interface{}{
			"supplier_id":    supplier,
			"items":          g.lines,
			"total_units":    g.units,
			"estimated_cost": g.cost.Round(2).InexactFloat64(),
		})
	}
	return out
}
