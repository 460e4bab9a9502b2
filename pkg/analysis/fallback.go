package analysis

// Top-level keys of every public payload. Success and fallback paths build
// from the same lists so consumers always see one shape per operation.
var (
	comprehensiveKeys = []string{
		"summary", "risk_assessment", "recommendations", "sales_trends",
		"stock_optimization", "low_stock_items", "out_of_stock_items",
		"performance", "confidence_score", "timestamp", "is_fallback",
	}
	weeklyReportKeys = []string{
		"report_period", "executive_summary", "key_metrics", "timestamp", "is_fallback",
	}
	monitorKeys = []string{
		"alerts", "summary", "risk_level", "timestamp", "is_fallback",
	}
	predictionKeys = []string{
		"forecast_period_days", "predictions", "sales_trends",
		"purchase_recommendations", "confidence_score", "timestamp", "is_fallback",
	}
	optimizationKeys = []string{
		"items_analyzed", "optimizations", "savings_analysis",
		"implementation_plan", "timestamp", "is_fallback",
	}
)

func emptySubAnalysis() map[string]interface{} {
	return map[string]interface{}{
		"findings":         map[string]interface{}{},
		"recommendations":  []string{},
		"confidence_score": 0.0,
		"is_fallback":      true,
	}
}

func (s *Service) fallbackComprehensive() map[string]interface{} {
	return map[string]interface{}{
		"summary": map[string]interface{}{
			"total_items":        0,
			"total_quantity":     0,
			"total_value":        0.0,
			"average_price":      0.0,
			"low_stock_count":    0,
			"out_of_stock_count": 0,
			"categories_count":   0,
			"items_analyzed":     0,
		},
		"risk_assessment": map[string]interface{}{
			"risk_level":       "unknown",
			"batches_total":    0,
			"batches_failed":   0,
			"batches_fallback": 0,
		},
		"recommendations":    []string{"Analysis temporarily unavailable. Review low stock items manually."},
		"sales_trends":       emptySubAnalysis(),
		"stock_optimization": emptySubAnalysis(),
		"low_stock_items":    []interface{}{},
		"out_of_stock_items": []interface{}{},
		"performance": map[string]interface{}{
			"execution_time_ms": 0,
			"peak_memory_bytes": 0,
		},
		"confidence_score": 0.0,
		"timestamp":        s.timestamp(),
		"is_fallback":      true,
	}
}

func (s *Service) fallbackWeeklyReport() map[string]interface{} {
	return map[string]interface{}{
		"report_period": s.reportPeriod(),
		"executive_summary": map[string]interface{}{
			"overview":        "Weekly report unavailable. Inventory data could not be analysed.",
			"insights":        []string{},
			"recommendations": []string{},
			"ai_generated":    false,
		},
		"key_metrics": map[string]interface{}{
			"total_items":           0,
			"total_quantity":        0,
			"total_inventory_value": 0.0,
			"average_price":         0.0,
			"low_stock_count":       0,
			"out_of_stock_count":    0,
			"categories_count":      0,
		},
		"timestamp":   s.timestamp(),
		"is_fallback": true,
	}
}

func (s *Service) fallbackMonitor() map[string]interface{} {
	return map[string]interface{}{
		"alerts":      []interface{}{},
		"summary":     alertSummary(nil),
		"risk_level":  "unknown",
		"timestamp":   s.timestamp(),
		"is_fallback": true,
	}
}

func (s *Service) fallbackPredictions(days int) map[string]interface{} {
	return map[string]interface{}{
		"forecast_period_days":     days,
		"predictions":              []interface{}{},
		"sales_trends":             emptySubAnalysis(),
		"purchase_recommendations": []interface{}{},
		"confidence_score":         0.0,
		"timestamp":                s.timestamp(),
		"is_fallback":              true,
	}
}

func (s *Service) fallbackOptimization() map[string]interface{} {
	return map[string]interface{}{
		"items_analyzed": 0,
		"optimizations":  []interface{}{},
		"savings_analysis": map[string]interface{}{
			"total_potential_savings":  0.0,
			"items_with_savings":       0,
			"current_inventory_cost":   0.0,
			"optimized_inventory_cost": 0.0,
		},
		"implementation_plan": implementationPlan(),
		"timestamp":           s.timestamp(),
		"is_fallback":         true,
	}
}
