package ai

import (
	"fmt"
	"math"
	"time"
)

const (
	FallbackConfidence = 0.7
	minRestockUnits    = 10
	defaultLeadTime    = 7
	defaultForecast    = 30
)

// RestockUnits is the rule-based reorder amount: twice the minimum minus
// what is on hand, never less than minRestockUnits.
func RestockUnits(quantity, minStock int) int {
	n := 2*minStock - quantity
	if n < minRestockUnits {
		return minRestockUnits
	}
	return n
}

// EstimateDailyUsage approximates consumption when there is no sales history:
// items at or below minimum are assumed to drain their minimum in a week,
// the rest their current stock in a month.
func EstimateDailyUsage(quantity, minStock int) float64 {
	var usage float64
	if quantity <= minStock {
		usage = float64(minStock) / 7
	} else {
		usage = float64(quantity) / 30
	}
	return math.Max(usage, 0.1)
}

type stockLine struct {
	name     string
	quantity int
	minStock int
	raw      map[string]interface{}
}

func stockLines(items []map[string]interface{}) []stockLine {
	lines := make([]stockLine, 0, len(items))
	for _, item := range items {
		name, _ := item["name"].(string)
		lines = append(lines, stockLine{
			name:     name,
			quantity: ToInt(item["quantity"]),
			minStock: MinStockOf(item),
			raw:      item,
		})
	}
	return lines
}

// ruleFindings is shared by the analysis and report fallbacks.
func ruleFindings(lines []stockLine) (findings map[string]interface{}, recommendations []string) {
	critical := []interface{}{}
	outOfStock := []interface{}{}
	recommendations = []string{}

	for _, l := range lines {
		if l.quantity <= l.minStock {
			critical = append(critical, l.name)
			recommendations = append(recommendations,
				fmt.Sprintf("Restock %s: %d units needed", l.name, RestockUnits(l.quantity, l.minStock)))
		}
		if l.quantity == 0 {
			outOfStock = append(outOfStock, l.name)
		}
	}

	risk := "low"
	if len(critical) > 0 {
		risk = "high"
	}
	findings = map[string]interface{}{
		"risk_level":         risk,
		"total_items":        len(lines),
		"critical_items":     critical,
		"critical_count":     len(critical),
		"out_of_stock_items": outOfStock,
		"out_of_stock_count": len(outOfStock),
	}
	return findings, recommendations
}

// fallbackAnalysis is the deterministic answer used whenever no strategy can
// respond. Its output depends only on the items and analysisType.
func fallbackAnalysis(items []map[string]interface{}, data map[string]interface{}, analysisType, reason string, failed bool) *AnalysisResult {
	lines := stockLines(items)
	findings, recommendations := ruleFindings(lines)

	switch analysisType {
	case AnalysisPrediction:
		days := ToInt(data["forecast_days"])
		if days <= 0 {
			days = defaultForecast
		}
		findings["forecast_days"] = days
		findings["predictions"] = fallbackPredictions(lines, days)
	case AnalysisOptimization:
		findings["optimizations"] = fallbackOptimizations(lines)
	case AnalysisSalesTrends:
		findings["trend"] = "stable"
		findings["growth_rate"] = 0.0
		if days := ToInt(data["period_days"]); days > 0 {
			findings["period_days"] = days
		}
	case AnalysisAnomaly:
		findings["anomalies"] = []interface{}{}
	}

	result := &AnalysisResult{
		AnalysisType:    analysisType,
		Findings:        findings,
		Recommendations: recommendations,
		ConfidenceScore: FallbackConfidence,
		SupportingData: map[string]interface{}{
			"source":          "rule_based",
			"fallback_reason": reason,
		},
		IsFallback: true,
	}
	if failed {
		result.ErrorMessage = reason
	}
	return result
}

func fallbackPredictions(lines []stockLine, days int) []interface{} {
	out := make([]interface{}, 0, len(lines))
	for _, l := range lines {
		daily := EstimateDailyUsage(l.quantity, l.minStock)
		demand := int(math.Ceil(daily * float64(days)))
		order := demand + l.minStock - l.quantity
		if order < 0 {
			order = 0
		}
		prediction := map[string]interface{}{
			"name":                l.name,
			"current_stock":       l.quantity,
			"daily_usage":         math.Round(daily*100) / 100,
			"predicted_demand":    demand,
			"days_until_stockout": int(float64(l.quantity) / daily),
			"recommended_order":   order,
		}
		if id, ok := l.raw["id"]; ok {
			prediction["item_id"] = id
		}
		if supplier, ok := l.raw["supplier_id"]; ok {
			prediction["supplier_id"] = supplier
		}
		out = append(out, prediction)
	}
	return out
}

func fallbackOptimizations(lines []stockLine) []interface{} {
	out := make([]interface{}, 0, len(lines))
	for _, l := range lines {
		daily, ok := ToFloat(l.raw["daily_usage"])
		if !ok || daily <= 0 {
			daily = EstimateDailyUsage(l.quantity, l.minStock)
		}
		lead := ToInt(l.raw["lead_time_days"])
		if lead <= 0 {
			lead = defaultLeadTime
		}
		optimal := int(math.Ceil(daily*float64(lead))) + l.minStock
		out = append(out, map[string]interface{}{
			"name":          l.name,
			"current_stock": l.quantity,
			"optimal_stock": optimal,
			"reorder_point": l.minStock,
		})
	}
	return out
}

func fallbackReport(items []map[string]interface{}, reportType, reason string, failed bool, now time.Time) *Report {
	lines := stockLines(items)
	findings, recommendations := ruleFindings(lines)

	report := &Report{
		ReportType: reportType,
		Summary: fmt.Sprintf("Rule-based %s for %d items: %d at or below minimum stock, %d out of stock.",
			reportType, len(lines), findings["critical_count"], findings["out_of_stock_count"]),
		Insights: []string{
			fmt.Sprintf("%d items analysed", len(lines)),
			fmt.Sprintf("%d items at or below minimum stock", findings["critical_count"]),
			fmt.Sprintf("%d items out of stock", findings["out_of_stock_count"]),
		},
		Recommendations: recommendations,
		Sections:        map[string]interface{}{"findings": findings},
		ConfidenceScore: FallbackConfidence,
		IsFallback:      true,
		GeneratedAt:     now,
	}
	if failed {
		report.ErrorMessage = reason
	}
	return report
}
