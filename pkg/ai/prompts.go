package ai

import (
	"encoding/json"
	"fmt"
)

// System prompts for the analysis and report kinds
const (
	AnalysisSystemPrompt = `You are an inventory management specialist for a retail and warehouse operation.
You receive inventory item data as JSON and answer ONLY with a single JSON object, no prose.
Always include:
- "risk_level": one of "low", "medium", "high", "critical"
- "confidence": a number between 0 and 1
- "recommendations": a list of short, actionable strings
Prefix a recommendation with its priority word (critical, high, medium, low) when it is urgent.`

	ReportSystemPrompt = `You are an operations analyst writing inventory reports for store and warehouse managers.
You receive inventory data as JSON and answer ONLY with a single JSON object containing:
- "summary": 2-3 sentences in clear, executive-level language
- "insights": a list of observations
- "recommendations": a list of actions
- "confidence": a number between 0 and 1`
)

var analysisInstructions = map[string]string{
	AnalysisGeneral: `Assess overall stock health. Add "critical_items" (names at or below minimum stock).`,
	AnalysisPrediction: `Forecast demand for the next %v days. Add "predictions": a list of objects with
"name", "item_id", "current_stock", "predicted_demand", "recommended_order" and "supplier_id" when known.`,
	AnalysisAnomaly: `Look for unusual stock levels or pricing. Add "anomalies": a list of objects with
"name", "type" and "description". Use an empty list when nothing stands out.`,
	AnalysisSalesTrends: `Infer sales trends over the last %v days. Add "trend" (increasing, stable, decreasing),
"growth_rate" (fraction) and "seasonal_factors" (list of strings).`,
	AnalysisOptimization: `Propose optimal stock levels using daily_usage, lead_time_days and unit_cost.
Add "optimizations": a list of objects with "name", "current_stock", "optimal_stock" and "reorder_point".`,
}

func formatAnalysisPrompt(data map[string]interface{}, analysisType string) string {
	jsonData, _ := json.MarshalIndent(data, "", "  ")

	instruction, ok := analysisInstructions[analysisType]
	if !ok {
		instruction = analysisInstructions[AnalysisGeneral]
	}
	switch analysisType {
	case AnalysisPrediction:
		instruction = fmt.Sprintf(instruction, orDefault(data["forecast_days"], defaultForecast))
	case AnalysisSalesTrends:
		instruction = fmt.Sprintf(instruction, orDefault(data["period_days"], defaultForecast))
	}

	return fmt.Sprintf(`Run a %s analysis on the following inventory data:

%s

%s`, analysisType, string(jsonData), instruction)
}

func formatReportPrompt(data map[string]interface{}, reportType string) string {
	jsonData, _ := json.MarshalIndent(data, "", "  ")

	focus := `1. Overall stock health
2. Items that need immediate attention
3. Restocking priorities
4. Cost reduction opportunities`
	if reportType == ReportCritical {
		focus = `1. Which items will run out first
2. Suppliers to contact today
3. Whether any item can be substituted`
	}

	return fmt.Sprintf(`Write a %s report for the following inventory data:

%s

Please cover:
%s`, reportType, string(jsonData), focus)
}

func orDefault(v interface{}, def int) int {
	if n := ToInt(v); n > 0 {
		return n
	}
	return def
}
