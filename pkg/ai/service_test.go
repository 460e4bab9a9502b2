package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lowStockData() map[string]interface{} {
	return map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"name": "A", "quantity": 2, "minStockLevel": 10},
		},
	}
}

func TestAnalyzeInventoryFallbackIsDeterministic(t *testing.T) {
	svc := NewService(Config{Enabled: false}, nil)
	assert.False(t, svc.IsAvailable())

	first, err := svc.AnalyzeInventory(context.Background(), lowStockData(), AnalysisGeneral)
	require.NoError(t, err)
	second, err := svc.AnalyzeInventory(context.Background(), lowStockData(), AnalysisGeneral)
	require.NoError(t, err)

	assert.True(t, first.IsFallback)
	assert.Equal(t, "high", first.RiskLevel())
	assert.Contains(t, first.Recommendations, "Restock A: 18 units needed")
	assert.Equal(t, FallbackConfidence, first.ConfidenceScore)
	assert.True(t, first.IsValid())
	assert.Equal(t, first, second)
}

func TestFallbackRestockFloor(t *testing.T) {
	svc := NewService(Config{Enabled: false}, nil)
	data := map[string]interface{}{
		"items": []map[string]interface{}{
			{"name": "Bolt", "quantity": 9, "min_stock_level": 9},
			{"name": "Nut", "quantity": 0, "min_stock_level": 0},
			{"name": "Washer", "quantity": 50, "min_stock_level": 5},
		},
	}

	result, err := svc.AnalyzeInventory(context.Background(), data, AnalysisGeneral)
	require.NoError(t, err)

	assert.Equal(t, []string{"Restock Bolt: 10 units needed", "Restock Nut: 10 units needed"}, result.Recommendations)
	assert.Equal(t, []interface{}{"Nut"}, result.Findings["out_of_stock_items"])
	assert.Equal(t, 2, result.Findings["critical_count"])
}

func TestAnalyzeInventoryRejectsMalformedInput(t *testing.T) {
	svc := NewService(Config{Enabled: true}, nil)
	svc.RegisterStrategy("mock", &MockStrategy{})

	cases := map[string]map[string]interface{}{
		"no items":       {"invalid": "data"},
		"empty items":    {"items": []interface{}{}},
		"not a list":     {"items": "widgets"},
		"missing name":   {"items": []interface{}{map[string]interface{}{"quantity": 1}}},
		"string qty":     {"items": []interface{}{map[string]interface{}{"name": "A", "quantity": "many"}}},
		"non-object row": {"items": []interface{}{42}},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.AnalyzeInventory(context.Background(), data, AnalysisGeneral)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := svc.AnalyzeSalesTrends(context.Background(), nil, 30)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.GenerateReport(context.Background(), map[string]interface{}{}, ReportWeekly)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStrategyRegistry(t *testing.T) {
	svc := NewService(Config{Enabled: true}, nil)
	assert.False(t, svc.IsAvailable())

	svc.RegisterStrategy("mock", &MockStrategy{})
	svc.RegisterStrategy("failing", FailingStrategy{})

	assert.Equal(t, "mock", svc.ActiveStrategy())
	assert.Equal(t, []string{"failing", "mock"}, svc.Strategies())
	assert.True(t, svc.IsAvailable())

	assert.False(t, svc.SetStrategy("nonexistent"))
	assert.Equal(t, "mock", svc.ActiveStrategy())

	assert.True(t, svc.SetStrategy("failing"))
	assert.Equal(t, "failing", svc.ActiveStrategy())
}

func TestStrategyFailureDegradesToFallback(t *testing.T) {
	svc := NewService(Config{Enabled: true}, nil)
	svc.RegisterStrategy("failing", FailingStrategy{Err: errors.New("backend down")})

	result, err := svc.AnalyzeInventory(context.Background(), lowStockData(), AnalysisGeneral)
	require.NoError(t, err)
	assert.True(t, result.IsFallback)
	assert.Equal(t, "high", result.RiskLevel())
	assert.Contains(t, result.ErrorMessage, "backend down")

	report, err := svc.GenerateReport(context.Background(), lowStockData(), ReportWeekly)
	require.NoError(t, err)
	assert.True(t, report.IsFallback)
	assert.NotEmpty(t, report.Summary)
	assert.Contains(t, report.Recommendations, "Restock A: 18 units needed")
}

func TestStrategyTimeoutAndPanic(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		svc := NewService(Config{Enabled: true, Timeout: 20 * time.Millisecond}, nil)
		svc.RegisterStrategy("slow", &MockStrategy{
			AnalyzeFunc: func(context.Context, map[string]interface{}, string) (map[string]interface{}, error) {
				time.Sleep(time.Second) // ignores ctx on purpose
				return map[string]interface{}{"risk_level": "low"}, nil
			},
		})

		start := time.Now()
		result, err := svc.AnalyzeInventory(context.Background(), lowStockData(), AnalysisGeneral)
		require.NoError(t, err)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
		assert.True(t, result.IsFallback)
	})

	t.Run("panic", func(t *testing.T) {
		svc := NewService(Config{Enabled: true}, nil)
		svc.RegisterStrategy("broken", &MockStrategy{
			AnalyzeFunc: func(context.Context, map[string]interface{}, string) (map[string]interface{}, error) {
				panic("boom")
			},
		})

		result, err := svc.AnalyzeInventory(context.Background(), lowStockData(), AnalysisGeneral)
		require.NoError(t, err)
		assert.True(t, result.IsFallback)
		assert.Contains(t, result.ErrorMessage, "boom")
	})
}

func TestStrategyReplyIsLifted(t *testing.T) {
	mock := &MockStrategy{
		AnalyzeFunc: func(_ context.Context, _ map[string]interface{}, _ string) (map[string]interface{}, error) {
			return map[string]interface{}{
				"riskLevel":  "MEDIUM",
				"confidence": 1.4,
				"recommendations": []interface{}{
					"Reorder bolts",
					map[string]interface{}{"action": "Audit nuts", "priority": "high"},
				},
				"predictions": []interface{}{map[string]interface{}{"name": "A", "predicted_demand": 12}},
			}, nil
		},
	}
	svc := NewService(Config{Enabled: true}, nil)
	svc.RegisterStrategy("mock", mock)

	result, err := svc.PredictStockNeeds(context.Background(), []map[string]interface{}{{"name": "A", "quantity": 2}}, 14)
	require.NoError(t, err)

	assert.False(t, result.IsFallback)
	assert.Equal(t, "medium", result.RiskLevel())
	assert.Equal(t, 1.0, result.ConfidenceScore)
	assert.Equal(t, []string{"Reorder bolts", "[high] Audit nuts"}, result.Recommendations)
	assert.Len(t, result.FindingList("predictions"), 1)
	assert.Equal(t, []string{AnalysisPrediction}, mock.AnalysisTypes())
}

func TestTypedOperationsFallbackShape(t *testing.T) {
	svc := NewService(Config{Enabled: false}, nil)
	items := []map[string]interface{}{
		{"name": "A", "quantity": 3, "min_stock_level": 7, "daily_usage": 1.0, "lead_time_days": 7},
	}
	ctx := context.Background()

	prediction, err := svc.PredictStockNeeds(ctx, items, 30)
	require.NoError(t, err)
	preds := prediction.FindingList("predictions")
	require.Len(t, preds, 1)
	assert.Equal(t, 30, prediction.Findings["forecast_days"])

	optimized, err := svc.OptimizeStockLevels(ctx, items)
	require.NoError(t, err)
	opts := optimized.FindingList("optimizations")
	require.Len(t, opts, 1)
	assert.Equal(t, 14, opts[0]["optimal_stock"])

	trends, err := svc.AnalyzeSalesTrends(ctx, items, 90)
	require.NoError(t, err)
	assert.Equal(t, "stable", trends.Findings["trend"])

	anomalies, err := svc.DetectAnomalies(ctx, items)
	require.NoError(t, err)
	assert.Empty(t, anomalies.Findings["anomalies"])
}

func TestRestockUnitsAndUsage(t *testing.T) {
	assert.Equal(t, 18, RestockUnits(2, 10))
	assert.Equal(t, 10, RestockUnits(5, 5))
	assert.InDelta(t, 10.0/7, EstimateDailyUsage(4, 10), 1e-9)
	assert.InDelta(t, 2.0, EstimateDailyUsage(60, 10), 1e-9)
	assert.Equal(t, 0.1, EstimateDailyUsage(0, 0))
}
