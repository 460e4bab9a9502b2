package ai

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Analysis and report kinds understood by every strategy.
const (
	AnalysisGeneral      = "inventory_analysis"
	AnalysisPrediction   = "stock_prediction"
	AnalysisAnomaly      = "anomaly_detection"
	AnalysisSalesTrends  = "sales_trends"
	AnalysisOptimization = "stock_optimization"

	ReportWeekly    = "weekly_summary"
	ReportCritical  = "critical_items"
	ReportInventory = "inventory_report"
)

// Strategy is a pluggable analysis backend. Replies are loosely structured
// maps; the Service lifts them into AnalysisResult / Report.
type Strategy interface {
	Analyze(ctx context.Context, data map[string]interface{}, analysisType string) (map[string]interface{}, error)
	Generate(ctx context.Context, data map[string]interface{}, reportType string) (map[string]interface{}, error)
	IsAvailable(ctx context.Context) bool
}

// MockStrategy returns canned replies. Nil funcs fall back to a low-risk,
// high-confidence answer so tests only override what they care about.
type MockStrategy struct {
	AnalyzeFunc  func(ctx context.Context, data map[string]interface{}, analysisType string) (map[string]interface{}, error)
	GenerateFunc func(ctx context.Context, data map[string]interface{}, reportType string) (map[string]interface{}, error)
	Unavailable  bool

	analyzeCalls  atomic.Int64
	generateCalls atomic.Int64

	mu    sync.Mutex
	types []string
}

func (m *MockStrategy) Analyze(ctx context.Context, data map[string]interface{}, analysisType string) (map[string]interface{}, error) {
	m.analyzeCalls.Add(1)
	m.mu.Lock()
	m.types = append(m.types, analysisType)
	m.mu.Unlock()

	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, data, analysisType)
	}
	return map[string]interface{}{
		"risk_level":      "low",
		"confidence":      0.9,
		"recommendations": []interface{}{"Maintain current stock levels"},
	}, nil
}

func (m *MockStrategy) Generate(ctx context.Context, data map[string]interface{}, reportType string) (map[string]interface{}, error) {
	m.generateCalls.Add(1)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, data, reportType)
	}
	return map[string]interface{}{
		"summary":         "Inventory is healthy",
		"insights":        []interface{}{"No items require attention"},
		"recommendations": []interface{}{"Review again next week"},
		"confidence":      0.9,
	}, nil
}

func (m *MockStrategy) IsAvailable(context.Context) bool { return !m.Unavailable }

func (m *MockStrategy) AnalyzeCalls() int64  { return m.analyzeCalls.Load() }
func (m *MockStrategy) GenerateCalls() int64 { return m.generateCalls.Load() }

// AnalysisTypes lists every analysisType seen, in call order.
func (m *MockStrategy) AnalysisTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.types...)
}

// FailingStrategy errors on every call.
type FailingStrategy struct {
	Err error
}

func (f FailingStrategy) err() error {
	if f.Err != nil {
		return f.Err
	}
	return errors.New("strategy failure")
}

func (f FailingStrategy) Analyze(context.Context, map[string]interface{}, string) (map[string]interface{}, error) {
	return nil, f.err()
}

func (f FailingStrategy) Generate(context.Context, map[string]interface{}, string) (map[string]interface{}, error) {
	return nil, f.err()
}

func (f FailingStrategy) IsAvailable(context.Context) bool { return false }
