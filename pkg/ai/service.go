package ai

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"julianmorley.ca/stockpilot/inventory-api/pkg/metrics"
)

// Config controls the dispatch layer, independent of any backend.
type Config struct {
	Enabled bool
	// Timeout bounds every strategy call.
	Timeout time.Duration
}

// Service validates input, dispatches to the active Strategy and degrades to
// rule-based answers when the strategy is missing, slow or broken. Only
// malformed input is reported as an error.
type Service struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	active     string

	enabled bool
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
}

func NewService(cfg Config, log *zap.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		strategies: make(map[string]Strategy),
		enabled:    cfg.Enabled,
		timeout:    cfg.Timeout,
		log:        log.Named("ai"),
		now:        time.Now,
	}
}

// RegisterStrategy adds or replaces a strategy. The first one registered
// becomes active.
func (s *Service) RegisterStrategy(name string, strategy Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategies[name] = strategy
	if s.active == "" {
		s.active = name
	}
	s.log.Info("strategy registered", zap.String("strategy", name))
}

// SetStrategy switches the active strategy. Unknown names leave the current
// selection in place.
func (s *Service) SetStrategy(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.strategies[name]; !ok {
		s.log.Warn("unknown strategy requested", zap.String("strategy", name))
		return false
	}
	s.active = name
	return true
}

func (s *Service) ActiveStrategy() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *Service) Strategies() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.strategies))
	for name := range s.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsAvailable reports whether calls will reach a strategy at all.
func (s *Service) IsAvailable() bool {
	name, strategy := s.current()
	return name != "" && strategy != nil
}

// CheckActive asks the active strategy whether its backend is reachable.
func (s *Service) CheckActive(ctx context.Context) bool {
	_, strategy := s.current()
	if strategy == nil {
		return false
	}
	return strategy.IsAvailable(ctx)
}

func (s *Service) current() (string, Strategy) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.enabled || s.active == "" {
		return "", nil
	}
	return s.active, s.strategies[s.active]
}

// AnalyzeInventory runs analysisType over data["items"].
func (s *Service) AnalyzeInventory(ctx context.Context, data map[string]interface{}, analysisType string) (*AnalysisResult, error) {
	items, err := extractItems(data)
	if err != nil {
		return nil, err
	}

	name, strategy := s.current()
	if strategy == nil {
		metrics.AIRequestsTotal.WithLabelValues("none", analysisType, "fallback").Inc()
		return fallbackAnalysis(items, data, analysisType, "ai service unavailable", false), nil
	}

	raw, err := s.invoke(ctx, name, analysisType, func(ctx context.Context) (map[string]interface{}, error) {
		return strategy.Analyze(ctx, data, analysisType)
	})
	if err != nil {
		s.log.Warn("analysis failed, using rule-based fallback",
			zap.String("strategy", name),
			zap.String("analysis_type", analysisType),
			zap.Error(err),
		)
		return fallbackAnalysis(items, data, analysisType, err.Error(), true), nil
	}
	return resultFromMap(analysisType, raw), nil
}

// GenerateReport produces a narrative report over data["items"].
func (s *Service) GenerateReport(ctx context.Context, data map[string]interface{}, reportType string) (*Report, error) {
	items, err := extractItems(data)
	if err != nil {
		return nil, err
	}

	name, strategy := s.current()
	if strategy == nil {
		metrics.AIRequestsTotal.WithLabelValues("none", reportType, "fallback").Inc()
		return fallbackReport(items, reportType, "ai service unavailable", false, s.now()), nil
	}

	raw, err := s.invoke(ctx, name, reportType, func(ctx context.Context) (map[string]interface{}, error) {
		return strategy.Generate(ctx, data, reportType)
	})
	if err != nil {
		s.log.Warn("report generation failed, using rule-based fallback",
			zap.String("strategy", name),
			zap.String("report_type", reportType),
			zap.Error(err),
		)
		return fallbackReport(items, reportType, err.Error(), true, s.now()), nil
	}
	return reportFromMap(reportType, raw, s.now()), nil
}

// PredictStockNeeds forecasts demand for the next days.
func (s *Service) PredictStockNeeds(ctx context.Context, items []map[string]interface{}, days int) (*AnalysisResult, error) {
	return s.AnalyzeInventory(ctx, map[string]interface{}{
		"items":         items,
		"forecast_days": days,
	}, AnalysisPrediction)
}

func (s *Service) DetectAnomalies(ctx context.Context, items []map[string]interface{}) (*AnalysisResult, error) {
	return s.AnalyzeInventory(ctx, map[string]interface{}{"items": items}, AnalysisAnomaly)
}

func (s *Service) AnalyzeSalesTrends(ctx context.Context, items []map[string]interface{}, days int) (*AnalysisResult, error) {
	return s.AnalyzeInventory(ctx, map[string]interface{}{
		"items":       items,
		"period_days": days,
	}, AnalysisSalesTrends)
}

func (s *Service) OptimizeStockLevels(ctx context.Context, items []map[string]interface{}) (*AnalysisResult, error) {
	return s.AnalyzeInventory(ctx, map[string]interface{}{"items": items}, AnalysisOptimization)
}

// invoke runs fn under the service timeout. The call happens on its own
// goroutine so a strategy that ignores ctx still cannot hold the caller.
func (s *Service) invoke(ctx context.Context, name, kind string, fn func(context.Context) (map[string]interface{}, error)) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type reply struct {
		raw map[string]interface{}
		err error
	}
	done := make(chan reply, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: &AIError{Message: "strategy panicked", Cause: fmt.Errorf("%v", r)}}
			}
		}()
		raw, err := fn(ctx)
		done <- reply{raw: raw, err: err}
	}()

	var out reply
	select {
	case out = <-done:
	case <-ctx.Done():
		out = reply{err: &AIError{Message: "strategy call aborted", Cause: fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())}}
	}
	metrics.AIRequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if out.err == nil && out.raw == nil {
		out.err = &AIError{Message: "strategy returned no data"}
	}
	status := "success"
	if out.err != nil {
		status = "error"
	}
	metrics.AIRequestsTotal.WithLabelValues(name, kind, status).Inc()
	return out.raw, out.err
}
