package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"julianmorley.ca/stockpilot/inventory-api/pkg/ai"
	"julianmorley.ca/stockpilot/inventory-api/pkg/metrics"
	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
)

const (
	maxAnalysisItems     = 1000
	maxOptimizationItems = 2000
	batchConcurrency     = 4
)

// InventorySource is the read side of the inventory store.
type InventorySource interface {
	ListItems(ctx context.Context, filter models.ItemFilter, opts models.ListOptions) (*models.ItemPage, error)
	GetInventoryStats(ctx context.Context) (*models.InventoryStats, error)
	GetLowStockItems(ctx context.Context, threshold int) ([]models.Item, error)
	GetOutOfStockItems(ctx context.Context) ([]models.Item, error)
}

// Analyzer is the AI dispatch surface the engine relies on; *ai.Service
// implements it.
type Analyzer interface {
	IsAvailable() bool
	AnalyzeInventory(ctx context.Context, data map[string]interface{}, analysisType string) (*ai.AnalysisResult, error)
	GenerateReport(ctx context.Context, data map[string]interface{}, reportType string) (*ai.Report, error)
	PredictStockNeeds(ctx context.Context, items []map[string]interface{}, days int) (*ai.AnalysisResult, error)
	AnalyzeSalesTrends(ctx context.Context, items []map[string]interface{}, days int) (*ai.AnalysisResult, error)
	OptimizeStockLevels(ctx context.Context, items []map[string]interface{}) (*ai.AnalysisResult, error)
}

type Config struct {
	CacheTTL        time.Duration
	CacheMaxEntries int
	// Parallel fans fetches and AI batches out over goroutines; false runs
	// them one after another with identical results.
	Parallel     bool
	FetchTimeout time.Duration
	BatchSize    int
	SampleSize   int
}

// Service composes inventory reads and AI calls into cached, always
// well-formed analysis payloads.
type Service struct {
	source InventorySource
	ai     Analyzer
	cache  *Cache
	group  singleflight.Group
	cfg    Config
	log    *zap.Logger
	now    func() time.Time
}

func NewService(source InventorySource, analyzer Analyzer, cfg Config, log *zap.Logger) *Service {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultSampleSize
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		source: source,
		ai:     analyzer,
		cache:  NewCache(cfg.CacheTTL, cfg.CacheMaxEntries),
		cfg:    cfg,
		log:    log.Named("analysis"),
		now:    time.Now,
	}
	s.cache.now = func() time.Time { return s.now() }
	return s
}

func (s *Service) ClearCache() int {
	n := s.cache.Clear()
	s.log.Info("analysis cache cleared", zap.Int("entries", n))
	return n
}

func (s *Service) CacheStats() CacheStats {
	return s.cache.Stats()
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// cached serves operation from the cache or computes it once per key. Compute
// errors and panics produce the fallback payload. Payloads flagged
// is_fallback are returned but never cached.
func (s *Service) cached(ctx context.Context, operation string, params interface{},
	compute func(context.Context) (map[string]interface{}, error),
	fallback func() map[string]interface{},
) map[string]interface{} {
	key, err := cacheKey(operation, params)
	if err != nil {
		s.log.Warn("cache key unavailable, computing fresh", zap.String("operation", operation), zap.Error(err))
	} else if data, ok := s.cache.Get(key); ok {
		if payload, err := decodePayload(data); err == nil {
			metrics.AnalysisCacheHits.WithLabelValues(operation).Inc()
			return payload
		}
	}
	metrics.AnalysisCacheMisses.WithLabelValues(operation).Inc()

	// The shared computation outlives any single caller; the fetch and AI
	// timeouts bound it instead.
	shared := context.WithoutCancel(ctx)
	run := func() (interface{}, error) {
		start := time.Now()
		payload, err := s.safeCompute(shared, operation, compute)
		metrics.AnalysisDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(payload)
		if err != nil {
			s.log.Warn("payload not cacheable", zap.String("operation", operation), zap.Error(err))
			return payload, nil
		}
		switch {
		case isFallback(payload):
			s.log.Warn("analysis degraded, result not cached", zap.String("operation", operation))
			metrics.AnalysisFallbacks.WithLabelValues(operation).Inc()
		case key != "":
			s.cache.Set(key, data)
		}
		return data, nil
	}

	var v interface{}
	if key == "" {
		v, err = run()
	} else {
		select {
		case res := <-s.group.DoChan(key, run):
			v, err = res.Val, res.Err
		case <-ctx.Done():
			err = ctx.Err()
		}
	}
	if err != nil {
		return s.degrade(operation, err, fallback)
	}

	switch out := v.(type) {
	case []byte:
		// decode per caller so singleflight waiters never share a map
		payload, err := decodePayload(out)
		if err != nil {
			return s.degrade(operation, err, fallback)
		}
		return payload
	case map[string]interface{}:
		return out
	}
	return s.degrade(operation, errors.New("unexpected payload type"), fallback)
}

func (s *Service) safeCompute(ctx context.Context, operation string, compute func(context.Context) (map[string]interface{}, error)) (payload map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", operation, r)
		}
	}()
	return compute(ctx)
}

func isFallback(payload map[string]interface{}) bool {
	flag, _ := payload["is_fallback"].(bool)
	return flag
}

func (s *Service) degrade(operation string, err error, fallback func() map[string]interface{}) map[string]interface{} {
	s.log.Error("analysis failed, returning fallback", zap.String("operation", operation), zap.Error(err))
	metrics.AnalysisFallbacks.WithLabelValues(operation).Inc()
	return fallback()
}

func decodePayload(data []byte) (map[string]interface{}, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode cached payload: %w", err)
	}
	return payload, nil
}

// run executes tasks concurrently when Parallel is set, sequentially otherwise.
// The first error cancels the remaining tasks.
func (s *Service) run(ctx context.Context, tasks ...func(context.Context) error) error {
	if !s.cfg.Parallel {
		for _, task := range tasks {
			if err := task(ctx); err != nil {
				return err
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() (err error) {
			defer recoverTask(&err)
			return task(gctx)
		})
	}
	return g.Wait()
}

// recoverTask turns a panic on a worker goroutine into that task's error.
func recoverTask(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("task panicked: %v", r)
	}
}

// fetch wraps a store read in its own timeout.
func (s *Service) fetch(name string, read func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
		if err := read(ctx); err != nil {
			return fmt.Errorf("failed to fetch %s: %w", name, err)
		}
		return nil
	}
}

type snapshot struct {
	items      []models.Item
	stats      *models.InventoryStats
	lowStock   []models.Item
	outOfStock []models.Item
}

func (s *Service) loadSnapshot(ctx context.Context, filter models.ItemFilter, limit, lowThreshold int) (*snapshot, error) {
	snap := &snapshot{}
	err := s.run(ctx,
		s.fetch("items", func(ctx context.Context) error {
			page, err := s.source.ListItems(ctx, filter, models.ListOptions{Limit: limit})
			if err == nil {
				snap.items = page.Items
			}
			return err
		}),
		s.fetch("stats", func(ctx context.Context) (err error) {
			snap.stats, err = s.source.GetInventoryStats(ctx)
			return err
		}),
		s.fetch("low stock items", func(ctx context.Context) (err error) {
			snap.lowStock, err = s.source.GetLowStockItems(ctx, lowThreshold)
			return err
		}),
		s.fetch("out of stock items", func(ctx context.Context) (err error) {
			snap.outOfStock, err = s.source.GetOutOfStockItems(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	if snap.stats == nil {
		snap.stats = &models.InventoryStats{}
	}
	return snap, nil
}

// ComprehensiveOptions narrows a comprehensive analysis.
type ComprehensiveOptions struct {
	CategoryID        string `json:"category_id,omitempty"`
	SupplierID        string `json:"supplier_id,omitempty"`
	LowStockThreshold int    `json:"low_stock_threshold,omitempty"`
	SalesPeriodDays   int    `json:"sales_period_days"`
}

func (o ComprehensiveOptions) normalized() ComprehensiveOptions {
	if o.SalesPeriodDays <= 0 {
		o.SalesPeriodDays = 30
	}
	if o.LowStockThreshold < 0 {
		o.LowStockThreshold = 0
	}
	return o
}

// GetComprehensiveAnalysis runs batched AI analysis over up to 1000 items plus
// sampled sales-trend and optimization passes.
func (s *Service) GetComprehensiveAnalysis(ctx context.Context, opts ComprehensiveOptions) map[string]interface{} {
	if !s.ai.IsAvailable() {
		metrics.AnalysisFallbacks.WithLabelValues("comprehensive").Inc()
		return s.fallbackComprehensive()
	}
	opts = opts.normalized()
	return s.cached(ctx, "comprehensive", opts, func(ctx context.Context) (map[string]interface{}, error) {
		return s.computeComprehensive(ctx, opts)
	}, s.fallbackComprehensive)
}

type batchOutcome struct {
	result *ai.AnalysisResult
	err    error
}

func (s *Service) computeComprehensive(ctx context.Context, opts ComprehensiveOptions) (map[string]interface{}, error) {
	meter := startMeter()

	snap, err := s.loadSnapshot(ctx, models.ItemFilter{CategoryID: opts.CategoryID, SupplierID: opts.SupplierID}, maxAnalysisItems, opts.LowStockThreshold)
	if err != nil {
		return nil, err
	}

	payloads := itemPayloads(snap.items)
	batches := chunk(payloads, s.cfg.BatchSize)
	outcomes := s.analyzeBatches(ctx, batches)

	risk := "low"
	recommendations := []string{}
	failed, degraded := 0, 0
	confidence := decimal.Zero
	for i, o := range outcomes {
		if o.err != nil {
			failed++
			s.log.Warn("analysis batch failed", zap.Int("batch", i), zap.Error(o.err))
			continue
		}
		if o.result.IsFallback {
			degraded++
		}
		recommendations = append(recommendations, o.result.Recommendations...)
		risk = mostSevere(risk, riskFromRecommendations(o.result.Recommendations))
		confidence = confidence.Add(decimal.NewFromFloat(o.result.ConfidenceScore))
	}
	if len(batches) > 0 && failed == len(batches) {
		return nil, fmt.Errorf("all %d analysis batches failed", failed)
	}
	succeeded := len(batches) - failed
	// every batch that answered came from the rule-based fallback
	allDegraded := succeeded > 0 && degraded == succeeded
	if succeeded > 0 {
		confidence = confidence.Div(decimal.NewFromInt(int64(succeeded)))
	}

	sample := stratifiedSample(payloads, s.cfg.SampleSize)
	trends, optimization := emptySubAnalysis(), emptySubAnalysis()
	if len(sample) > 0 {
		err = s.run(ctx,
			func(ctx context.Context) error {
				r, err := s.ai.AnalyzeSalesTrends(ctx, sample, opts.SalesPeriodDays)
				if err == nil {
					trends = subAnalysis(r)
				}
				return err
			},
			func(ctx context.Context) error {
				r, err := s.ai.OptimizeStockLevels(ctx, sample)
				if err == nil {
					optimization = subAnalysis(r)
				}
				return err
			},
		)
		if err != nil {
			return nil, err
		}
	}

	return map[string]interface{}{
		"summary": map[string]interface{}{
			"total_items":        snap.stats.TotalItems,
			"total_quantity":     snap.stats.TotalQuantity,
			"total_value":        money(snap.stats.TotalValue),
			"average_price":      money(snap.stats.AveragePrice),
			"low_stock_count":    snap.stats.LowStockCount,
			"out_of_stock_count": snap.stats.OutOfStockCount,
			"categories_count":   snap.stats.CategoriesCount,
			"items_analyzed":     len(snap.items),
		},
		"risk_assessment": map[string]interface{}{
			"risk_level":       risk,
			"batches_total":    len(batches),
			"batches_failed":   failed,
			"batches_fallback": degraded,
		},
		"recommendations":    recommendations,
		"sales_trends":       trends,
		"stock_optimization": optimization,
		"low_stock_items":    itemBriefs(snap.lowStock),
		"out_of_stock_items": itemBriefs(snap.outOfStock),
		"performance": meter.finish(map[string]interface{}{
			"parallel":    s.cfg.Parallel,
			"batch_size":  s.cfg.BatchSize,
			"sampled":     len(sample) < len(payloads),
			"sample_size": len(sample),
		}),
		"confidence_score": confidence.Round(2).InexactFloat64(),
		"timestamp":        s.timestamp(),
		"is_fallback":      allDegraded,
	}, nil
}

// analyzeBatches keeps every batch's outcome in batch order; one failing
// batch does not stop the others.
func (s *Service) analyzeBatches(ctx context.Context, batches [][]map[string]interface{}) []batchOutcome {
	outcomes := make([]batchOutcome, len(batches))
	analyze := func(ctx context.Context, i int) {
		defer func() {
			if r := recover(); r != nil {
				outcomes[i] = batchOutcome{err: fmt.Errorf("batch %d panicked: %v", i, r)}
			}
		}()
		r, err := s.ai.AnalyzeInventory(ctx, map[string]interface{}{
			"items":       batches[i],
			"batch_index": i,
		}, ai.AnalysisGeneral)
		outcomes[i] = batchOutcome{result: r, err: err}
	}

	if !s.cfg.Parallel {
		for i := range batches {
			analyze(ctx, i)
		}
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(batchConcurrency)
	for i := range batches {
		g.Go(func() error {
			analyze(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func subAnalysis(r *ai.AnalysisResult) map[string]interface{} {
	return map[string]interface{}{
		"findings":         r.Findings,
		"recommendations":  r.Recommendations,
		"confidence_score": r.ConfidenceScore,
		"is_fallback":      r.IsFallback,
	}
}

func money(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

func (s *Service) reportPeriod() map[string]interface{} {
	end := s.now().UTC()
	start := end.AddDate(0, 0, -7)
	year, week := end.ISOWeek()
	return map[string]interface{}{
		"start":    start.Format("2006-01-02"),
		"end":      end.Format("2006-01-02"),
		"iso_week": fmt.Sprintf("%d-W%02d", year, week),
	}
}

// GenerateWeeklyReport summarises the trailing seven days. The cache key
// carries the ISO week so the report rolls over on its own.
func (s *Service) GenerateWeeklyReport(ctx context.Context) map[string]interface{} {
	year, week := s.now().UTC().ISOWeek()
	params := map[string]int{"year": year, "week": week}

	return s.cached(ctx, "weekly_report", params, s.computeWeeklyReport, s.fallbackWeeklyReport)
}

func (s *Service) computeWeeklyReport(ctx context.Context) (map[string]interface{}, error) {
	snap, err := s.loadSnapshot(ctx, models.ItemFilter{}, maxAnalysisItems, 0)
	if err != nil {
		return nil, err
	}

	summary := map[string]interface{}{
		"overview":        "No inventory items are recorded yet.",
		"insights":        []string{},
		"recommendations": []string{},
		"ai_generated":    false,
	}
	degraded := false
	if len(snap.items) > 0 {
		report, err := s.ai.GenerateReport(ctx, map[string]interface{}{
			"items":  itemPayloads(snap.items),
			"stats":  snap.stats,
			"period": s.reportPeriod(),
		}, ai.ReportWeekly)
		if err != nil {
			return nil, err
		}
		summary = map[string]interface{}{
			"overview":        report.Summary,
			"insights":        report.Insights,
			"recommendations": report.Recommendations,
			"ai_generated":    !report.IsFallback,
		}
		degraded = report.IsFallback
	}

	return map[string]interface{}{
		"report_period":     s.reportPeriod(),
		"executive_summary": summary,
		"key_metrics": map[string]interface{}{
			"total_items":           snap.stats.TotalItems,
			"total_quantity":        snap.stats.TotalQuantity,
			"total_inventory_value": money(snap.stats.TotalValue),
			"average_price":         money(snap.stats.AveragePrice),
			"low_stock_count":       snap.stats.LowStockCount,
			"out_of_stock_count":    snap.stats.OutOfStockCount,
			"categories_count":      snap.stats.CategoriesCount,
		},
		"timestamp":   s.timestamp(),
		"is_fallback": degraded,
	}, nil
}
