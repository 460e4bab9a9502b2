package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"julianmorley.ca/stockpilot/inventory-api/pkg/ai"
	"julianmorley.ca/stockpilot/inventory-api/pkg/models"
)

const (
	AlertLowStock   = "low_stock"
	AlertOutOfStock = "out_of_stock"

	monitorHorizonDays = 7
)

// Alert is one item that needs attention.
type Alert struct {
	ID                     string `json:"id"`
	Type                   string `json:"type"`
	ItemID                 string `json:"item_id"`
	ItemName               string `json:"item_name"`
	CurrentStock           int    `json:"current_stock"`
	MinStock               int    `json:"min_stock"`
	Urgency                string `json:"urgency"`
	PredictedDepletionDate string `json:"predicted_depletion_date"`
	RecommendedAction      string `json:"recommended_action"`
}

// urgencyFor grades quantity against the minimum stock level.
func urgencyFor(quantity, minStock int) string {
	if quantity <= 0 {
		return "critical"
	}
	if minStock <= 0 {
		return "low"
	}
	ratio := float64(quantity) / float64(minStock)
	switch {
	case ratio <= 0.1:
		return "critical"
	case ratio <= 0.3:
		return "high"
	case ratio <= 0.6:
		return "medium"
	}
	return "low"
}

func alertSummary(alerts []Alert) map[string]interface{} {
	summary := map[string]interface{}{
		"total_alerts": len(alerts),
		"critical":     0,
		"high":         0,
		"medium":       0,
		"low":          0,
		"out_of_stock": 0,
		"low_stock":    0,
	}
	for _, a := range alerts {
		summary[a.Urgency] = summary[a.Urgency].(int) + 1
		summary[a.Type] = summary[a.Type].(int) + 1
	}
	return summary
}

// MonitorCriticalItems builds live alerts for low and out-of-stock items.
// Monitoring is never served from the cache.
func (s *Service) MonitorCriticalItems(ctx context.Context) (payload map[string]interface{}) {
	defer func() {
		if r := recover(); r != nil {
			payload = s.degrade("monitor", fmt.Errorf("monitor panicked: %v", r), s.fallbackMonitor)
		}
	}()

	var lowStock, outOfStock []models.Item
	err := s.run(ctx,
		s.fetch("low stock items", func(ctx context.Context) (err error) {
			lowStock, err = s.source.GetLowStockItems(ctx, 0)
			return err
		}),
		s.fetch("out of stock items", func(ctx context.Context) (err error) {
			outOfStock, err = s.source.GetOutOfStockItems(ctx)
			return err
		}),
	)
	if err != nil {
		return s.degrade("monitor", err, s.fallbackMonitor)
	}

	alerts, err := s.lowStockAlerts(ctx, lowStock)
	if err != nil {
		return s.degrade("monitor", err, s.fallbackMonitor)
	}
	for _, item := range outOfStock {
		alerts = append(alerts, s.outOfStockAlert(item))
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		if severity[alerts[i].Urgency] != severity[alerts[j].Urgency] {
			return severity[alerts[i].Urgency] > severity[alerts[j].Urgency]
		}
		return alerts[i].ItemName < alerts[j].ItemName
	})

	risk, degraded, err := s.alertRisk(ctx, alerts)
	if err != nil {
		return s.degrade("monitor", err, s.fallbackMonitor)
	}

	return map[string]interface{}{
		"alerts":      alerts,
		"summary":     alertSummary(alerts),
		"risk_level":  risk,
		"timestamp":   s.timestamp(),
		"is_fallback": degraded,
	}
}

// lowStockAlerts asks for a 7-day prediction per item still holding stock.
// Empty items are reported by the out-of-stock pass instead.
func (s *Service) lowStockAlerts(ctx context.Context, items []models.Item) ([]Alert, error) {
	var (
		mu     sync.Mutex
		alerts []Alert
	)
	predict := func(ctx context.Context, item models.Item) error {
		result, err := s.ai.PredictStockNeeds(ctx, []map[string]interface{}{itemPayload(item)}, monitorHorizonDays)
		if err != nil {
			return fmt.Errorf("failed to predict %s: %w", item.Name, err)
		}
		alert := s.lowStockAlert(item, result)
		mu.Lock()
		alerts = append(alerts, alert)
		mu.Unlock()
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.Parallel {
		g.SetLimit(batchConcurrency)
	} else {
		g.SetLimit(1)
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		g.Go(func() (err error) {
			defer recoverTask(&err)
			return predict(gctx, item)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (s *Service) lowStockAlert(item models.Item, prediction *ai.AnalysisResult) Alert {
	days := -1.0
	for _, p := range prediction.FindingList("predictions") {
		if v, ok := ai.ToFloat(p["days_until_stockout"]); ok {
			days = v
			break
		}
	}
	if days < 0 {
		days = float64(item.Quantity) / ai.EstimateDailyUsage(item.Quantity, item.MinStockLevel)
	}
	depletion := s.now().UTC().Add(time.Duration(math.Floor(days)) * 24 * time.Hour)

	action := fmt.Sprintf("Reorder %d units of %s", ai.RestockUnits(item.Quantity, item.MinStockLevel), item.Name)
	if len(prediction.Recommendations) > 0 {
		action = prediction.Recommendations[0]
	}

	return Alert{
		ID:                     uuid.NewString(),
		Type:                   AlertLowStock,
		ItemID:                 item.ID.Hex(),
		ItemName:               item.Name,
		CurrentStock:           item.Quantity,
		MinStock:               item.MinStockLevel,
		Urgency:                urgencyFor(item.Quantity, item.MinStockLevel),
		PredictedDepletionDate: depletion.Format("2006-01-02"),
		RecommendedAction:      action,
	}
}

func (s *Service) outOfStockAlert(item models.Item) Alert {
	return Alert{
		ID:                     uuid.NewString(),
		Type:                   AlertOutOfStock,
		ItemID:                 item.ID.Hex(),
		ItemName:               item.Name,
		CurrentStock:           item.Quantity,
		MinStock:               item.MinStockLevel,
		Urgency:                "critical",
		PredictedDepletionDate: s.now().UTC().Format("2006-01-02"),
		RecommendedAction: fmt.Sprintf("Restock %s immediately: %d units needed",
			item.Name, ai.RestockUnits(item.Quantity, item.MinStockLevel)),
	}
}

// alertRisk asks the analyzer to grade the alert set as a whole, falling back
// to the most urgent alert when it reports no level. degraded is set when the
// grade came from the rule-based analyzer.
func (s *Service) alertRisk(ctx context.Context, alerts []Alert) (level string, degraded bool, err error) {
	if len(alerts) == 0 {
		return "low", false, nil
	}

	items := make([]map[string]interface{}, 0, len(alerts))
	worst := "low"
	for _, a := range alerts {
		items = append(items, map[string]interface{}{
			"name":            a.ItemName,
			"quantity":        a.CurrentStock,
			"min_stock_level": a.MinStock,
			"urgency":         a.Urgency,
			"alert_type":      a.Type,
		})
		worst = mostSevere(worst, a.Urgency)
	}

	result, err := s.ai.AnalyzeInventory(ctx, map[string]interface{}{"items": items}, ai.AnalysisGeneral)
	if err != nil {
		return "", false, err
	}
	if level := result.RiskLevel(); level != "" {
		if _, known := severity[level]; known {
			return level, result.IsFallback, nil
		}
	}
	s.log.Debug("analyzer returned no usable risk level", zap.String("using", worst))
	return worst, result.IsFallback, nil
}
