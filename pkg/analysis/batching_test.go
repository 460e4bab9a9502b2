package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskFromRecommendations(t *testing.T) {
	tests := []struct {
		name string
		recs []string
		want string
	}{
		{"empty", nil, "low"},
		{"one critical wins", []string{"Restock A", "CRITICAL: bolts gone"}, "critical"},
		{"two high is not enough", []string{"high: a", "high: b"}, "low"},
		{"three high", []string{"high: a", "high: b", "high: c"}, "high"},
		{"five medium is not enough", repeat("medium priority", 5), "low"},
		{"six medium", repeat("medium priority", 6), "medium"},
		{"high beats medium", append(repeat("medium", 6), "high", "high", "high"), "high"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, riskFromRecommendations(tt.recs))
		})
	}
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestMostSevere(t *testing.T) {
	assert.Equal(t, "critical", mostSevere("low", "critical"))
	assert.Equal(t, "high", mostSevere("high", "medium"))
	assert.Equal(t, "low", mostSevere("low", "low"))
}

func TestChunk(t *testing.T) {
	items := makeItems(map[string]int{"a": 120})
	batches := chunk(items, 50)
	assert.Len(t, batches, 3)
	assert.Len(t, batches[2], 20)
	assert.Empty(t, chunk(nil, 50))
}

func TestStratifiedSampleKeepsProportions(t *testing.T) {
	items := makeItems(map[string]int{"tools": 800, "paint": 200})

	sample := stratifiedSample(items, 500)
	assert.Len(t, sample, 500)

	counts := map[string]int{}
	for _, item := range sample {
		counts[categoryOf(item)]++
	}
	assert.Equal(t, 400, counts["tools"])
	assert.Equal(t, 100, counts["paint"])
}

func TestStratifiedSampleRounding(t *testing.T) {
	items := makeItems(map[string]int{"a": 333, "b": 333, "c": 334, "d": 1})

	sample := stratifiedSample(items, 500)
	assert.Len(t, sample, 500)

	counts := map[string]int{}
	for _, item := range sample {
		counts[categoryOf(item)]++
	}
	assert.Equal(t, 1, counts["d"], "small categories are not dropped")
	assert.InDelta(t, 166, counts["a"], 1)
	assert.InDelta(t, 167, counts["c"], 1)
}

func TestStratifiedSampleUnderBudget(t *testing.T) {
	items := makeItems(map[string]int{"a": 10})
	assert.Equal(t, items, stratifiedSample(items, 500))
}

// makeItems builds items grouped by category, in sorted-key-independent order.
func makeItems(perCategory map[string]int) []map[string]interface{} {
	var items []map[string]interface{}
	for _, category := range []string{"tools", "paint", "a", "b", "c", "d"} {
		for i := 0; i < perCategory[category]; i++ {
			items = append(items, map[string]interface{}{
				"name":        fmt.Sprintf("%s-%d", category, i),
				"quantity":    i,
				"category_id": category,
			})
		}
	}
	return items
}
