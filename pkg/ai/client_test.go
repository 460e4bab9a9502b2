package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeOpenAI(t *testing.T, reply string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"unavailable","type":"server_error"}}`))
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/models"):
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-35-turbo","object":"model","created":1,"owned_by":"test"}]}`))
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			body := map[string]interface{}{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"created": 1,
				"model":   "gpt-35-turbo",
				"choices": []interface{}{
					map[string]interface{}{
						"index":         0,
						"finish_reason": "stop",
						"message":       map[string]interface{}{"role": "assistant", "content": reply},
					},
				},
			}
			_ = json.NewEncoder(w).Encode(body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestStrategy(t *testing.T, srv *httptest.Server) *OpenAIStrategy {
	t.Helper()
	strategy, err := NewOpenAIStrategy(OpenAIConfig{
		Endpoint: srv.URL + "/v1/",
		APIKey:   "test-key",
	}, nil)
	require.NoError(t, err)
	return strategy
}

func TestNewOpenAIStrategyRequiresCredentials(t *testing.T) {
	_, err := NewOpenAIStrategy(OpenAIConfig{Endpoint: "http://localhost"}, nil)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestOpenAIStrategyAnalyze(t *testing.T) {
	reply := "Here you go:\n```json\n{\"risk_level\":\"critical\",\"confidence\":0.82,\"recommendations\":[\"critical: reorder A\"]}\n```"
	srv := fakeOpenAI(t, reply, http.StatusOK)
	strategy := newTestStrategy(t, srv)

	assert.True(t, strategy.IsAvailable(context.Background()))

	svc := NewService(Config{Enabled: true}, nil)
	svc.RegisterStrategy("openai", strategy)

	result, err := svc.AnalyzeInventory(context.Background(), lowStockData(), AnalysisGeneral)
	require.NoError(t, err)
	assert.False(t, result.IsFallback)
	assert.Equal(t, "critical", result.RiskLevel())
	assert.InDelta(t, 0.82, result.ConfidenceScore, 1e-9)
	assert.Equal(t, []string{"critical: reorder A"}, result.Recommendations)
}

func TestOpenAIStrategyServerErrorFallsBack(t *testing.T) {
	srv := fakeOpenAI(t, "", http.StatusInternalServerError)
	strategy := newTestStrategy(t, srv)
	assert.False(t, strategy.IsAvailable(context.Background()))

	svc := NewService(Config{Enabled: true}, nil)
	svc.RegisterStrategy("openai", strategy)

	result, err := svc.AnalyzeInventory(context.Background(), lowStockData(), AnalysisGeneral)
	require.NoError(t, err)
	assert.True(t, result.IsFallback)
	assert.Contains(t, result.Recommendations, "Restock A: 18 units needed")
}

func TestParseReplies(t *testing.T) {
	t.Run("bare object", func(t *testing.T) {
		out := parseAnalysisReply(`{"risk_level":"low","confidence":0.9}`)
		assert.Equal(t, "low", out["risk_level"])
	})

	t.Run("object inside prose", func(t *testing.T) {
		out := parseAnalysisReply(`Sure! {"risk_level":"high"} Let me know if you need more.`)
		assert.Equal(t, "high", out["risk_level"])
	})

	t.Run("prose only", func(t *testing.T) {
		text := "Stock looks thin.\n- Reorder bolts\n2. Check nuts"
		out := parseAnalysisReply(text)
		assert.Equal(t, true, out["parse_error"])
		assert.Equal(t, []interface{}{"Reorder bolts", "Check nuts"}, out["recommendations"])
		assert.Equal(t, text, out["raw_response"])
	})

	t.Run("report prose", func(t *testing.T) {
		out := parseReportReply("Inventory is mostly healthy.\n\n* Reorder A")
		assert.Equal(t, "Inventory is mostly healthy.", out["summary"])
		assert.Equal(t, []interface{}{"Reorder A"}, out["recommendations"])
	})
}
