package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"
)

// OpenAIConfig holds credentials for an OpenAI-compatible chat endpoint
// (Azure OpenAI included).
type OpenAIConfig struct {
	Endpoint       string
	APIKey         string
	DeploymentName string
	MaxRetries     int
	// HTTPClient overrides the SDK's default client, mainly for tests.
	HTTPClient *http.Client
}

// OpenAIStrategy answers analysis and report requests with chat completions.
type OpenAIStrategy struct {
	client       openai.Client
	model        string
	pingTimeout time.Duration
	log          *zap.Logger
}

// NewOpenAIStrategy returns ErrUnavailable when credentials are missing so
// callers can run without a backend.
func NewOpenAIStrategy(cfg OpenAIConfig, log *zap.Logger) (*OpenAIStrategy, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, &AIError{Message: "OpenAI credentials not provided", Cause: ErrUnavailable}
	}
	if cfg.DeploymentName == "" {
		cfg.DeploymentName = "gpt-35-turbo" // Default deployment name
	}
	if log == nil {
		log = zap.NewNop()
	}

	opts := []option.RequestOption{
		option.WithBaseURL(cfg.Endpoint),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAIStrategy{
		client:       openai.NewClient(opts...),
		model:        cfg.DeploymentName,
		pingTimeout: 5 * time.Second,
		log:          log.Named("openai"),
	}, nil
}

func (o *OpenAIStrategy) Analyze(ctx context.Context, data map[string]interface{}, analysisType string) (map[string]interface{}, error) {
	text, err := o.complete(ctx, AnalysisSystemPrompt, formatAnalysisPrompt(data, analysisType))
	if err != nil {
		return nil, err
	}
	return parseAnalysisReply(text), nil
}

func (o *OpenAIStrategy) Generate(ctx context.Context, data map[string]interface{}, reportType string) (map[string]interface{}, error) {
	text, err := o.complete(ctx, ReportSystemPrompt, formatReportPrompt(data, reportType))
	if err != nil {
		return nil, err
	}
	return parseReportReply(text), nil
}

// IsAvailable lists models to check the backend is reachable.
func (o *OpenAIStrategy) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, o.pingTimeout)
	defer cancel()

	if _, err := o.client.Models.List(ctx); err != nil {
		o.log.Debug("availability check failed", zap.Error(err))
		return false
	}
	return true
}

func (o *OpenAIStrategy) complete(ctx context.Context, systemMessage, userMessage string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemMessage),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(userMessage),
					},
				},
			},
		},
		MaxTokens:   openai.Int(1500),
		Temperature: openai.Float(0.3), // structured output, keep it steady
	})
	if err != nil {
		return "", &AIError{Message: "failed to generate AI response", Cause: err}
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &AIError{Message: "AI returned empty response"}
	}
	return resp.Choices[0].Message.Content, nil
}

var (
	fencePattern  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	bulletPattern = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+)$`)
)

// extractJSONObject finds the JSON object in a model reply: the whole text,
// a fenced block, or the span between the first '{' and the last '}'.
func extractJSONObject(text string) (map[string]interface{}, bool) {
	candidates := []string{strings.TrimSpace(text)}
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	for _, c := range candidates {
		var out map[string]interface{}
		if err := json.Unmarshal([]byte(c), &out); err == nil && out != nil {
			return out, true
		}
	}
	return nil, false
}

func bulletLines(text string) []interface{} {
	out := []interface{}{}
	for _, line := range strings.Split(text, "\n") {
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			out = append(out, strings.TrimSpace(m[1]))
		}
	}
	return out
}

func parseAnalysisReply(text string) map[string]interface{} {
	if parsed, ok := extractJSONObject(text); ok {
		return parsed
	}
	return map[string]interface{}{
		"risk_level":      "medium",
		"confidence":      0.5,
		"recommendations": bulletLines(text),
		"raw_response":    text,
		"parse_error":     true,
	}
}

func parseReportReply(text string) map[string]interface{} {
	if parsed, ok := extractJSONObject(text); ok {
		return parsed
	}
	summary := strings.TrimSpace(text)
	if i := strings.Index(summary, "\n\n"); i > 0 {
		summary = summary[:i]
	}
	return map[string]interface{}{
		"summary":         summary,
		"insights":        []interface{}{},
		"recommendations": bulletLines(text),
		"confidence":      0.5,
		"raw_response":    text,
		"parse_error":     true,
	}
}

func (o *OpenAIStrategy) String() string {
	return fmt.Sprintf("openai(%s)", o.model)
}
