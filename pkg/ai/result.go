package ai

import (
	"fmt"
	"strings"
	"time"
)

// AnalysisResult is the structured outcome of one analyze call.
type AnalysisResult struct {
	AnalysisType    string                 `json:"analysis_type"`
	Findings        map[string]interface{} `json:"findings"`
	Recommendations []string               `json:"recommendations"`
	ConfidenceScore float64                `json:"confidence_score"`
	SupportingData  map[string]interface{} `json:"supporting_data"`
	IsFallback      bool                   `json:"is_fallback"`
	ErrorMessage    string                 `json:"error_message,omitempty"`
}

func (r *AnalysisResult) IsValid() bool {
	return r.ConfidenceScore > 0 && r.ErrorMessage == ""
}

// RiskLevel returns findings.risk_level, or "" when the strategy did not report one.
func (r *AnalysisResult) RiskLevel() string {
	if v, ok := r.Findings["risk_level"].(string); ok {
		return strings.ToLower(v)
	}
	return ""
}

// FindingList returns a finding as a list of objects (predictions, optimizations...).
func (r *AnalysisResult) FindingList(key string) []map[string]interface{} {
	return asObjectList(r.Findings[key])
}

// Report is the structured outcome of one generate call.
type Report struct {
	ReportType      string                 `json:"report_type"`
	Summary         string                 `json:"summary"`
	Insights        []string               `json:"insights"`
	Recommendations []string               `json:"recommendations"`
	Sections        map[string]interface{} `json:"sections"`
	ConfidenceScore float64                `json:"confidence_score"`
	IsFallback      bool                   `json:"is_fallback"`
	ErrorMessage    string                 `json:"error_message,omitempty"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

var reservedAnalysisKeys = map[string]bool{
	"recommendations":  true,
	"confidence":       true,
	"confidence_score": true,
	"error":            true,
	"supporting_data":  true,
}

// resultFromMap lifts a strategy's raw reply into an AnalysisResult.
func resultFromMap(analysisType string, raw map[string]interface{}) *AnalysisResult {
	result := &AnalysisResult{
		AnalysisType:    analysisType,
		Findings:        map[string]interface{}{},
		Recommendations: toStringList(raw["recommendations"]),
		SupportingData:  map[string]interface{}{},
	}

	if c, ok := firstNumber(raw, "confidence", "confidence_score"); ok {
		result.ConfidenceScore = clamp01(c)
	}
	if msg, ok := raw["error"].(string); ok {
		result.ErrorMessage = msg
	}
	if sd, ok := raw["supporting_data"].(map[string]interface{}); ok {
		result.SupportingData = sd
	}

	for k, v := range raw {
		if reservedAnalysisKeys[k] {
			continue
		}
		result.Findings[k] = v
	}
	// Models are not consistent about casing.
	if rl, ok := raw["riskLevel"]; ok {
		if _, exists := result.Findings["risk_level"]; !exists {
			result.Findings["risk_level"] = rl
		}
		delete(result.Findings, "riskLevel")
	}
	return result
}

func reportFromMap(reportType string, raw map[string]interface{}, now time.Time) *Report {
	report := &Report{
		ReportType:      reportType,
		Insights:        toStringList(raw["insights"]),
		Recommendations: toStringList(raw["recommendations"]),
		Sections:        map[string]interface{}{},
		GeneratedAt:     now,
	}
	if s, ok := raw["summary"].(string); ok {
		report.Summary = s
	}
	if c, ok := firstNumber(raw, "confidence", "confidence_score"); ok {
		report.ConfidenceScore = clamp01(c)
	}
	if msg, ok := raw["error"].(string); ok {
		report.ErrorMessage = msg
	}
	for k, v := range raw {
		switch k {
		case "summary", "insights", "recommendations", "confidence", "confidence_score", "error":
			continue
		}
		report.Sections[k] = v
	}
	return report
}

func toStringList(v interface{}) []string {
	out := []string{}
	switch list := v.(type) {
	case []string:
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []interface{}:
		for _, entry := range list {
			switch e := entry.(type) {
			case string:
				if e = strings.TrimSpace(e); e != "" {
					out = append(out, e)
				}
			case map[string]interface{}:
				// {"action": "...", "priority": "high"} style entries
				text := firstString(e, "action", "recommendation", "text", "description", "message")
				if text == "" {
					continue
				}
				if p := firstString(e, "priority", "severity"); p != "" {
					text = fmt.Sprintf("[%s] %s", p, text)
				}
				out = append(out, text)
			}
		}
	case string:
		if list = strings.TrimSpace(list); list != "" {
			out = append(out, list)
		}
	}
	return out
}

func asObjectList(v interface{}) []map[string]interface{} {
	switch list := v.(type) {
	case []map[string]interface{}:
		return list
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(list))
		for _, entry := range list {
			if m, ok := entry.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func firstNumber(m map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := ToFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
