package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/dbin-w/courtwatch/pkg/models"
)

// Analyzer sentinels. The analyzer never returns an error past its boundary;
// callers receive one of these fixed strings instead and carry on.
const (
	AnalysisUnavailable  = "分析服务不可用 (缺少 API 密钥)。"
	MatchAnalysisFailed  = "AI 分析生成失败。"
	PeriodAnalysisFailed = "汇总分析生成失败。"
	InsufficientData     = "**数据无效**"
)

// Validity gate: sessions shorter than this or with a lower average heart
// rate do not carry enough signal for a substantive report.
const (
	minAnalysisDurationSeconds = 600
	minAnalysisAvgHeartRate    = 70
)

// Analyzer produces natural-language performance reports from workout data.
type Analyzer interface {
	// AnalyzeMatch generates a single-match tactical report.
	AnalyzeMatch(workout models.WorkoutRecord) string
	// AnalyzePeriod generates a multi-match physiological review for all
	// matches of one day.
	AnalyzePeriod(workouts []models.WorkoutRecord, date string) string
	// Available reports whether the service has a credential and can be
	// called at all.
	Available() bool
}

type deepseekAnalyzer struct {
	baseURL string
	model   string
	apiKey  string
	profile models.PlayerProfile
	client  *http.Client
}

// NewAnalyzer creates an Analyzer backed by a DeepSeek-style chat-completions
// endpoint. The API key is read from the environment variable named in the
// config; when absent, the analyzer degrades to always returning the
// unavailable sentinel rather than failing startup.
func NewAnalyzer(cfg models.AnalyzerConfig, profile models.PlayerProfile) Analyzer {
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "DEEPSEEK_API_KEY"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.deepseek.com"
	}
	model := cfg.Model
	if model == "" {
		model = "deepseek-reasoner"
	}
	return &deepseekAnalyzer{
		baseURL: baseURL,
		model:   model,
		apiKey:  os.Getenv(keyEnv),
		profile: profile,
		// No client timeout: report generation may legitimately take minutes
		// and the watch loop handles one event at a time anyway.
		client: &http.Client{},
	}
}

func (a *deepseekAnalyzer) Available() bool {
	return a.apiKey != ""
}

func passesGate(w models.WorkoutRecord) bool {
	return w.Duration >= minAnalysisDurationSeconds && w.AvgHeartRate >= minAnalysisAvgHeartRate
}

// AnalyzeMatch gates the record, builds the tactical prompt, and calls the
// completion endpoint. Every failure mode collapses to a sentinel string.
func (a *deepseekAnalyzer) AnalyzeMatch(workout models.WorkoutRecord) string {
	if !a.Available() {
		return AnalysisUnavailable
	}
	if !passesGate(workout) {
		return InsufficientData
	}

	report, err := a.complete(matchSystemPrompt, a.matchUserPrompt(workout))
	if err != nil {
		fmt.Fprintf(os.Stderr, "DeepSeek 单场分析失败: %v\n", err)
		return MatchAnalysisFailed
	}
	return report
}

// AnalyzePeriod reviews all matches of one day. Records failing the validity
// gate are excluded; when none remain, the insufficient-data sentinel is
// returned without calling the service.
func (a *deepseekAnalyzer) AnalyzePeriod(workouts []models.WorkoutRecord, date string) string {
	if !a.Available() {
		return AnalysisUnavailable
	}
	var valid []models.WorkoutRecord
	for _, w := range workouts {
		if passesGate(w) {
			valid = append(valid, w)
		}
	}
	if len(valid) == 0 {
		return InsufficientData
	}

	report, err := a.complete(periodSystemPrompt, a.periodUserPrompt(valid, date))
	if err != nil {
		fmt.Fprintf(os.Stderr, "DeepSeek 周期复盘失败: %v\n", err)
		return PeriodAnalysisFailed
	}
	return report
}

// --- chat-completions wire format ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *deepseekAnalyzer) complete(systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("marshalling completion request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("posting completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion endpoint returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
