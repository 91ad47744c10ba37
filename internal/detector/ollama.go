package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// defaultGuidance is used when the caller supplies no guidance prompt.
const defaultGuidance = "Ты выделяешь возможные чувствительные данные " +
	"(компании, продукты, люди, организации, телефоны, email, аккаунты/ссылки соцсетей) в тексте. " +
	"Верни строго JSON массив уникальных точных фрагментов из текста (без изменений регистра)."

// maxDetectorResponse caps how much of the model output is read.
const maxDetectorResponse = 10 << 20 // 10 MB

// OllamaConfig configures the AI detector backend.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// OllamaDetector asks a local Ollama model to list sensitive fragments and
// resolves each fragment back to byte spans. Structured values the model
// tends to miss (emails, phones, social links) are supplemented by the
// built-in rule set, the way a human reviewer would double-check the model.
type OllamaDetector struct {
	config OllamaConfig
	client *http.Client
	rules  *RuleDetector
	logger *zap.Logger
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// NewOllamaDetector creates the AI detector. Timeouts are controlled by the
// caller's context; detection calls can legitimately run for minutes.
func NewOllamaDetector(config OllamaConfig, logger *zap.Logger) (*OllamaDetector, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("ollama base URL is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}

	rules, err := NewRuleDetector([]string{"all"}, logger)
	if err != nil {
		return nil, err
	}

	return &OllamaDetector{
		config: config,
		client: &http.Client{},
		rules:  rules,
		logger: logger,
	}, nil
}

// Detect queries the model for sensitive fragments and returns their spans.
func (d *OllamaDetector) Detect(ctx context.Context, text, guidance string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, nil
	}
	if guidance == "" {
		guidance = defaultGuidance
	}

	fragments, err := d.queryFragments(ctx, text, guidance)
	if err != nil {
		return Result{}, err
	}

	// Merge with pattern candidates; the model output wins no special
	// treatment, duplicates collapse inside spansForValues.
	ruleResult, err := d.rules.Detect(ctx, text, "")
	if err != nil {
		return Result{}, err
	}
	for _, s := range ruleResult.Spans {
		fragments = append(fragments, s.Value)
	}

	spans := spansForValues(text, fragments, Classify)

	d.logger.Debug("AI detection completed",
		zap.Int("fragment_count", len(fragments)),
		zap.Int("span_count", len(spans)))

	return Result{Spans: spans}, nil
}

// queryFragments calls the Ollama generate API and extracts the JSON array
// of exact text fragments from the model answer.
func (d *OllamaDetector) queryFragments(ctx context.Context, text, guidance string) ([]string, error) {
	prompt := fmt.Sprintf("Текст:\n%s\nВыдели чувствительные данные и верни только JSON массив строк.", text)

	payload, err := json.Marshal(generateRequest{
		Model:  d.config.Model,
		Prompt: prompt,
		System: guidance,
		Stream: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode detection request: %w", err)
	}

	url := strings.TrimRight(d.config.BaseURL, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create detection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDetectorResponse))
	if err != nil {
		return nil, fmt.Errorf("failed to read detector response: %w", err)
	}

	var gen generateResponse
	if err := json.Unmarshal(body, &gen); err != nil {
		return nil, fmt.Errorf("malformed detector response: %w", err)
	}

	return extractFragments(gen.Response)
}

// extractFragments pulls the JSON string array out of a model answer that
// may wrap it in prose or code fences.
func extractFragments(answer string) ([]string, error) {
	raw := strings.TrimSpace(answer)
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in detector answer")
	}

	var items []any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("malformed fragment array: %w", err)
	}

	fragments := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			fragments = append(fragments, s)
		}
	}
	return fragments, nil
}
