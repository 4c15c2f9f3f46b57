package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// openAIClient talks to an OpenAI-compatible chat completions endpoint.
type openAIClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

// newOpenAIClient creates a chat-completions client with pooled transport.
func newOpenAIClient(cfg Config) *openAIClient {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	return &openAIClient{
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     baseURL,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

const receiptSystemPrompt = "You are a receipt parser. You MUST respond with ONLY a valid JSON object. " +
	"Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. " +
	"Start your response directly with { and end with }."

const insightSystemPrompt = "You are a personal finance assistant. You MUST respond with ONLY a valid JSON object. " +
	"Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. " +
	"Start your response directly with { and end with }."

// ExtractReceipt sends the receipt image as a vision message and parses the
// returned line items.
func (c *openAIClient) ExtractReceipt(ctx context.Context, image []byte, mimeType string, categories []string) (ReceiptExtraction, error) {
	if len(image) == 0 {
		return ReceiptExtraction{}, fmt.Errorf("llm: empty receipt image")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	prompt := fmt.Sprintf(
		"Extract every purchased line item from this receipt. Assign each item one category from this list: %s. "+
			`Respond as {"items": [{"name": string, "price": number, "category": string}], "tax": number}. `+
			"The tax field is the total tax on the receipt, 0 if absent.",
		strings.Join(categories, ", "),
	)
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	messages := []map[string]any{
		{"role": "system", "content": receiptSystemPrompt},
		{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": prompt},
				{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
			},
		},
	}

	content, err := c.complete(ctx, messages)
	if err != nil {
		return ReceiptExtraction{}, err
	}

	var extraction ReceiptExtraction
	if errParse := json.Unmarshal([]byte(sanitizeJSON(content)), &extraction); errParse != nil {
		return ReceiptExtraction{}, fmt.Errorf("llm: parse receipt extraction: %w", errParse)
	}
	return extraction, nil
}

// GenerateInsight asks for the four-part monthly narrative.
func (c *openAIClient) GenerateInsight(ctx context.Context, req InsightRequest) (InsightResponse, error) {
	var lines []string
	for _, cat := range req.Categories {
		lines = append(lines, fmt.Sprintf("- %s: %.2f (%.1f%%)", cat.Name, cat.Amount, cat.Percent))
	}
	breakdown := "no expenses recorded"
	if len(lines) > 0 {
		breakdown = strings.Join(lines, "\n")
	}

	prompt := fmt.Sprintf(
		"Spending for %s %d. Total: %.2f. Per-category breakdown:\n%s\n"+
			"Write a monthly spending insight. Respond as "+
			`{"summary": string, "top_categories": [string], "saving_opportunities": [string], "tips": [string]}.`,
		req.Month, req.Year, req.Total, breakdown,
	)

	messages := []map[string]any{
		{"role": "system", "content": insightSystemPrompt},
		{"role": "user", "content": prompt},
	}

	content, err := c.complete(ctx, messages)
	if err != nil {
		return InsightResponse{}, err
	}

	var insight InsightResponse
	if errParse := json.Unmarshal([]byte(sanitizeJSON(content)), &insight); errParse != nil {
		return InsightResponse{}, fmt.Errorf("llm: parse insight: %w", errParse)
	}
	return insight, nil
}

// chatResponse is the subset of the chat completions payload we read.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete performs one chat completions round trip and returns the content
// of the first choice.
func (c *openAIClient) complete(ctx context.Context, messages []map[string]any) (string, error) {
	requestBody := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: provider error (status %d): %s", resp.StatusCode, string(body))
	}

	var response chatResponse
	if errParse := json.Unmarshal(body, &response); errParse != nil {
		return "", fmt.Errorf("llm: parse response: %w", errParse)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("llm: no choices in response")
	}
	return response.Choices[0].Message.Content, nil
}

// sanitizeJSON strips markdown code fences some models wrap around JSON.
func sanitizeJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}
