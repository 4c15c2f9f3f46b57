// Package llm integrates the language-model provider used for receipt
// extraction and monthly insight generation.
package llm

import (
	"context"
	"fmt"
)

// Client defines the interface to the LLM provider.
type Client interface {
	// ExtractReceipt converts a receipt image into structured line items.
	ExtractReceipt(ctx context.Context, image []byte, mimeType string, categories []string) (ReceiptExtraction, error)
	// GenerateInsight produces a monthly spending narrative from summary data.
	GenerateInsight(ctx context.Context, req InsightRequest) (InsightResponse, error)
}

// Config holds provider settings.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// ReceiptItem is one extracted line item.
type ReceiptItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

// ReceiptExtraction is the structured result of parsing a receipt image.
type ReceiptExtraction struct {
	Items []ReceiptItem `json:"items"`
	Tax   float64       `json:"tax"`
}

// CategoryShare is one category's slice of a month's spending.
type CategoryShare struct {
	Name    string
	Amount  float64
	Percent float64
}

// InsightRequest carries the summary data embedded into the insight prompt.
type InsightRequest struct {
	Month      string
	Year       int
	Total      float64
	Categories []CategoryShare
}

// InsightResponse is the four-part narrative returned by the model.
type InsightResponse struct {
	Summary             string   `json:"summary"`
	TopCategories       []string `json:"top_categories"`
	SavingOpportunities []string `json:"saving_opportunities"`
	Tips                []string `json:"tips"`
}

// New creates a Client from config. OpenAI-compatible chat completions is the
// only wire protocol; the base URL selects the actual provider.
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: api key is required")
	}
	return newOpenAIClient(cfg), nil
}
