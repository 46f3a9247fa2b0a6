package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/raine/fashion-analyzer/internal/images"
)

// ErrAnalysis wraps every failure of the external model: transport, auth,
// rate limiting, refusals and unparseable responses.
var ErrAnalysis = errors.New("analysis error")

// FashionItem contains the structured attributes of one clothing item.
type FashionItem struct {
	ItemType string  `json:"item_type"` // e.g. top, bottom, jacket
	Size     *string `json:"size"`      // nil when not readable from a tag
	Brand    *string `json:"brand"`     // nil when unknown
}

// Usage contains token usage and cost information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// AnalysisResult contains the item and usage information.
type AnalysisResult struct {
	Item   *FashionItem
	Usage  Usage
	Cached bool // served from the analysis cache, Usage is zero
}

// Analyzer extracts a FashionItem from photos of a single item.
type Analyzer interface {
	// Name identifies the backing provider and model, e.g. "openai/gpt-4o-mini".
	Name() string
	// AnalyzeImages sends all images in one request and returns one item.
	AnalyzeImages(ctx context.Context, imgs []*images.EncodedImage) (*AnalysisResult, error)
}

func analysisErr(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrAnalysis, msg, err)
}

func calculateCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}
