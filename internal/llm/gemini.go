package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/raine/fashion-analyzer/internal/images"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini 2.5 Flash pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.30 // text/image/video
	geminiOutputPricePerMillion = 2.50 // including thinking
)

// GeminiConfig holds the settings for GeminiAnalyzer.
type GeminiConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxOutputTokens int32
}

// GeminiAnalyzer uses Google's Gemini API for image analysis.
type GeminiAnalyzer struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// NewGeminiAnalyzer creates a new Gemini-based analyzer using the API key
// from cfg.
func NewGeminiAnalyzer(ctx context.Context, cfg GeminiConfig) (*GeminiAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.MaxOutputTokens <= 0 {
		return nil, fmt.Errorf("invalid max output tokens: %d", cfg.MaxOutputTokens)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiAnalyzer{client: client, model: model, maxTokens: cfg.MaxOutputTokens}, nil
}

func (g *GeminiAnalyzer) Name() string {
	return "gemini/" + g.model
}

func fashionItemSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"item_type": {
				Type:        genai.TypeString,
				Description: itemTypeDescription,
			},
			"size": {
				Type:        genai.TypeString,
				Description: sizeDescription,
				Nullable:    genai.Ptr(true),
			},
			"brand": {
				Type:        genai.TypeString,
				Description: brandDescription,
				Nullable:    genai.Ptr(true),
			},
		},
		Required:         []string{"item_type", "size", "brand"},
		PropertyOrdering: []string{"item_type", "size", "brand"},
	}
}

// AnalyzeImages analyzes all images together in a single request.
func (g *GeminiAnalyzer) AnalyzeImages(ctx context.Context, imgs []*images.EncodedImage) (*AnalysisResult, error) {
	if len(imgs) == 0 {
		return nil, fmt.Errorf("%w: no images provided", ErrAnalysis)
	}

	// Build parts: instruction first, then all images. The SDK does its own
	// base64 encoding, so it gets the raw bytes back.
	parts := []*genai.Part{
		genai.NewPartFromText(instructionPrompt),
	}
	for _, img := range imgs {
		data, err := images.Decode(img)
		if err != nil {
			return nil, analysisErr("invalid encoded image", err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: data, MIMEType: img.MIMEType},
		})
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    fashionItemSchema(),
		MaxOutputTokens:   g.maxTokens,

		// Thinking tokens count against MaxOutputTokens; keep the bound for
		// the answer itself.
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, analysisErr("failed to generate content", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no response from Gemini", ErrAnalysis)
	}

	item, err := ParseFashionItem(result.Text())
	if err != nil {
		return nil, analysisErr(fmt.Sprintf("finish reason %q", result.Candidates[0].FinishReason), err)
	}

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		usage.CostUSD = calculateCost(usage.InputTokens, usage.OutputTokens, geminiInputPricePerMillion, geminiOutputPricePerMillion)
	}

	log.Info().
		Str("model", g.model).
		Int("imageCount", len(imgs)).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("vision llm call")

	return &AnalysisResult{Item: item, Usage: usage}, nil
}
