package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/raine/fashion-analyzer/internal/images"
	"github.com/rs/zerolog/log"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// gpt-4o-mini pricing (per million tokens)
const (
	openaiInputPricePerMillion  = 0.15
	openaiOutputPricePerMillion = 0.60
)

// fashionItemJSONSchema constrains the chat completion output. Strict mode
// requires every property to be listed as required, so optional fields are
// expressed as nullable.
var fashionItemJSONSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"item_type": map[string]any{
			"type":        "string",
			"description": itemTypeDescription,
		},
		"size": map[string]any{
			"type":        []string{"string", "null"},
			"description": sizeDescription,
		},
		"brand": map[string]any{
			"type":        []string{"string", "null"},
			"description": brandDescription,
		},
	},
	"required":             []string{"item_type", "size", "brand"},
	"additionalProperties": false,
}

// OpenAIConfig holds the settings for OpenAIAnalyzer.
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string // optional, SDK default when empty
	Model           string // optional, DefaultOpenAIModel when empty
	MaxOutputTokens int64
}

// OpenAIAnalyzer uses OpenAI's chat completions API with structured outputs.
type OpenAIAnalyzer struct {
	client    openai.Client
	model     string
	maxTokens int64
}

// NewOpenAIAnalyzer creates a new OpenAI-based analyzer. The API key is
// taken from cfg only. Requests are not retried.
func NewOpenAIAnalyzer(cfg OpenAIConfig) (*OpenAIAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.MaxOutputTokens <= 0 {
		return nil, fmt.Errorf("invalid max output tokens: %d", cfg.MaxOutputTokens)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIAnalyzer{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: cfg.MaxOutputTokens,
	}, nil
}

func (o *OpenAIAnalyzer) Name() string {
	return "openai/" + o.model
}

// AnalyzeImages implements the Analyzer interface using OpenAI.
func (o *OpenAIAnalyzer) AnalyzeImages(ctx context.Context, imgs []*images.EncodedImage) (*AnalysisResult, error) {
	if len(imgs) == 0 {
		return nil, fmt.Errorf("%w: no images provided", ErrAnalysis)
	}

	// Build parts: instruction first, then all images
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(instructionPrompt),
	}
	for _, img := range imgs {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: images.DataURL(img),
		}))
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(parts),
		},
		MaxTokens: openai.Int(o.maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "fashion_item",
					Description: openai.String("Attributes of a single clothing item"),
					Schema:      fashionItemJSONSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return nil, analysisErr("failed to create chat completion", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response from OpenAI", ErrAnalysis)
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, fmt.Errorf("%w: model refused: %s", ErrAnalysis, choice.Message.Refusal)
	}

	item, err := ParseFashionItem(choice.Message.Content)
	if err != nil {
		return nil, analysisErr(fmt.Sprintf("finish reason %q", choice.FinishReason), err)
	}

	usage := Usage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
		CostUSD:      calculateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, openaiInputPricePerMillion, openaiOutputPricePerMillion),
	}

	log.Info().
		Str("model", o.model).
		Int("imageCount", len(imgs)).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("vision llm call")

	return &AnalysisResult{Item: item, Usage: usage}, nil
}
