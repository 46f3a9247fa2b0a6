package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/openai/openai-go"
	"github.com/raine/fashion-analyzer/internal/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model     string `json:"model"`
	MaxTokens int64  `json:"max_tokens"`
	Messages  []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
	ResponseFormat struct {
		Type       string `json:"type"`
		JSONSchema struct {
			Name   string         `json:"name"`
			Strict bool           `json:"strict"`
			Schema map[string]any `json:"schema"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

type contentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

func chatCompletionBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message": map[string]any{
				"role":    "assistant",
				"content": content,
				"refusal": nil,
			},
		}},
		"usage": map[string]any{
			"prompt_tokens":     1000,
			"completion_tokens": 20,
			"total_tokens":      1020,
		},
	})
	return string(body)
}

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIAnalyzer {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	analyzer, err := NewOpenAIAnalyzer(OpenAIConfig{
		APIKey:          "test-key",
		BaseURL:         ts.URL + "/",
		MaxOutputTokens: 300,
	})
	require.NoError(t, err)
	return analyzer
}

func testImages() []*images.EncodedImage {
	return []*images.EncodedImage{
		{Path: "images/front.jpg", Base64: "AAEC", MIMEType: "image/jpeg", Size: 3},
		{Path: "images/tag.png", Base64: "AwQF", MIMEType: "image/jpeg", Size: 3},
	}
}

func TestOpenAIAnalyzer_BuildsSingleRequest(t *testing.T) {
	var calls int32
	var got chatRequest
	analyzer := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, chatCompletionBody(`{"item_type":"top","size":null,"brand":"Acme"}`))
	})

	result, err := analyzer.AnalyzeImages(context.Background(), testImages())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, int64(300), got.MaxTokens)
	assert.Equal(t, "json_schema", got.ResponseFormat.Type)
	assert.Equal(t, "fashion_item", got.ResponseFormat.JSONSchema.Name)
	assert.True(t, got.ResponseFormat.JSONSchema.Strict)
	assert.Equal(t, false, got.ResponseFormat.JSONSchema.Schema["additionalProperties"])

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)

	var parts []contentPart
	require.NoError(t, json.Unmarshal(got.Messages[1].Content, &parts))
	require.Len(t, parts, 3)
	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, instructionPrompt, parts[0].Text)
	assert.Equal(t, "image_url", parts[1].Type)
	assert.Equal(t, "data:image/jpeg;base64,AAEC", parts[1].ImageURL.URL)
	assert.Equal(t, "image_url", parts[2].Type)
	assert.Equal(t, "data:image/jpeg;base64,AwQF", parts[2].ImageURL.URL)

	require.NotNil(t, result.Item)
	assert.Equal(t, "top", result.Item.ItemType)
	assert.Nil(t, result.Item.Size)
	require.NotNil(t, result.Item.Brand)
	assert.Equal(t, "Acme", *result.Item.Brand)
	assert.False(t, result.Cached)

	assert.Equal(t, int64(1000), result.Usage.InputTokens)
	assert.Equal(t, int64(20), result.Usage.OutputTokens)
	assert.Equal(t, int64(1020), result.Usage.TotalTokens)
	assert.InDelta(t, 0.000162, result.Usage.CostUSD, 1e-9)
}

func TestOpenAIAnalyzer_CustomModel(t *testing.T) {
	var got chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, chatCompletionBody(`{"item_type":"bottom","size":"32","brand":null}`))
	}))
	defer ts.Close()

	analyzer, err := NewOpenAIAnalyzer(OpenAIConfig{APIKey: "k", BaseURL: ts.URL + "/", Model: "gpt-4o", MaxOutputTokens: 50})
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o", analyzer.Name())

	result, err := analyzer.AnalyzeImages(context.Background(), testImages()[:1])
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, int64(50), got.MaxTokens)
	assert.Equal(t, "32", *result.Item.Size)
	assert.Nil(t, result.Item.Brand)
}

func TestOpenAIAnalyzer_HTTPErrorsAreNotRetried(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls int32
			analyzer := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				io.WriteString(w, `{"error":{"message":"nope","type":"test_error","code":"test"}}`)
			})

			_, err := analyzer.AnalyzeImages(context.Background(), testImages())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAnalysis)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

			var apiErr *openai.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, status, apiErr.StatusCode)
		})
	}
}

func TestOpenAIAnalyzer_InvalidStructuredOutput(t *testing.T) {
	analyzer := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, chatCompletionBody(`{"item_type":"top","size":38,"brand":null}`))
	})

	_, err := analyzer.AnalyzeImages(context.Background(), testImages())
	assert.ErrorIs(t, err, ErrAnalysis)
}

func TestOpenAIAnalyzer_NoChoices(t *testing.T) {
	analyzer := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`)
	})

	_, err := analyzer.AnalyzeImages(context.Background(), testImages())
	assert.ErrorIs(t, err, ErrAnalysis)
	assert.Contains(t, err.Error(), "no response")
}

func TestOpenAIAnalyzer_NoImages(t *testing.T) {
	analyzer := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := analyzer.AnalyzeImages(context.Background(), nil)
	assert.ErrorIs(t, err, ErrAnalysis)
}

func TestNewOpenAIAnalyzer_Validation(t *testing.T) {
	_, err := NewOpenAIAnalyzer(OpenAIConfig{MaxOutputTokens: 300})
	assert.Error(t, err)

	_, err = NewOpenAIAnalyzer(OpenAIConfig{APIKey: "k"})
	assert.Error(t, err)
}
