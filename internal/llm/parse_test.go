package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFashionItem_NullSizeStaysNil(t *testing.T) {
	item, err := ParseFashionItem(`{"item_type": "top", "size": null, "brand": "Acme"}`)
	require.NoError(t, err)

	assert.Equal(t, "top", item.ItemType)
	assert.Nil(t, item.Size)
	require.NotNil(t, item.Brand)
	assert.Equal(t, "Acme", *item.Brand)
}

func TestParseFashionItem_AllFields(t *testing.T) {
	item, err := ParseFashionItem(`{"item_type": "jacket", "size": "US M", "brand": "Patagonia"}`)
	require.NoError(t, err)

	assert.Equal(t, "jacket", item.ItemType)
	assert.Equal(t, "US M", *item.Size)
	assert.Equal(t, "Patagonia", *item.Brand)
}

func TestParseFashionItem_KeepsValuesVerbatim(t *testing.T) {
	item, err := ParseFashionItem(`{"item_type": " top ", "size": "US M ", "brand": " Acme"}`)
	require.NoError(t, err)

	assert.Equal(t, " top ", item.ItemType)
	require.NotNil(t, item.Size)
	assert.Equal(t, "US M ", *item.Size)
	require.NotNil(t, item.Brand)
	assert.Equal(t, " Acme", *item.Brand)
}

func TestParseFashionItem_MissingOptionalFields(t *testing.T) {
	item, err := ParseFashionItem(`{"item_type": "bottom"}`)
	require.NoError(t, err)
	assert.Nil(t, item.Size)
	assert.Nil(t, item.Brand)
}

func TestParseFashionItem_NormalizesUnknownMarkers(t *testing.T) {
	tests := []string{`""`, `"  "`, `"null"`, `"Unknown"`, `"N/A"`}
	for _, v := range tests {
		t.Run(v, func(t *testing.T) {
			item, err := ParseFashionItem(`{"item_type": "top", "size": ` + v + `, "brand": ` + v + `}`)
			require.NoError(t, err)
			assert.Nil(t, item.Size)
			assert.Nil(t, item.Brand)
		})
	}
}

func TestParseFashionItem_StripsCodeFence(t *testing.T) {
	item, err := ParseFashionItem("```json\n{\"item_type\": \"top\", \"size\": \"S\", \"brand\": null}\n```")
	require.NoError(t, err)
	assert.Equal(t, "top", item.ItemType)
	assert.Equal(t, "S", *item.Size)
	assert.Nil(t, item.Brand)
}

func TestParseFashionItem_Rejects(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not json", "I could not see the item"},
		{"missing item_type", `{"size": "M", "brand": null}`},
		{"null item_type", `{"item_type": null, "size": "M", "brand": null}`},
		{"empty item_type", `{"item_type": " ", "size": "M", "brand": null}`},
		{"numeric size", `{"item_type": "top", "size": 42, "brand": null}`},
		{"array brand", `{"item_type": "top", "size": null, "brand": ["a"]}`},
		{"unknown field", `{"item_type": "top", "size": null, "brand": null, "color": "red"}`},
		{"truncated", `{"item_type": "top", "size": }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFashionItem(tt.text)
			assert.Error(t, err)
		})
	}
}
