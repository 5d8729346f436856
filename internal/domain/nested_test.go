package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNested(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind NestedKind
	}{
		{"empty", "", NestedMissing},
		{"null", "null", NestedMissing},
		{"object", `{"size":"16 oz"}`, NestedParsed},
		{"json in string", `"{\"size\":\"16 oz\"}"`, NestedParsed},
		{"malformed", `{"size":`, NestedRaw},
		{"wrong shape", `[1,2,3]`, NestedRaw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := ParseNested[map[string]DetailValue](tt.in)
			assert.Equal(t, tt.kind, n.Kind)
			if tt.kind == NestedRaw {
				assert.Equal(t, tt.in, n.Raw)
			}
		})
	}
}

func TestParseNested_DetailValues(t *testing.T) {
	n := ParseNested[map[string]DetailValue](`{"size":"16 oz","tags":["paper","hot"],"weight":12}`)
	require.True(t, n.IsParsed())
	assert.Equal(t, "16 oz", n.Value["size"].Text)
	assert.Equal(t, []string{"paper", "hot"}, n.Value["tags"].Tags)
	assert.Equal(t, "12", n.Value["weight"].Text)
}

func TestNested_JSONRoundTrip(t *testing.T) {
	p := Product{
		ID:      "p1",
		Name:    "cup",
		Details: ParseNested[map[string]DetailValue](`{"material":"paper"}`),
		Pricing: ParseNested[[]PriceTier](`not json`),
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var back Product
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Details.IsParsed())
	assert.Equal(t, "paper", back.Details.Value["material"].Text)
	assert.Equal(t, NestedRaw, back.Pricing.Kind)
	assert.Equal(t, "not json", back.Pricing.Raw)
	assert.Nil(t, back.StockQuantity)
}

func TestNested_Encode(t *testing.T) {
	assert.Equal(t, "", Nested[[]PriceTier]{}.Encode())
	assert.Equal(t, "broken", Nested[[]PriceTier]{Kind: NestedRaw, Raw: "broken"}.Encode())
	tiers := Parsed([]PriceTier{{MinQuantity: 100, Price: 1.5}})
	assert.JSONEq(t, `[{"min_quantity":100,"price":1.5}]`, tiers.Encode())
}
