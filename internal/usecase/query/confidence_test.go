package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kailas-cloud/chatsearch/internal/domain/query"
)

func TestConfidence(t *testing.T) {
	ex := NewExtractor()
	tests := []struct {
		name     string
		text     string
		followUp bool
		want     int
	}{
		{"empty", "", false, 35},
		{"short without attributes", "ราคา", false, 35},
		{"short follow-up with context", "ราคา", true, 42},
		{"long without attributes", "something completely unknown", false, 50},
		{"short material", "กระดาษ", false, 77},
		{"well specified clamps", "แก้ว 16 oz", false, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Confidence(tt.text, ex.Extract(tt.text), tt.followUp))
		})
	}
}

func TestConfidence_Monotonic(t *testing.T) {
	text := "something completely unknown"
	base := Confidence(text, query.Attributes{}, false)
	withMaterial := Confidence(text, query.Attributes{Materials: []query.KeywordHit{{Keyword: "paper"}}}, false)

	assert.Greater(t, withMaterial, base)
	assert.GreaterOrEqual(t, Confidence(text, query.Attributes{}, true), base)
}

func TestMatchesSynonym(t *testing.T) {
	assert.True(t, MatchesSynonym("ถ้วยกระดาษ 16 oz", "แก้ว"))
	assert.True(t, MatchesSynonym("paper cup", "กระดาษ"))
	assert.False(t, MatchesSynonym("กล่องพลาสติก", "กระดาษ"))
}

func TestGenericTerms(t *testing.T) {
	assert.Equal(t, []string{"แก้ว"}, GenericTerms("แก้วสวยๆ"))
	assert.Equal(t, []string{"แก้ว", "กล่อง", "บรรจุภัณฑ์"}, GenericTerms("ของขวัญ"))
	assert.Empty(t, CategoryWords("ของขวัญ"))
	assert.Equal(t, []string{"กล่อง", "box"}, CategoryWords("กล่อง box"))
}
