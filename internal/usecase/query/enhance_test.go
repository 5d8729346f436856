package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kailas-cloud/chatsearch/internal/domain/query"
)

func enhance(text string, recent ...string) string {
	ex := NewExtractor()
	return NewEnhancer(ex, nil).Enhance(text, ex.Extract(text), recent)
}

func TestEnhance_StripsFillerAndExpands(t *testing.T) {
	assert.Equal(t, "ขอแก้ว 16 oz cup glass", enhance("รบกวนขอแก้ว 16 oz หน่อยครับ"))
}

func TestEnhance_ParticlesOnlyAtWordEnd(t *testing.T) {
	assert.Equal(t, "คะแนนรีวิวแก้วกระดาษ cup glass", enhance("คะแนนรีวิวแก้วกระดาษ"))
	assert.Equal(t, "แก้ว มีไหม cup glass", enhance("แก้ว ค่ะ มีไหมคะ"))
}

func TestEnhance_ASCIIStopWordsWholeWord(t *testing.T) {
	assert.Equal(t, "paper box กล่อง", enhance("Hi please paper box"))
}

func TestEnhance_CarryForward(t *testing.T) {
	got := enhance("แก้วใบนี้มีสีอะไร", "ราคาเท่าไหร่", "แก้วกระดาษ 16 oz")

	assert.Contains(t, got, "16 oz")
	assert.Contains(t, got, "กระดาษ")
	assert.True(t, strings.HasPrefix(got, "แก้วใบนี้มีสีอะไร"))
}

func TestEnhance_MostRecentTurnWins(t *testing.T) {
	assert.Equal(t, "ฝาปิด lid 20 oz", enhance("ฝาปิด", "ถุง 20 oz", "แก้ว 16 oz"))
}

func TestEnhance_OnlyTwoTurnsBack(t *testing.T) {
	got := enhance("ฝาปิด", "สวัสดี", "ขอบคุณ", "แก้ว 16 oz")
	assert.NotContains(t, got, "16 oz")
}

func TestEnhance_NeverEmpty(t *testing.T) {
	assert.Equal(t, "ครับ", enhance("  ครับ "))
	assert.Equal(t, "", enhance(""))
}

func TestEnhance_RoundTripKeepsAttributes(t *testing.T) {
	ex := NewExtractor()
	for _, text := range []string{
		"กล่องกระดาษ 10x10x5 cm",
		"แก้ว 16 oz",
		"ถุงพลาสติก 20x30",
		"paper cup size m",
		"ชามชานอ้อย 500 ml",
	} {
		before := ex.Extract(text)
		after := ex.Extract(NewEnhancer(ex, nil).Enhance(text, before, nil))

		for _, d := range before.Dimensions {
			assert.True(t, hasDimension(after.Dimensions, d.Literal), "%s: lost %s", text, d.Literal)
		}
		for _, h := range before.Materials {
			assert.Contains(t, keywords(after.Materials), h.Keyword, text)
		}
		for _, h := range before.Types {
			assert.Contains(t, keywords(after.Types), h.Keyword, text)
		}
		for _, h := range before.Categories {
			assert.Contains(t, keywords(after.Categories), h.Keyword, text)
		}
	}
}

func hasDimension(dims []query.Dimension, literal string) bool {
	for _, d := range dims {
		if d.Literal == literal {
			return true
		}
	}
	return false
}
