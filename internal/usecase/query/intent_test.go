package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kailas-cloud/chatsearch/internal/domain/query"
)

func TestDetectIntent(t *testing.T) {
	ex := NewExtractor()
	tests := []struct {
		text string
		want query.Intent
	}{
		{"มีแก้ว 16 oz ไหม", query.Intent{Availability: true, Specification: true}},
		{"ราคาเท่าไหร่", query.Intent{Price: true}},
		{"how much for a paper cup", query.Intent{Price: true, Material: true}},
		{"จัดส่งกี่วัน", query.Intent{Delivery: true}},
		{"สเปคเป็นยังไง", query.Intent{Specification: true}},
		{"ทำจากอะไร", query.Intent{Material: true}},
		{"is it in stock", query.Intent{Availability: true}},
		{"สวัสดี", query.Intent{}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectIntent(tt.text, ex.Extract(tt.text)))
		})
	}
}
