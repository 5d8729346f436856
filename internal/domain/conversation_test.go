package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConversationState_IsEmpty(t *testing.T) {
	assert.True(t, ConversationState{UserID: "u1"}.IsEmpty())
	assert.False(t, ConversationState{UserID: "u1", LastQuery: "แก้ว"}.IsEmpty())
	assert.False(t, ConversationState{UserID: "u1", LastQueryTime: time.Now()}.IsEmpty())
}
