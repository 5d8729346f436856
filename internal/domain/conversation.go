package domain

import (
	"time"

	"github.com/kailas-cloud/chatsearch/internal/domain/query"
)

// ConversationState is the minimal per-user memory that links consecutive turns.
type ConversationState struct {
	UserID          string       `json:"user_id"`
	LastProductID   string       `json:"last_product_id,omitempty"`
	LastProductName string       `json:"last_product_name,omitempty"`
	LastQuery       string       `json:"last_query,omitempty"`
	LastQueryTime   time.Time    `json:"last_query_time"`
	LastIntent      query.Intent `json:"last_intent"`
}

// IsEmpty reports whether the user has no recorded interaction.
func (s ConversationState) IsEmpty() bool {
	return s.LastProductID == "" && s.LastQuery == "" && s.LastQueryTime.IsZero()
}

// Message roles stored in chat history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ProductRef is a product mentioned in a chat message.
type ProductRef struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
}

// ChatMessage is one stored conversation turn.
type ChatMessage struct {
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Timestamp time.Time    `json:"timestamp"`
	Products  []ProductRef `json:"products,omitempty"`
}

// ChatHistory is a user's conversation in chronological order.
type ChatHistory struct {
	UserID   string        `json:"user_id"`
	Messages []ChatMessage `json:"messages"`
}
