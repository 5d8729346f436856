package query

import (
	"strings"
	"time"

	"github.com/kailas-cloud/chatsearch/internal/domain"
)

const (
	// DefaultFollowUpWindow is how recent the previous query must be to count as context.
	DefaultFollowUpWindow = 5 * time.Minute

	shortQueryRunes = 10
)

// FollowUpDetector decides whether a message continues the previous turn.
type FollowUpDetector struct {
	window time.Duration
	now    func() time.Time
}

// NewFollowUpDetector creates a detector; a non-positive window uses the default.
func NewFollowUpDetector(window time.Duration) *FollowUpDetector {
	if window <= 0 {
		window = DefaultFollowUpWindow
	}
	return &FollowUpDetector{window: window, now: time.Now}
}

// IsFollowUp applies four independent rules; any one suffices.
func (d *FollowUpDetector) IsFollowUp(text string, state *domain.ConversationState) bool {
	if RuneLen(text) < shortQueryRunes {
		return true
	}
	lower := strings.ToLower(text)
	if ContainsAny(lower, followUpIndicators) {
		return true
	}
	if state == nil {
		return false
	}
	if !state.LastQueryTime.IsZero() && d.now().Sub(state.LastQueryTime) <= d.window {
		return true
	}
	return state.LastProductName != "" && SharesNumber(lower, state.LastProductName)
}
