// Package history stores per-user chat messages in SQLite.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/db/sqlite"
	"github.com/kailas-cloud/chatsearch/internal/domain"
)

// DefaultLoadLimit bounds how many recent messages Load returns.
const DefaultLoadLimit = 50

var schema = []string{
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    TEXT NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		products   TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_user ON chat_messages (user_id, id)`,
}

type messageRow struct {
	ID        int64  `db:"id"`
	UserID    string `db:"user_id"`
	Role      string `db:"role"`
	Content   string `db:"content"`
	Products  string `db:"products"`
	CreatedAt int64  `db:"created_at"`
}

// Repo reads and appends chat history.
type Repo struct {
	conn   *sqlx.DB
	limit  int
	logger *zap.Logger
}

// New creates a history repository. limit <= 0 uses DefaultLoadLimit.
func New(conn *sqlx.DB, limit int, logger *zap.Logger) *Repo {
	if limit <= 0 {
		limit = DefaultLoadLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{conn: conn, limit: limit, logger: logger}
}

// EnsureSchema creates the messages table and index.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	return sqlite.Migrate(ctx, r.conn, schema...)
}

// Load returns the user's most recent messages in chronological order.
// A user without messages gets nil.
func (r *Repo) Load(ctx context.Context, userID string) (*domain.ChatHistory, error) {
	var rows []messageRow
	err := r.conn.SelectContext(ctx, &rows,
		`SELECT id, user_id, role, content, products, created_at
		FROM chat_messages WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, r.limit)
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", userID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	h := &domain.ChatHistory{UserID: userID, Messages: make([]domain.ChatMessage, 0, len(rows))}
	for i := len(rows) - 1; i >= 0; i-- {
		h.Messages = append(h.Messages, r.toDomain(rows[i]))
	}
	return h, nil
}

// Append stores messages for a user in order.
func (r *Repo) Append(ctx context.Context, userID string, msgs ...domain.ChatMessage) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if len(msgs) == 0 {
		return nil
	}

	tx, err := r.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range msgs {
		row := messageRow{
			UserID:    userID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.Timestamp.UnixMilli(),
		}
		if m.Timestamp.IsZero() {
			row.CreatedAt = time.Now().UnixMilli()
		}
		if len(m.Products) > 0 {
			data, err := json.Marshal(m.Products)
			if err != nil {
				return fmt.Errorf("marshal products: %w", err)
			}
			row.Products = string(data)
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO chat_messages (user_id, role, content, products, created_at)
			VALUES (:user_id, :role, :content, :products, :created_at)`, row); err != nil {
			return fmt.Errorf("append message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

func (r *Repo) toDomain(row messageRow) domain.ChatMessage {
	m := domain.ChatMessage{
		Role:      row.Role,
		Content:   row.Content,
		Timestamp: time.UnixMilli(row.CreatedAt),
	}
	if row.Products != "" {
		if refs := domain.ParseNested[[]domain.ProductRef](row.Products); refs.IsParsed() {
			m.Products = refs.Value
		} else {
			r.logger.Debug("dropping malformed product refs", zap.Int64("message_id", row.ID))
		}
	}
	return m
}
