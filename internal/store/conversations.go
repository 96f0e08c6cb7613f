// Package store persists conversations and their messages in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coelhoxyz/lead-qualifier-agent/internal/db"
	"github.com/coelhoxyz/lead-qualifier-agent/internal/funnel"
)

// Status is the lifecycle state of a persisted conversation. At most one
// conversation per phone number may be active at a time (enforced by a
// partial unique index); the other statuses are terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusQualified Status = "qualified"
	StatusRejected  Status = "rejected"
)

// Conversation is one intake funnel run for a phone number.
type Conversation struct {
	ID               string
	PhoneNumber      string
	Name             *string
	BirthDate        *string
	WeightLossReason *string
	Qualified        *bool
	FunnelStep       funnel.Step
	Status           Status
	LastActivity     time.Time
	FinishedAt       *time.Time
	CreatedAt        time.Time
}

// Message is one turn of a conversation, append-only and ordered by timestamp.
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	Timestamp      time.Time
}

// ConversationUpdate carries the field deltas written back after a pipeline
// run. Nil pointers clear nothing; they persist as NULL only for fields that
// were never collected.
type ConversationUpdate struct {
	Name             *string
	BirthDate        *string
	WeightLossReason *string
	Qualified        *bool
	FunnelStep       funnel.Step
	Status           Status
	LastActivity     time.Time
	FinishedAt       *time.Time
}

// ConversationStore is the PostgreSQL-backed store for conversations and
// messages.
type ConversationStore struct {
	db *db.DB
}

func NewConversationStore(database *db.DB) *ConversationStore {
	return &ConversationStore{db: database}
}

const conversationColumns = `id, phone_number, name, birth_date, weight_loss_reason,
	qualified, funnel_step, status, last_activity, finished_at, created_at`

// FindActive returns the active conversation for a phone number, or nil when
// there is none.
func (s *ConversationStore) FindActive(ctx context.Context, phoneNumber string) (*Conversation, error) {
	query := `SELECT ` + conversationColumns + `
		FROM conversations
		WHERE phone_number = $1 AND status = $2`
	return s.scanOne(s.db.QueryRowContext(ctx, query, phoneNumber, StatusActive))
}

// Find returns the conversation for a phone number regardless of status, or
// nil when none exists. Only one row per number exists at any time.
func (s *ConversationStore) Find(ctx context.Context, phoneNumber string) (*Conversation, error) {
	query := `SELECT ` + conversationColumns + `
		FROM conversations
		WHERE phone_number = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, phoneNumber))
}

// Create deletes any stale non-active row for the phone number, along with
// its messages, and inserts a fresh conversation at the first funnel step.
func (s *ConversationStore) Create(ctx context.Context, phoneNumber string) (*Conversation, error) {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE phone_number = $1`, phoneNumber); err != nil {
		return nil, fmt.Errorf("failed to delete stale conversations: %w", err)
	}

	now := time.Now().UTC()
	conv := &Conversation{
		ID:           uuid.NewString(),
		PhoneNumber:  phoneNumber,
		FunnelStep:   funnel.StepCollectName,
		Status:       StatusActive,
		LastActivity: now,
		CreatedAt:    now,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, phone_number, funnel_step, status, last_activity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		conv.ID, conv.PhoneNumber, conv.FunnelStep, conv.Status, conv.LastActivity, conv.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// Expire marks a conversation expired; no funnel field is touched afterwards.
func (s *ConversationStore) Expire(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET status = $1, finished_at = $2 WHERE id = $3`,
		StatusExpired, at, id,
	)
	if err != nil {
		return fmt.Errorf("failed to expire conversation: %w", err)
	}
	return nil
}

// Update writes the post-run field deltas and returns the stored row.
func (s *ConversationStore) Update(ctx context.Context, id string, upd ConversationUpdate) (*Conversation, error) {
	query := `UPDATE conversations
		SET name = $1, birth_date = $2, weight_loss_reason = $3, qualified = $4,
			funnel_step = $5, status = $6, last_activity = $7, finished_at = $8
		WHERE id = $9
		RETURNING ` + conversationColumns
	row := s.db.QueryRowContext(ctx, query,
		upd.Name, upd.BirthDate, upd.WeightLossReason, upd.Qualified,
		upd.FunnelStep, upd.Status, upd.LastActivity, upd.FinishedAt, id,
	)
	conv, err := s.scanOne(row)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation %s not found", id)
	}
	return conv, nil
}

// AppendMessage appends one turn to the conversation history.
func (s *ConversationStore) AppendMessage(ctx context.Context, conversationID, role, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, timestamp)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), conversationID, role, content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Messages returns a conversation's history ordered by timestamp ascending.
func (s *ConversationStore) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, timestamp
		FROM messages
		WHERE conversation_id = $1
		ORDER BY timestamp ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *ConversationStore) scanOne(row *sql.Row) (*Conversation, error) {
	var conv Conversation
	err := row.Scan(
		&conv.ID,
		&conv.PhoneNumber,
		&conv.Name,
		&conv.BirthDate,
		&conv.WeightLossReason,
		&conv.Qualified,
		&conv.FunnelStep,
		&conv.Status,
		&conv.LastActivity,
		&conv.FinishedAt,
		&conv.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}
	return &conv, nil
}
