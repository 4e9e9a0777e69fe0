package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messaging-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	Create(ctx context.Context, msg models.Message) (models.Message, error)
	Get(ctx context.Context, messageID string) (models.Message, error)
	ListForChat(ctx context.Context, chatID string) ([]models.Message, error)
	MarkRead(ctx context.Context, messageIDs []string) (int64, error)
	Delete(ctx context.Context, messageID string) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create stores a message and returns it with its append sequence assigned.
func (r *MessageRepo) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, chat_id, text, sender_profile_id, sender_external_id, is_read, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING seq`,
		msg.ID, msg.ChatID, msg.Text, msg.SenderProfileID, msg.SenderExternalID, msg.IsRead, msg.CreatedAt,
	).Scan(&msg.Seq)
	return msg, err
}

// Get retrieves a single message.
func (r *MessageRepo) Get(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT id, chat_id, seq, text, sender_profile_id, sender_external_id, is_read, created_at
         FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListForChat returns the chat's messages in send order.
func (r *MessageRepo) ListForChat(ctx context.Context, chatID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, chat_id, seq, text, sender_profile_id, sender_external_id, is_read, created_at
         FROM messages WHERE chat_id=$1 ORDER BY seq ASC`, chatID)
	return msgs, err
}

// MarkRead flips is_read for the given message ids in one batch and reports
// how many rows actually changed.
func (r *MessageRepo) MarkRead(ctx context.Context, messageIDs []string) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = TRUE WHERE id = ANY($1) AND is_read = FALSE`,
		pq.Array(messageIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a message by id. Used as the compensating action when chat
// linkage fails after the message was already persisted.
func (r *MessageRepo) Delete(ctx context.Context, messageID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	return err
}
