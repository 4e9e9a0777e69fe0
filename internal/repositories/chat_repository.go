package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messaging-service/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	Create(ctx context.Context, chat models.Chat) error
	GetByID(ctx context.Context, chatID string) (models.Chat, error)
	GetByParticipants(ctx context.Context, userID, peerID string) (models.Chat, error)
	ListForUser(ctx context.Context, userID string) ([]models.Chat, error)
	AppendMessage(ctx context.Context, chatID, messageID string) error
	ResetUnread(ctx context.Context, chatIDs []string) (int64, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// Create inserts a new chat row.
func (r *ChatRepo) Create(ctx context.Context, chat models.Chat) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chats (id, user1_id, user2_id, last_message_id, unread_count)
         VALUES ($1, $2, $3, $4, $5)`,
		chat.ID, chat.User1ID, chat.User2ID, chat.LastMessageID, chat.UnreadCount)
	return err
}

// GetByID fetches a chat by id.
func (r *ChatRepo) GetByID(ctx context.Context, chatID string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat,
		`SELECT id, user1_id, user2_id, last_message_id, unread_count, created_at FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// GetByParticipants finds the chat between two users, checking both
// participant orderings.
func (r *ChatRepo) GetByParticipants(ctx context.Context, userID, peerID string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat,
		`SELECT id, user1_id, user2_id, last_message_id, unread_count, created_at FROM chats
         WHERE (user1_id=$1 AND user2_id=$2) OR (user1_id=$2 AND user2_id=$1)`,
		userID, peerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// ListForUser returns every chat where the user is either participant,
// newest first.
func (r *ChatRepo) ListForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats,
		`SELECT id, user1_id, user2_id, last_message_id, unread_count, created_at FROM chats
         WHERE user1_id=$1 OR user2_id=$1
         ORDER BY created_at DESC`, userID)
	return chats, err
}

// AppendMessage links a freshly stored message to the chat: last_message_id
// is replaced and unread_count is incremented in place so concurrent sends
// never lose a count to a stale read.
func (r *ChatRepo) AppendMessage(ctx context.Context, chatID, messageID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chats SET last_message_id=$2, unread_count = unread_count + 1 WHERE id=$1`,
		chatID, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChatNotFound
	}
	return nil
}

// ResetUnread zeroes the unread counter for the given chats and reports how
// many rows actually changed. Chats already at zero are left untouched.
func (r *ChatRepo) ResetUnread(ctx context.Context, chatIDs []string) (int64, error) {
	if len(chatIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE chats SET unread_count = 0 WHERE id = ANY($1) AND unread_count > 0`,
		pq.Array(chatIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
