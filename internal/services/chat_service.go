package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

// ChatService owns chat and message invariants: one chat per unordered
// participant pair, append-only message linkage, and a non-negative unread
// counter kept in sync with the messages the peer has not seen yet.
type ChatService struct {
	profiles repositories.ProfileRepository
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	logger   *zap.Logger
}

// NewChatService builds a ChatService.
func NewChatService(profiles repositories.ProfileRepository, chats repositories.ChatRepository, messages repositories.MessageRepository, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		profiles: profiles,
		chats:    chats,
		messages: messages,
		logger:   logger,
	}
}

// ListChats returns every chat involving the user, with the peer profile,
// full message history and last message populated.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]models.ChatView, error) {
	chats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}

	views := make([]models.ChatView, 0, len(chats))
	for _, chat := range chats {
		view := models.ChatView{Chat: chat}

		if peer, err := s.profiles.GetByExternalID(ctx, chat.PeerOf(userID)); err == nil {
			view.Peer = &peer
		}

		msgs, err := s.messages.ListForChat(ctx, chat.ID)
		if err != nil {
			return nil, fmt.Errorf("load messages for chat %s: %w", chat.ID, err)
		}
		view.Messages = msgs

		if chat.LastMessageID != nil {
			for i := range msgs {
				if msgs[i].ID == *chat.LastMessageID {
					view.LastMessage = &msgs[i]
					break
				}
			}
		}

		views = append(views, view)
	}
	return views, nil
}

// GetChatWithUser resolves the peer's profile by username and returns the
// existing chat between the two users. It never creates chats; only
// SendMessage does.
func (s *ChatService) GetChatWithUser(ctx context.Context, userID, peerUsername string) (models.Chat, error) {
	if userID == "" || peerUsername == "" {
		return models.Chat{}, ErrInvalidArgument
	}

	peer, err := s.profiles.GetByUsername(ctx, peerUsername)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return models.Chat{}, ErrProfileNotFound
		}
		return models.Chat{}, fmt.Errorf("resolve peer profile: %w", err)
	}

	return s.chats.GetByParticipants(ctx, userID, peer.ExternalUserID)
}

// SendMessage persists a message to the chat between sender and peer,
// creating the chat on first contact. The message is stored durably before
// the chat is touched; if the chat step then fails, the orphaned message is
// deleted again so no message ever exists outside a chat.
func (s *ChatService) SendMessage(ctx context.Context, peerUsername, text, senderID string) (models.Chat, error) {
	if peerUsername == "" || text == "" || senderID == "" {
		return models.Chat{}, ErrInvalidArgument
	}

	recipient, err := s.profiles.GetByUsername(ctx, peerUsername)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return models.Chat{}, fmt.Errorf("%w: %q", ErrProfileNotFound, peerUsername)
		}
		return models.Chat{}, fmt.Errorf("resolve recipient profile: %w", err)
	}

	// Identities are compared on the external id only; mixing in the local
	// profile id here would let the same user slip through under two keys.
	if recipient.ExternalUserID == senderID {
		return models.Chat{}, ErrSelfMessage
	}

	sender, err := s.profiles.GetByExternalID(ctx, senderID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return models.Chat{}, ErrSenderProfileNotFound
		}
		return models.Chat{}, fmt.Errorf("resolve sender profile: %w", err)
	}

	chat, err := s.chats.GetByParticipants(ctx, senderID, recipient.ExternalUserID)
	chatExists := err == nil
	if err != nil && !errors.Is(err, repositories.ErrChatNotFound) {
		return models.Chat{}, fmt.Errorf("find chat: %w", err)
	}

	chatID := chat.ID
	if !chatExists {
		chatID = uuid.NewString()
	}

	msg := models.Message{
		ID:               uuid.NewString(),
		ChatID:           chatID,
		Text:             text,
		SenderProfileID:  sender.ID,
		SenderExternalID: senderID,
		IsRead:           false,
		CreatedAt:        time.Now().UTC(),
	}
	if _, err := s.messages.Create(ctx, msg); err != nil {
		return models.Chat{}, fmt.Errorf("create message: %w", err)
	}

	if !chatExists {
		chat = models.Chat{
			ID:            chatID,
			User1ID:       senderID,
			User2ID:       recipient.ExternalUserID,
			LastMessageID: &msg.ID,
			UnreadCount:   1,
			CreatedAt:     msg.CreatedAt,
		}
		if err := s.chats.Create(ctx, chat); err != nil {
			s.compensate(ctx, msg.ID)
			return models.Chat{}, fmt.Errorf("%w: create chat: %v", ErrChatOperationFailed, err)
		}
		return chat, nil
	}

	if err := s.chats.AppendMessage(ctx, chat.ID, msg.ID); err != nil {
		s.compensate(ctx, msg.ID)
		return models.Chat{}, fmt.Errorf("%w: update chat: %v", ErrChatOperationFailed, err)
	}
	chat.LastMessageID = &msg.ID
	chat.UnreadCount++
	return chat, nil
}

// compensate removes a message whose chat linkage failed.
func (s *ChatService) compensate(ctx context.Context, messageID string) {
	if err := s.messages.Delete(ctx, messageID); err != nil {
		s.logger.Error("compensating message delete failed",
			zap.String("message_id", messageID), zap.Error(err))
	}
}

// MarkAllMessagesAsRead marks every unread message sent to the user across
// all their chats as read, then zeroes the unread counters. The operation is
// idempotent: a second call reports zero updated rows.
func (s *ChatService) MarkAllMessagesAsRead(ctx context.Context, userID string) (models.ReadReceipt, error) {
	if userID == "" {
		return models.ReadReceipt{}, ErrInvalidArgument
	}

	chats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return models.ReadReceipt{}, fmt.Errorf("list chats: %w", err)
	}
	if len(chats) == 0 {
		return models.ReadReceipt{}, nil
	}

	seen := map[string]struct{}{}
	var messageIDs []string
	collect := func(m models.Message) {
		if m.IsRead || m.SenderExternalID == userID {
			return
		}
		if _, ok := seen[m.ID]; ok {
			return
		}
		seen[m.ID] = struct{}{}
		messageIDs = append(messageIDs, m.ID)
	}

	chatIDs := make([]string, 0, len(chats))
	for _, chat := range chats {
		chatIDs = append(chatIDs, chat.ID)

		msgs, err := s.messages.ListForChat(ctx, chat.ID)
		if err != nil {
			return models.ReadReceipt{}, fmt.Errorf("load messages for chat %s: %w", chat.ID, err)
		}
		for _, m := range msgs {
			collect(m)
		}

		// The last-message slot is checked separately: it can reference a
		// message the history listing did not return.
		if chat.LastMessageID != nil {
			if _, ok := seen[*chat.LastMessageID]; !ok {
				if last, err := s.messages.Get(ctx, *chat.LastMessageID); err == nil {
					collect(last)
				}
			}
		}
	}

	updatedMessages, err := s.messages.MarkRead(ctx, messageIDs)
	if err != nil {
		return models.ReadReceipt{}, fmt.Errorf("mark messages read: %w", err)
	}

	updatedChats, err := s.chats.ResetUnread(ctx, chatIDs)
	if err != nil {
		return models.ReadReceipt{}, fmt.Errorf("reset unread counters: %w", err)
	}

	return models.ReadReceipt{
		UpdatedMessagesCount: int(updatedMessages),
		UpdatedChatsCount:    int(updatedChats),
	}, nil
}

// AddProfile persists a new profile record for a registered user.
func (s *ChatService) AddProfile(ctx context.Context, profile models.Profile) (models.Profile, error) {
	if profile.ExternalUserID == "" || profile.Username == "" {
		return models.Profile{}, ErrInvalidArgument
	}
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	return s.profiles.Create(ctx, profile)
}
