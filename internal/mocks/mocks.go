package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messaging-service/internal/auth"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) Create(ctx context.Context, profile models.Profile) (models.Profile, error) {
	args := m.Called(ctx, profile)
	var result models.Profile
	if val := args.Get(0); val != nil {
		result = val.(models.Profile)
	}
	return result, args.Error(1)
}

func (m *ProfileRepositoryMock) GetByUsername(ctx context.Context, username string) (models.Profile, error) {
	args := m.Called(ctx, username)
	var result models.Profile
	if val := args.Get(0); val != nil {
		result = val.(models.Profile)
	}
	return result, args.Error(1)
}

func (m *ProfileRepositoryMock) GetByExternalID(ctx context.Context, externalID string) (models.Profile, error) {
	args := m.Called(ctx, externalID)
	var result models.Profile
	if val := args.Get(0); val != nil {
		result = val.(models.Profile)
	}
	return result, args.Error(1)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) Create(ctx context.Context, chat models.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

func (m *ChatRepositoryMock) GetByID(ctx context.Context, chatID string) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetByParticipants(ctx context.Context, userID, peerID string) (models.Chat, error) {
	args := m.Called(ctx, userID, peerID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

func (m *ChatRepositoryMock) AppendMessage(ctx context.Context, chatID, messageID string) error {
	args := m.Called(ctx, chatID, messageID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) ResetUnread(ctx context.Context, chatIDs []string) (int64, error) {
	args := m.Called(ctx, chatIDs)
	return args.Get(0).(int64), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var result models.Message
	if val := args.Get(0); val != nil {
		result = val.(models.Message)
	}
	return result, args.Error(1)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var result models.Message
	if val := args.Get(0); val != nil {
		result = val.(models.Message)
	}
	return result, args.Error(1)
}

func (m *MessageRepositoryMock) ListForChat(ctx context.Context, chatID string) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, messageIDs []string) (int64, error) {
	args := m.Called(ctx, messageIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) Delete(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) ListChats(ctx context.Context, userID string) ([]models.ChatView, error) {
	args := m.Called(ctx, userID)
	var views []models.ChatView
	if val := args.Get(0); val != nil {
		views = val.([]models.ChatView)
	}
	return views, args.Error(1)
}

func (m *ChatServiceMock) GetChatWithUser(ctx context.Context, userID, peerUsername string) (models.Chat, error) {
	args := m.Called(ctx, userID, peerUsername)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatServiceMock) SendMessage(ctx context.Context, peerUsername, text, senderID string) (models.Chat, error) {
	args := m.Called(ctx, peerUsername, text, senderID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatServiceMock) MarkAllMessagesAsRead(ctx context.Context, userID string) (models.ReadReceipt, error) {
	args := m.Called(ctx, userID)
	var receipt models.ReadReceipt
	if val := args.Get(0); val != nil {
		receipt = val.(models.ReadReceipt)
	}
	return receipt, args.Error(1)
}

func (m *ChatServiceMock) AddProfile(ctx context.Context, profile models.Profile) (models.Profile, error) {
	args := m.Called(ctx, profile)
	var result models.Profile
	if val := args.Get(0); val != nil {
		result = val.(models.Profile)
	}
	return result, args.Error(1)
}

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) Verify(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

var _ repositories.ProfileRepository = (*ProfileRepositoryMock)(nil)
var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ auth.Verifier = (*VerifierMock)(nil)
