package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/middleware"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
	"messaging-service/internal/services"
	"messaging-service/internal/telemetry"
)

// ChatService is the service surface the HTTP layer drives.
type ChatService interface {
	ListChats(ctx context.Context, userID string) ([]models.ChatView, error)
	GetChatWithUser(ctx context.Context, userID, peerUsername string) (models.Chat, error)
	SendMessage(ctx context.Context, peerUsername, text, senderID string) (models.Chat, error)
	MarkAllMessagesAsRead(ctx context.Context, userID string) (models.ReadReceipt, error)
	AddProfile(ctx context.Context, profile models.Profile) (models.Profile, error)
}

// ChatHandler manages the chat REST endpoints.
type ChatHandler struct {
	service ChatService
	audit   *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(service ChatService, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{service: service, audit: audit}
}

// ListChats returns the chats visible to the authenticated user, with peer
// profiles and message history populated.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	chats, err := h.service.ListChats(c.Request.Context(), userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "failed to load chats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GetChatWithUser returns the existing chat with the named user, if any.
func (h *ChatHandler) GetChatWithUser(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	username := c.Param("username")

	chat, err := h.service.GetChatWithUser(c.Request.Context(), userID, username)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, chat)
}

// SendMessage stores a message addressed to the named user and returns the
// updated chat. Live delivery happens over the websocket gateway; this
// endpoint only guarantees persistence.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	username := c.Param("username")

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.service.SendMessage(c.Request.Context(), username, req.Text, userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "failed to send message")
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, chat)
}

// MarkAllMessagesAsRead flips every unread message addressed to the user and
// zeroes the unread counters. Safe to repeat; the second call reports zeros.
func (h *ChatHandler) MarkAllMessagesAsRead(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	receipt, err := h.service.MarkAllMessagesAsRead(c.Request.Context(), userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "failed to mark messages as read")
		c.JSON(statusForError(err), gin.H{"error": "failed to mark messages as read"})
		return
	}

	c.JSON(http.StatusOK, receipt)
}

// CreateProfile registers the authenticated user's messaging profile.
func (h *ChatHandler) CreateProfile(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	var req struct {
		Username  string `json:"username" binding:"required"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.service.AddProfile(c.Request.Context(), models.Profile{
		ExternalUserID: userID,
		Username:       req.Username,
		AvatarURL:      req.AvatarURL,
	})
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, profile)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidArgument), errors.Is(err, services.ErrSelfMessage):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrProfileNotFound), errors.Is(err, repositories.ErrChatNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSenderProfileNotFound):
		return http.StatusForbidden
	case errors.Is(err, repositories.ErrDuplicateProfile):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *ChatHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
