package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"messaging-service/internal/auth"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/registry"
	"messaging-service/internal/repositories"
)

const wsEventsRoutingKey = "ws_events.messaging"

// ChatService is the subset of the chat service the gateway drives.
type ChatService interface {
	SendMessage(ctx context.Context, peerUsername, text, senderID string) (models.Chat, error)
	GetChatWithUser(ctx context.Context, userID, peerUsername string) (models.Chat, error)
}

// ProfileDirectory resolves sender display names for delivery events.
type ProfileDirectory interface {
	GetByExternalID(ctx context.Context, externalID string) (models.Profile, error)
}

// Gateway terminates websocket connections, authenticates them and routes
// chat events between the service layer and the connection registry.
type Gateway struct {
	registry *registry.Registry
	service  ChatService
	profiles ProfileDirectory
	verifier auth.Verifier
	logger   *zap.Logger
}

// NewGateway constructs a Gateway.
func NewGateway(reg *registry.Registry, service ChatService, profiles ProfileDirectory, verifier auth.Verifier, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		registry: reg,
		service:  service,
		profiles: profiles,
		verifier: verifier,
		logger:   logger,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates the handshake, registers the connection and starts
// the per-connection event loop. Authentication failures terminate the
// connection before any event is processed.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messaging-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := auth.BearerFromRequest(c.Request)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credential"})
		return
	}

	userID, err := g.verifier.Verify(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	// The display name travels with delivery events; a user without a
	// profile yet is identified by their raw external id.
	username := userID
	if profile, err := g.profiles.GetByExternalID(ctx, userID); err == nil {
		username = profile.Username
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := newClient(conn, userID, username, info)

	if _, replaced := g.registry.Put(userID, client); replaced {
		// Last connect wins: the older handle stays open but receives no
		// further pushes.
		g.logger.Info("connection replaced", zap.String("user_id", userID), zap.String("conn_id", info.ConnID))
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	g.publishLifecycleEvent(ctx, "ws_connect", info, "")

	if err := client.SendEvent(EventConnectionSuccess, ConnectionSuccess{UserID: userID}); err != nil {
		g.logger.Warn("greeting write failed", zap.String("user_id", userID), zap.Error(err))
	}

	go g.readLoop(client)
}

// readLoop processes inbound events sequentially for one connection.
// Handlers across connections run concurrently; within a connection events
// are never reordered.
func (g *Gateway) readLoop(client *Client) {
	var closeReason string
	defer func() {
		g.registry.RemoveIfCurrent(client.userID, client)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		g.publishLifecycleEvent(context.Background(), "ws_disconnect", client.info, closeReason)
		client.Close()
	}()

	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				g.publishLifecycleEvent(context.Background(), "ws_error", client.info, closeReason)
			}
			return
		}

		var event ClientEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			g.sendError(client, "malformed event payload")
			continue
		}
		g.dispatch(context.Background(), client, event)
	}
}

func (g *Gateway) dispatch(ctx context.Context, client *Client, event ClientEvent) {
	observability.IncWSEvent(event.Event)
	switch event.Event {
	case EventSendMessage:
		g.handleSendMessage(ctx, client, event.Data)
	case EventJoinChat:
		g.handleJoinChat(ctx, client, event.Data)
	case EventMarkAsRead:
		g.handleMarkAsRead(client, event.Data)
	default:
		g.sendError(client, fmt.Sprintf("unknown event %q", event.Event))
	}
}

// handleSendMessage persists the message and fans the delivery event out to
// sender and recipient. Service failures are reported only to the initiating
// connection; a broken recipient handle is evicted without failing the send.
func (g *Gateway) handleSendMessage(ctx context.Context, client *Client, data json.RawMessage) {
	var req SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		g.sendError(client, "malformed send_message payload")
		g.sendEvent(client, EventSendMessageAck, SendMessageAck{Success: false, Error: "malformed send_message payload"})
		return
	}

	chat, err := g.service.SendMessage(ctx, req.Username, req.Text, client.userID)
	if err != nil {
		g.logger.Warn("send message failed",
			zap.String("user_id", client.userID),
			zap.String("peer", req.Username),
			zap.Error(err))
		g.sendError(client, err.Error())
		g.sendEvent(client, EventSendMessageAck, SendMessageAck{Success: false, Error: err.Error()})
		return
	}

	delivery := MessageEvent{
		Text:           req.Text,
		SenderID:       client.userID,
		ChatID:         chat.ID,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		IsRead:         false,
		SenderUsername: client.username,
	}
	g.sendEvent(client, EventMessageSent, delivery)

	ack := SendMessageAck{Success: true, Message: "Message sent successfully"}
	recipientID := chat.PeerOf(client.userID)
	if recipient, ok := g.registry.Get(recipientID); ok {
		if err := recipient.SendEvent(EventNewMessage, delivery); err != nil {
			// The message is already durable; a broken handle only costs
			// live delivery.
			g.registry.Remove(recipientID)
			observability.IncStalePush()
			g.logger.Warn("recipient push failed, evicted stale connection",
				zap.String("recipient_id", recipientID), zap.Error(err))
			ack.Message = "Message saved but recipient is disconnected"
		}
	}
	g.sendEvent(client, EventSendMessageAck, ack)
}

// handleJoinChat resolves the existing chat with the named user. It never
// creates chats; only send_message does.
func (g *Gateway) handleJoinChat(ctx context.Context, client *Client, data json.RawMessage) {
	var req JoinChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		g.sendError(client, "malformed join_chat payload")
		g.sendEvent(client, EventJoinChatAck, JoinChatAck{Success: false, Error: "malformed join_chat payload"})
		return
	}

	chat, err := g.service.GetChatWithUser(ctx, client.userID, req.Username)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, repositories.ErrChatNotFound) {
			msg = fmt.Sprintf("chat with user %q not found", req.Username)
		}
		g.sendError(client, msg)
		g.sendEvent(client, EventJoinChatAck, JoinChatAck{Success: false, Error: msg})
		return
	}

	g.sendEvent(client, EventJoinChatAck, JoinChatAck{Success: true, ChatID: chat.ID})
}

// handleMarkAsRead acknowledges the event.
// TODO: route to MarkAllMessagesAsRead semantics scoped to the single chat
// once the read sweep supports a chat filter.
func (g *Gateway) handleMarkAsRead(client *Client, data json.RawMessage) {
	var req MarkAsReadRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ChatID == "" {
		g.sendError(client, "malformed mark_as_read payload")
		g.sendEvent(client, EventMarkAsReadAck, MarkAsReadAck{Success: false})
		return
	}
	g.sendEvent(client, EventMarkAsReadAck, MarkAsReadAck{Success: true})
}

func (g *Gateway) sendEvent(client *Client, event string, data any) {
	if err := client.SendEvent(event, data); err != nil {
		g.logger.Warn("event write failed",
			zap.String("user_id", client.userID),
			zap.String("event", event),
			zap.Error(err))
	}
}

func (g *Gateway) sendError(client *Client, message string) {
	g.sendEvent(client, EventError, ErrorEvent{Message: message})
}

func (g *Gateway) publishLifecycleEvent(ctx context.Context, name string, info ConnInfo, reason string) {
	_ = observability.PublishEvent(ctx, wsEventsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload: observability.WSEventPayload{
			Event:      name,
			ConnID:     info.ConnID,
			UserID:     info.UserID,
			DeviceID:   info.DeviceID,
			IP:         info.IP,
			DurationMS: time.Since(info.ConnectedAt).Milliseconds(),
			Reason:     reason,
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
