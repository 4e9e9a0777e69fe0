package ws

import "encoding/json"

// Inbound event names accepted over the websocket.
const (
	EventSendMessage = "send_message"
	EventJoinChat    = "join_chat"
	EventMarkAsRead  = "mark_as_read"
)

// Outbound event names pushed to clients.
const (
	EventConnectionSuccess = "connection_success"
	EventMessageSent       = "message_sent"
	EventNewMessage        = "new_message"
	EventError             = "error"
	EventSendMessageAck    = "send_message_ack"
	EventJoinChatAck       = "join_chat_ack"
	EventMarkAsReadAck     = "mark_as_read_ack"
)

// ClientEvent is the envelope every inbound frame must carry. Payloads are
// kept raw until the event name selects a typed request to parse into.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent is the envelope for outbound frames.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// SendMessageRequest asks to deliver text to the named user.
type SendMessageRequest struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

// JoinChatRequest asks for the existing chat with the named user.
type JoinChatRequest struct {
	Username string `json:"username"`
}

// MarkAsReadRequest acknowledges messages of a single chat.
type MarkAsReadRequest struct {
	ChatID string `json:"chatId"`
}

// SendMessageAck reports the outcome of a send_message event.
type SendMessageAck struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JoinChatAck reports the outcome of a join_chat event.
type JoinChatAck struct {
	Success bool   `json:"success"`
	ChatID  string `json:"chatId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MarkAsReadAck acknowledges a mark_as_read event.
type MarkAsReadAck struct {
	Success bool `json:"success"`
}

// ConnectionSuccess greets a freshly authenticated connection.
type ConnectionSuccess struct {
	UserID string `json:"userId"`
}

// ErrorEvent carries a failure back to the initiating connection only.
type ErrorEvent struct {
	Message string `json:"message"`
}

// MessageEvent is the delivery payload pushed to sender (message_sent) and
// recipient (new_message).
type MessageEvent struct {
	Text           string `json:"text"`
	SenderID       string `json:"senderId"`
	ChatID         string `json:"chatId"`
	CreatedAt      string `json:"createdAt"`
	IsRead         bool   `json:"isRead"`
	SenderUsername string `json:"senderUsername"`
}
