package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/auth"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/registry"
	"messaging-service/internal/repositories"
)

var gatewaySecret = []byte("gateway-test-secret")

var _ ChatService = (*mocks.ChatServiceMock)(nil)
var _ ProfileDirectory = (*mocks.ProfileRepositoryMock)(nil)

type gatewayFixture struct {
	server   *httptest.Server
	registry *registry.Registry
	service  *mocks.ChatServiceMock
	profiles *mocks.ProfileRepositoryMock
}

func setupGateway(t *testing.T) *gatewayFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := registry.New()
	service := new(mocks.ChatServiceMock)
	profiles := new(mocks.ProfileRepositoryMock)
	gateway := NewGateway(reg, service, profiles, auth.NewJWTVerifier(gatewaySecret), nil)

	r := gin.New()
	r.GET("/ws", gateway.Handle)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &gatewayFixture{server: server, registry: reg, service: service, profiles: profiles}
}

// dial opens an authenticated websocket for the user, expecting the profile
// lookup the handshake performs to already be stubbed by the caller.
func (f *gatewayFixture) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()

	token, err := auth.SignToken(userID, gatewaySecret, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func (f *gatewayFixture) stubProfile(userID, username string) {
	f.profiles.On("GetByExternalID", mock.Anything, userID).
		Return(models.Profile{ID: "prof-" + userID, ExternalUserID: userID, Username: username}, nil)
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ClientEvent{Event: event, Data: payload}))
}

func TestHandshakeRejectsMissingToken(t *testing.T) {
	f := setupGateway(t)

	resp, err := http.Get(f.server.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshakeRejectsInvalidToken(t *testing.T) {
	f := setupGateway(t)

	resp, err := http.Get(f.server.URL + "/ws?token=garbage")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConnectionGreeting(t *testing.T) {
	f := setupGateway(t)
	f.stubProfile("alice", "alice")

	conn := f.dial(t, "alice")

	greeting := readFrame(t, conn)
	require.Equal(t, EventConnectionSuccess, greeting.Event)
	var payload ConnectionSuccess
	require.NoError(t, json.Unmarshal(greeting.Data, &payload))
	assert.Equal(t, "alice", payload.UserID)
}

func TestSendMessageDeliversToConnectedRecipient(t *testing.T) {
	f := setupGateway(t)
	f.stubProfile("alice", "alice")
	f.stubProfile("bob", "bob")

	f.service.On("SendMessage", mock.Anything, "bob", "hello", "alice").
		Return(models.Chat{ID: "chat-1", User1ID: "alice", User2ID: "bob", UnreadCount: 1}, nil).Once()

	bobConn := f.dial(t, "bob")
	readFrame(t, bobConn)

	aliceConn := f.dial(t, "alice")
	readFrame(t, aliceConn)

	sendEvent(t, aliceConn, EventSendMessage, SendMessageRequest{Username: "bob", Text: "hello"})

	echo := readFrame(t, aliceConn)
	require.Equal(t, EventMessageSent, echo.Event)
	var sent MessageEvent
	require.NoError(t, json.Unmarshal(echo.Data, &sent))
	assert.Equal(t, "hello", sent.Text)
	assert.Equal(t, "alice", sent.SenderID)
	assert.Equal(t, "chat-1", sent.ChatID)
	assert.False(t, sent.IsRead)

	ackFrame := readFrame(t, aliceConn)
	require.Equal(t, EventSendMessageAck, ackFrame.Event)
	var ack SendMessageAck
	require.NoError(t, json.Unmarshal(ackFrame.Data, &ack))
	assert.True(t, ack.Success)
	assert.Equal(t, "Message sent successfully", ack.Message)

	push := readFrame(t, bobConn)
	require.Equal(t, EventNewMessage, push.Event)
	var delivered MessageEvent
	require.NoError(t, json.Unmarshal(push.Data, &delivered))
	assert.Equal(t, "hello", delivered.Text)
	assert.Equal(t, "alice", delivered.SenderUsername)

	f.service.AssertExpectations(t)
}

func TestSendMessageServiceErrorReportedToSenderOnly(t *testing.T) {
	f := setupGateway(t)
	f.stubProfile("alice", "alice")

	f.service.On("SendMessage", mock.Anything, "alice", "hi", "alice").
		Return(models.Chat{}, errors.New("cannot send message to yourself")).Once()

	conn := f.dial(t, "alice")
	readFrame(t, conn)

	sendEvent(t, conn, EventSendMessage, SendMessageRequest{Username: "alice", Text: "hi"})

	errFrame := readFrame(t, conn)
	require.Equal(t, EventError, errFrame.Event)

	ackFrame := readFrame(t, conn)
	require.Equal(t, EventSendMessageAck, ackFrame.Event)
	var ack SendMessageAck
	require.NoError(t, json.Unmarshal(ackFrame.Data, &ack))
	assert.False(t, ack.Success)
	assert.Contains(t, ack.Error, "yourself")

	f.service.AssertExpectations(t)
}

type failingConn struct{}

func (failingConn) SendEvent(event string, data any) error {
	return errors.New("broken pipe")
}

func TestSendMessageEvictsStaleRecipientConnection(t *testing.T) {
	f := setupGateway(t)
	f.stubProfile("alice", "alice")

	f.service.On("SendMessage", mock.Anything, "bob", "hello", "alice").
		Return(models.Chat{ID: "chat-1", User1ID: "alice", User2ID: "bob", UnreadCount: 1}, nil).Once()

	conn := f.dial(t, "alice")
	readFrame(t, conn)

	// A registered handle whose transport is already dead.
	f.registry.Put("bob", failingConn{})

	sendEvent(t, conn, EventSendMessage, SendMessageRequest{Username: "bob", Text: "hello"})

	echo := readFrame(t, conn)
	require.Equal(t, EventMessageSent, echo.Event)

	ackFrame := readFrame(t, conn)
	require.Equal(t, EventSendMessageAck, ackFrame.Event)
	var ack SendMessageAck
	require.NoError(t, json.Unmarshal(ackFrame.Data, &ack))
	assert.True(t, ack.Success)
	assert.Equal(t, "Message saved but recipient is disconnected", ack.Message)

	_, stillThere := f.registry.Get("bob")
	assert.False(t, stillThere)

	f.service.AssertExpectations(t)
}

func TestJoinChatAck(t *testing.T) {
	f := setupGateway(t)
	f.stubProfile("alice", "alice")

	f.service.On("GetChatWithUser", mock.Anything, "alice", "bob").
		Return(models.Chat{ID: "chat-1", User1ID: "alice", User2ID: "bob"}, nil).Once()

	conn := f.dial(t, "alice")
	readFrame(t, conn)

	sendEvent(t, conn, EventJoinChat, JoinChatRequest{Username: "bob"})

	ackFrame := readFrame(t, conn)
	require.Equal(t, EventJoinChatAck, ackFrame.Event)
	var ack JoinChatAck
	require.NoError(t, json.Unmarshal(ackFrame.Data, &ack))
	assert.True(t, ack.Success)
	assert.Equal(t, "chat-1", ack.ChatID)

	f.service.AssertExpectations(t)
}

func TestJoinChatUnknownChat(t *testing.T) {
	f := setupGateway(t)
	f.stubProfile("alice", "alice")

	f.service.On("GetChatWithUser", mock.Anything, "alice", "ghost").
		Return(models.Chat{}, repositories.ErrChatNotFound).Once()

	conn := f.dial(t, "alice")
	readFrame(t, conn)

	sendEvent(t, conn, EventJoinChat, JoinChatRequest{Username: "ghost"})

	errFrame := readFrame(t, conn)
	require.Equal(t, EventError, errFrame.Event)

	ackFrame := readFrame(t, conn)
	require.Equal(t, EventJoinChatAck, ackFrame.Event)
	var ack JoinChatAck
	require.NoError(t, json.Unmarshal(ackFrame.Data, &ack))
	assert.False(t, ack.Success)
	assert.Contains(t, ack.Error, "ghost")

	f.service.AssertExpectations(t)
}

func TestMarkAsReadAck(t *testing.T) {
	f := setupGateway(t)
	f.stubProfile("alice", "alice")

	conn := f.dial(t, "alice")
	readFrame(t, conn)

	sendEvent(t, conn, EventMarkAsRead, MarkAsReadRequest{ChatID: "chat-1"})

	ackFrame := readFrame(t, conn)
	require.Equal(t, EventMarkAsReadAck, ackFrame.Event)
	var ack MarkAsReadAck
	require.NoError(t, json.Unmarshal(ackFrame.Data, &ack))
	assert.True(t, ack.Success)
}

func TestUnknownEventReportsError(t *testing.T) {
	f := setupGateway(t)
	f.stubProfile("alice", "alice")

	conn := f.dial(t, "alice")
	readFrame(t, conn)

	sendEvent(t, conn, "typing", map[string]string{})

	errFrame := readFrame(t, conn)
	require.Equal(t, EventError, errFrame.Event)
	var payload ErrorEvent
	require.NoError(t, json.Unmarshal(errFrame.Data, &payload))
	assert.Contains(t, payload.Message, "typing")
}

func TestLastConnectWins(t *testing.T) {
	f := setupGateway(t)
	f.stubProfile("alice", "alice")

	first := f.dial(t, "alice")
	readFrame(t, first)

	firstHandle, ok := f.registry.Get("alice")
	require.True(t, ok)

	// Reconnect under the same identity; the registry must now route pushes
	// to the newer connection.
	replacement := f.dial(t, "alice")
	readFrame(t, replacement)

	currentHandle, ok := f.registry.Get("alice")
	require.True(t, ok)
	assert.NotSame(t, firstHandle, currentHandle)
	assert.Equal(t, 1, f.registry.Len())
}
