package models

import "time"

// Chat represents a private conversation between exactly two users.
// Participants are stored as external user ids; at most one chat exists
// per unordered pair.
type Chat struct {
	ID            string    `db:"id" json:"id"`
	User1ID       string    `db:"user1_id" json:"user1_id"`
	User2ID       string    `db:"user2_id" json:"user2_id"`
	LastMessageID *string   `db:"last_message_id" json:"last_message_id,omitempty"`
	UnreadCount   int       `db:"unread_count" json:"unread_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// PeerOf returns the participant that is not the given user.
func (c Chat) PeerOf(userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// HasParticipant reports whether the user belongs to the chat.
func (c Chat) HasParticipant(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// ChatView is a chat with its peer profile, message history and last
// message populated for API responses.
type ChatView struct {
	Chat
	Peer        *Profile  `json:"peer,omitempty"`
	Messages    []Message `json:"messages"`
	LastMessage *Message  `json:"last_message,omitempty"`
}
