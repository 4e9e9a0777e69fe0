package models

import "time"

// Message is a single chat message. Once stored it is immutable except for
// the is_read flag.
type Message struct {
	ID               string    `db:"id" json:"id"`
	ChatID           string    `db:"chat_id" json:"chat_id"`
	Seq              int64     `db:"seq" json:"-"`
	Text             string    `db:"text" json:"text"`
	SenderProfileID  string    `db:"sender_profile_id" json:"sender_profile_id"`
	SenderExternalID string    `db:"sender_external_id" json:"sender_external_id"`
	IsRead           bool      `db:"is_read" json:"is_read"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// ReadReceipt reports how many rows a mark-as-read sweep actually changed.
type ReadReceipt struct {
	UpdatedMessagesCount int `json:"updated_messages_count"`
	UpdatedChatsCount    int `json:"updated_chats_count"`
}
