package models

import (
	"time"
)

type Conversation struct {
	ID            int       `json:"id" db:"id"`
	IsGroup       bool      `json:"isGroup" db:"is_group"`
	LastMessageID *int      `json:"lastMessageId,omitempty" db:"last_message_id"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

type ConversationParticipant struct {
	ID             int `json:"id" db:"id"`
	ConversationID int `json:"conversationId" db:"conversation_id"`
	UserID         int `json:"userId" db:"user_id"`
	UnreadCount    int `json:"unreadCount" db:"unread_count"`
}

// ConversationSummary is what the user listing attaches per peer: the shared
// 1:1 conversation, its latest message and the caller's unread counter.
type ConversationSummary struct {
	ID                 int        `json:"id"`
	LastMessageContent *string    `json:"lastMessageContent,omitempty"`
	LastMessageType    *string    `json:"lastMessageType,omitempty"`
	LastMessageAt      *time.Time `json:"lastMessageAt,omitempty"`
	UnreadCount        int        `json:"unreadCount"`
}
