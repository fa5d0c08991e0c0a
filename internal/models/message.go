package models

import (
	"strings"
	"time"
)

type ContentType string

const (
	ContentTypeText     ContentType = "TEXT"
	ContentTypeImage    ContentType = "IMAGE"
	ContentTypeVideo    ContentType = "VIDEO"
	ContentTypeAudio    ContentType = "AUDIO"
	ContentTypeDocument ContentType = "DOCUMENT"
	ContentTypeLocation ContentType = "LOCATION"
)

type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "SENT"
	MessageStatusDelivered MessageStatus = "DELIVERED"
	MessageStatusRead      MessageStatus = "READ"
)

func (s MessageStatus) Valid() bool {
	switch s {
	case MessageStatusSent, MessageStatusDelivered, MessageStatusRead:
		return true
	}
	return false
}

// ContentTypeForMime maps a MIME type to the stored content type by its
// prefix. Anything outside the known prefixes is rejected as unsupported.
func ContentTypeForMime(mimeType string) (ContentType, error) {
	switch {
	case strings.HasPrefix(mimeType, "image"):
		return ContentTypeImage, nil
	case strings.HasPrefix(mimeType, "video"):
		return ContentTypeVideo, nil
	case strings.HasPrefix(mimeType, "audio"):
		return ContentTypeAudio, nil
	case strings.HasPrefix(mimeType, "document"):
		return ContentTypeDocument, nil
	case strings.HasPrefix(mimeType, "location"):
		return ContentTypeLocation, nil
	}
	return "", ErrUnsupportedMediaType
}

type Message struct {
	ID             int           `json:"id" db:"id"`
	ConversationID int           `json:"conversationId" db:"conversation_id"`
	SenderID       int           `json:"senderId" db:"sender_id"`
	ReceiverID     int           `json:"receiverId" db:"receiver_id"`
	Content        *string       `json:"content,omitempty" db:"content"`
	ContentType    ContentType   `json:"contentType" db:"content_type"`
	MediaURL       *string       `json:"mediaUrl,omitempty" db:"media_url"`
	Status         MessageStatus `json:"messageStatus" db:"message_status"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at"`
	Sender         *UserSummary  `json:"sender,omitempty"`
	Receiver       *UserSummary  `json:"receiver,omitempty"`
}
