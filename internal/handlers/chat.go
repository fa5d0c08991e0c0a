package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"varta/server/internal/models"
	"varta/server/internal/providers"
	"varta/server/internal/services"
)

type ChatHandler struct {
	chats services.ChatService
	media providers.MediaUploader
}

func NewChatHandler(chats services.ChatService, media providers.MediaUploader) *ChatHandler {
	return &ChatHandler{chats: chats, media: media}
}

// SendMessage creates a message between two users, finding or creating their
// 1:1 conversation on the way. A request needs text content or a media file.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	file, err := receiveUpload(r, "media")
	if err != nil {
		respondError(w, err)
		return
	}
	defer file.Remove()

	senderID, err1 := strconv.Atoi(r.FormValue("senderId"))
	receiverID, err2 := strconv.Atoi(r.FormValue("receiverId"))
	if err1 != nil || err2 != nil {
		writeMessage(w, http.StatusBadRequest, "SenderId and ReceiverId are required")
		return
	}

	content := strings.TrimSpace(r.FormValue("content"))

	in := services.SendMessageInput{
		SenderID:   senderID,
		ReceiverID: receiverID,
	}
	if content != "" {
		in.Content = &content
	}
	if status := models.MessageStatus(r.FormValue("messageStatus")); status.Valid() {
		in.Status = status
	}

	switch {
	case file != nil:
		mediaURL, contentType, err := pushToMediaHost(r.Context(), h.media, file)
		if err != nil {
			respondError(w, err)
			return
		}
		in.MediaURL = &mediaURL
		in.ContentType = contentType
	case content != "":
		in.ContentType = models.ContentTypeText
	default:
		writeMessage(w, http.StatusBadRequest, "Either content or media file is required")
		return
	}

	message, err := h.chats.SendMessage(r.Context(), in)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "Message sent successfully", "data": message})
}

// GetMessages returns a conversation's messages oldest first. Fetching doubles
// as the caller's read receipt.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	conversationID, err := strconv.Atoi(chi.URLParam(r, "conversationId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid conversation id")
		return
	}

	messages, err := h.chats.GetMessages(r.Context(), conversationID, userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Messages fetched successfully", "data": messages})
}

// messageIDList tolerates both request shapes seen in the wild: a flat id
// array and the legacy double-nested {"messageIds": [...]} object.
type messageIDList []int

func (m *messageIDList) UnmarshalJSON(data []byte) error {
	var flat []int
	if err := json.Unmarshal(data, &flat); err == nil {
		*m = flat
		return nil
	}
	var nested struct {
		MessageIDs []int `json:"messageIds"`
	}
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}
	*m = nested.MessageIDs
	return nil
}

// MarkAsRead flips the given messages to READ where the caller is the
// receiver; ids not addressed to the caller are silently excluded.
func (h *ChatHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		MessageIDs messageIDList `json:"messageIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.MessageIDs) == 0 {
		writeMessage(w, http.StatusBadRequest, "messageIds are required")
		return
	}

	read, err := h.chats.MarkMessagesAsRead(r.Context(), userID, req.MessageIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Messages marked as read", "data": read})
}

// DeleteMessages removes the caller's own messages from the given id set; ids
// the caller did not send are silently excluded.
func (h *ChatHandler) DeleteMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	messageIDs, err := parseIDList(chi.URLParam(r, "messageIds"))
	if err != nil {
		// Fall back to a JSON body for clients that cannot put ids in the path.
		var req struct {
			MessageIDs messageIDList `json:"messageIds"`
		}
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil || len(req.MessageIDs) == 0 {
			writeMessage(w, http.StatusBadRequest, "messageIds are required")
			return
		}
		messageIDs = req.MessageIDs
	}

	deleted, err := h.chats.DeleteMessages(r.Context(), userID, messageIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Messages deleted successfully", "deleted": deleted})
}

func parseIDList(raw string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, models.ErrValidation
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, models.ErrValidation
	}
	return ids, nil
}
