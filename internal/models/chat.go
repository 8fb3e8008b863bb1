package models

import (
	"github.com/google/uuid"
)

// ImagePreviewText — текст превью для сообщения без текста
const ImagePreviewText = "[Image]"

// ChatSession представляет чат двух пользователей по конкретному объявлению.
// Идентификатор сессии детерминирован: одна и та же пара и объявление
// всегда дают одну и ту же сессию, кто бы ни написал первым.
type ChatSession struct {
	SessionID            string          `json:"session_id"`
	PostID               uuid.UUID       `json:"post_id"`
	PostImageURL         string          `json:"post_image_url"`
	PostDescription      string          `json:"post_description"`
	Participants         map[string]bool `json:"participants"`
	LastMessage          string          `json:"last_message"`
	LastMessageTimestamp int64           `json:"last_message_timestamp"` // миллисекунды Unix
}

// HasParticipant проверяет участие пользователя в сессии
func (s ChatSession) HasParticipant(userID string) bool {
	return s.Participants[userID]
}

// ChatMessage представляет сообщение в сессии. Сообщения только добавляются,
// порядок задается последовательностью вставки в хранилище.
type ChatMessage struct {
	MessageID uuid.UUID `json:"message_id"`
	SessionID string    `json:"session_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Text      *string   `json:"text,omitempty"`
	ImageURL  *string   `json:"image_url,omitempty"`
	Timestamp int64     `json:"timestamp"` // миллисекунды Unix
}

// PreviewText возвращает текст для превью последнего сообщения
func (m ChatMessage) PreviewText() string {
	if m.Text != nil && *m.Text != "" {
		return *m.Text
	}
	return ImagePreviewText
}
