package models

import (
	"testing"
)

// TestPreviewText проверяет текст превью последнего сообщения
func TestPreviewText(t *testing.T) {
	text := "Привет, это ваша вещь?"
	empty := ""
	imageURL := "https://example.com/photo.jpg"

	tests := []struct {
		name    string
		message ChatMessage
		want    string
	}{
		{
			name:    "text message",
			message: ChatMessage{Text: &text},
			want:    text,
		},
		{
			name:    "image message",
			message: ChatMessage{ImageURL: &imageURL},
			want:    ImagePreviewText,
		},
		{
			name:    "text wins over image",
			message: ChatMessage{Text: &text, ImageURL: &imageURL},
			want:    text,
		},
		{
			name:    "empty text treated as image",
			message: ChatMessage{Text: &empty, ImageURL: &imageURL},
			want:    ImagePreviewText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.message.PreviewText(); got != tt.want {
				t.Errorf("PreviewText() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestHasParticipant проверяет определение участников сессии
func TestHasParticipant(t *testing.T) {
	session := ChatSession{
		Participants: map[string]bool{
			"alice": true,
			"bob":   true,
		},
	}

	if !session.HasParticipant("alice") {
		t.Error("alice should be a participant")
	}
	if session.HasParticipant("carol") {
		t.Error("carol should not be a participant")
	}

	// Пустая сессия без участников
	var empty ChatSession
	if empty.HasParticipant("alice") {
		t.Error("empty session should have no participants")
	}
}
