package models

import (
	"testing"

	"github.com/google/uuid"
)

// TestSummaryHidesFoundImage проверяет, что фото найденной вещи
// не попадает в списки объявлений
func TestSummaryHidesFoundImage(t *testing.T) {
	imageURL := "https://example.com/photo.jpg"

	tests := []struct {
		name      string
		itemType  string
		wantImage bool
	}{
		{
			name:      "lost item keeps image",
			itemType:  ItemTypeLost,
			wantImage: true,
		},
		{
			name:      "found item hides image",
			itemType:  ItemTypeFound,
			wantImage: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := Post{
				ID:          uuid.New(),
				UserID:      uuid.New(),
				Description: "Черный кошелек",
				Location:    "Парк Горького",
				ItemType:    tt.itemType,
				ImageURL:    &imageURL,
			}

			summary := post.Summary()

			if tt.wantImage {
				if summary.ImageURL == nil || *summary.ImageURL != imageURL {
					t.Errorf("expected image url %q in summary, got %v", imageURL, summary.ImageURL)
				}
			} else if summary.ImageURL != nil {
				t.Errorf("expected no image url in summary, got %q", *summary.ImageURL)
			}

			if summary.Description != post.Description {
				t.Errorf("summary description mismatch: got %q", summary.Description)
			}
		})
	}
}

// TestNormalizeItemType проверяет приведение типа объявления
func TestNormalizeItemType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{ItemTypeLost, ItemTypeLost},
		{ItemTypeFound, ItemTypeFound},
		{"", ItemTypeLost},
		{"lost", ItemTypeLost},
		{"unknown", ItemTypeLost},
	}

	for _, tt := range tests {
		if got := NormalizeItemType(tt.input); got != tt.want {
			t.Errorf("NormalizeItemType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
