package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы объявлений
const (
	ItemTypeLost  = "Lost"
	ItemTypeFound = "Found"
)

// Post представляет объявление о потерянной или найденной вещи
type Post struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	ItemType    string    `json:"item_type"` // Lost, Found
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Дополнительные поля для API
	User *User `json:"user,omitempty"`
}

// PostSummary представляет проекцию объявления для списков.
// Фото "Found" объявлений в списках не отдается: оно служит
// подтверждением владельца и показывается только нашедшему.
type PostSummary struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	ItemType    string    `json:"item_type"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary возвращает проекцию объявления для списков
func (p Post) Summary() PostSummary {
	s := PostSummary{
		ID:          p.ID,
		UserID:      p.UserID,
		Description: p.Description,
		Location:    p.Location,
		ItemType:    p.ItemType,
		CreatedAt:   p.CreatedAt,
	}
	if p.ItemType != ItemTypeFound {
		s.ImageURL = p.ImageURL
	}
	return s
}

// NormalizeItemType приводит тип объявления к допустимому значению
func NormalizeItemType(itemType string) string {
	switch itemType {
	case ItemTypeLost, ItemTypeFound:
		return itemType
	default:
		return ItemTypeLost // По умолчанию - потерянное
	}
}

// User представляет минимальную информацию о пользователе для API
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email,omitempty"`
	Name  string    `json:"name,omitempty"`
}
