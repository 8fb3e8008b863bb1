package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyArgument возвращается, если один из аргументов пуст
	ErrEmptyArgument = errors.New("идентификаторы участников и объявления не могут быть пустыми")

	// ErrSameParticipant возвращается при попытке открыть чат с самим собой
	ErrSameParticipant = errors.New("участники сессии должны быть разными пользователями")
)

// DeriveSessionID вычисляет детерминированный идентификатор сессии чата
// для пары пользователей и объявления. Меньший по лексикографическому
// порядку идентификатор всегда идет первым, поэтому результат не зависит
// от того, кто из участников инициировал контакт.
func DeriveSessionID(idA, idB, postID string) (string, error) {
	if idA == "" || idB == "" || postID == "" {
		return "", ErrEmptyArgument
	}
	if idA == idB {
		return "", ErrSameParticipant
	}

	low, high := idA, idB
	if high < low {
		low, high = high, low
	}

	return fmt.Sprintf("%s_%s_%s", low, high, postID), nil
}
