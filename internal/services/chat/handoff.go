package chat

import (
	"errors"
	"sync"
)

var (
	// ErrHandoffNotArmed возвращается, если для пары (сессия, пользователь)
	// нет подготовленного проверочного фото
	ErrHandoffNotArmed = errors.New("проверочное фото не подготовлено")

	// ErrHandoffFired возвращается при повторной попытке отправить
	// уже отправленное проверочное фото
	ErrHandoffFired = errors.New("проверочное фото уже отправлено")
)

type handoffState int

const (
	handoffArmed handoffState = iota
	handoffFired
)

type handoff struct {
	state    handoffState
	photoURL string
}

// HandoffRegistry хранит подготовленные проверочные фото. Запись создается
// при открытии чата с фото находки и срабатывает ровно один раз: после
// отправки или отказа повторная отправка невозможна до нового открытия чата.
// Отклоненные записи удаляются сразу; отправленные остаются до следующего
// открытия чата, иначе повторную отправку нельзя отличить от отсутствующей.
type HandoffRegistry struct {
	mu      sync.Mutex
	entries map[string]*handoff
}

func NewHandoffRegistry() *HandoffRegistry {
	return &HandoffRegistry{
		entries: make(map[string]*handoff),
	}
}

func handoffKey(sessionID, userID string) string {
	return sessionID + "\n" + userID
}

// Arm подготавливает проверочное фото для пользователя в сессии.
// Повторное открытие чата подготавливает фото заново.
func (r *HandoffRegistry) Arm(sessionID, userID, photoURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[handoffKey(sessionID, userID)] = &handoff{
		state:    handoffArmed,
		photoURL: photoURL,
	}
}

// Confirm переводит подготовленное фото в отправленное и возвращает его URL.
func (r *HandoffRegistry) Confirm(sessionID, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[handoffKey(sessionID, userID)]
	if !ok {
		return "", ErrHandoffNotArmed
	}
	if entry.state == handoffFired {
		return "", ErrHandoffFired
	}

	entry.state = handoffFired
	return entry.photoURL, nil
}

// Dismiss отклоняет подготовленное фото и освобождает запись.
// Отклонение уже отправленного или отсутствующего фото не является ошибкой.
func (r *HandoffRegistry) Dismiss(sessionID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := handoffKey(sessionID, userID)
	entry, ok := r.entries[key]
	if ok && entry.state == handoffArmed {
		delete(r.entries, key)
	}
}

// Armed сообщает, подготовлено ли фото для пользователя в сессии.
func (r *HandoffRegistry) Armed(sessionID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[handoffKey(sessionID, userID)]
	return ok && entry.state == handoffArmed
}
