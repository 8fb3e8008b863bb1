package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/findr-app/findr-api/internal/models"
)

// AuthorizeFunc проверяет, имеет ли пользователь доступ к сессии чата
type AuthorizeFunc func(sessionID, userID string) bool

// LoadMessagesFunc загружает все сообщения сессии в порядке отправки
type LoadMessagesFunc func(sessionID string) ([]models.ChatMessage, error)

// Manager представляет центральный менеджер для всех WebSocket соединений.
// Клиенты подписываются на сессии чатов и при каждом новом сообщении
// получают полную актуальную последовательность сообщений сессии.
type Manager struct {
	clients      map[uuid.UUID]*Client
	clientsMutex sync.RWMutex

	sessionSubs    map[string]map[uuid.UUID]bool // sessionID -> map[clientID]bool
	clientSessions map[uuid.UUID]map[string]bool // clientID -> map[sessionID]bool
	subsMutex      sync.RWMutex

	authorize    AuthorizeFunc
	loadMessages LoadMessagesFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// EventType определяет тип события WebSocket
type EventType string

const (
	EventSubscribe   EventType = "subscribe"
	EventUnsubscribe EventType = "unsubscribe"
	EventMessages    EventType = "messages"
	EventError       EventType = "error"
)

// Event представляет структуру сообщения для WebSocket
type Event struct {
	Type      EventType            `json:"type"`
	SessionID string               `json:"session_id,omitempty"`
	Messages  []models.ChatMessage `json:"messages,omitempty"`
	Error     string               `json:"error,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// NewManager создает новый экземпляр Manager
func NewManager(authorize AuthorizeFunc, loadMessages LoadMessagesFunc) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		clients:        make(map[uuid.UUID]*Client),
		sessionSubs:    make(map[string]map[uuid.UUID]bool),
		clientSessions: make(map[uuid.UUID]map[string]bool),
		authorize:      authorize,
		loadMessages:   loadMessages,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// AddClient регистрирует нового клиента
func (m *Manager) AddClient(client *Client) {
	m.clientsMutex.Lock()
	m.clients[client.ID] = client
	m.clientsMutex.Unlock()

	log.Printf("WebSocket client %s connected for user %s", client.ID, client.UserID)
}

// RemoveClient удаляет клиента и все его подписки
func (m *Manager) RemoveClient(clientID uuid.UUID) {
	m.clientsMutex.RLock()
	client, exists := m.clients[clientID]
	m.clientsMutex.RUnlock()

	if !exists {
		return
	}

	// Снимаем все подписки клиента
	m.subsMutex.Lock()
	for sessionID := range m.clientSessions[clientID] {
		if subs, ok := m.sessionSubs[sessionID]; ok {
			delete(subs, clientID)
			if len(subs) == 0 {
				delete(m.sessionSubs, sessionID)
			}
		}
	}
	delete(m.clientSessions, clientID)
	m.subsMutex.Unlock()

	m.clientsMutex.Lock()
	delete(m.clients, clientID)
	m.clientsMutex.Unlock()

	log.Printf("WebSocket client %s disconnected for user %s", clientID, client.UserID)
}

// Subscribe подписывает клиента на обновления сессии. При успехе клиент
// сразу получает полную последовательность сообщений. При отказе в доступе
// клиент получает событие об ошибке, подписка не создается.
func (m *Manager) Subscribe(client *Client, sessionID string) {
	if sessionID == "" {
		m.sendEvent(client, Event{
			Type:      EventError,
			SessionID: sessionID,
			Error:     "Не указан ID сессии",
			Timestamp: time.Now(),
		})
		return
	}

	if m.authorize != nil && !m.authorize(sessionID, client.UserID) {
		m.sendEvent(client, Event{
			Type:      EventError,
			SessionID: sessionID,
			Error:     "У вас нет доступа к этому чату",
			Timestamp: time.Now(),
		})
		return
	}

	m.subsMutex.Lock()
	if _, exists := m.sessionSubs[sessionID]; !exists {
		m.sessionSubs[sessionID] = make(map[uuid.UUID]bool)
	}
	m.sessionSubs[sessionID][client.ID] = true

	if _, exists := m.clientSessions[client.ID]; !exists {
		m.clientSessions[client.ID] = make(map[string]bool)
	}
	m.clientSessions[client.ID][sessionID] = true
	m.subsMutex.Unlock()

	m.pushMessages(client, sessionID)
}

// Unsubscribe снимает подписку клиента с сессии
func (m *Manager) Unsubscribe(client *Client, sessionID string) {
	m.subsMutex.Lock()
	if subs, ok := m.sessionSubs[sessionID]; ok {
		delete(subs, client.ID)
		if len(subs) == 0 {
			delete(m.sessionSubs, sessionID)
		}
	}
	delete(m.clientSessions[client.ID], sessionID)
	m.subsMutex.Unlock()
}

// NotifySession отправляет всем подписчикам сессии ее полную
// последовательность сообщений
func (m *Manager) NotifySession(sessionID string) {
	m.subsMutex.RLock()
	clientIDs := make([]uuid.UUID, 0, len(m.sessionSubs[sessionID]))
	for clientID := range m.sessionSubs[sessionID] {
		clientIDs = append(clientIDs, clientID)
	}
	m.subsMutex.RUnlock()

	if len(clientIDs) == 0 {
		return
	}

	messages, err := m.loadMessages(sessionID)
	if err != nil {
		log.Printf("Ошибка загрузки сообщений сессии %s: %v", sessionID, err)
		return
	}

	event := Event{
		Type:      EventMessages,
		SessionID: sessionID,
		Messages:  messages,
		Timestamp: time.Now(),
	}

	for _, clientID := range clientIDs {
		m.clientsMutex.RLock()
		client, exists := m.clients[clientID]
		m.clientsMutex.RUnlock()

		if exists {
			m.sendEvent(client, event)
		}
	}
}

// pushMessages отправляет клиенту текущую последовательность сообщений сессии
func (m *Manager) pushMessages(client *Client, sessionID string) {
	messages, err := m.loadMessages(sessionID)
	if err != nil {
		log.Printf("Ошибка загрузки сообщений сессии %s: %v", sessionID, err)
		m.sendEvent(client, Event{
			Type:      EventError,
			SessionID: sessionID,
			Error:     "Ошибка получения сообщений",
			Timestamp: time.Now(),
		})
		return
	}

	m.sendEvent(client, Event{
		Type:      EventMessages,
		SessionID: sessionID,
		Messages:  messages,
		Timestamp: time.Now(),
	})
}

// sendEvent сериализует событие и ставит его в очередь отправки клиента
func (m *Manager) sendEvent(client *Client, event Event) {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	select {
	case client.send <- eventJSON:
		// Сообщение успешно добавлено в очередь отправки
	default:
		// Канал заполнен, клиент слишком медленный - закрываем соединение
		log.Printf("Send channel full for client %s, closing connection", client.ID)
		client.conn.Close()
		m.RemoveClient(client.ID)
	}
}

// Shutdown корректно завершает работу менеджера WebSocket
func (m *Manager) Shutdown() {
	m.cancel()

	m.clientsMutex.Lock()
	for _, client := range m.clients {
		client.conn.Close()
	}
	m.clients = make(map[uuid.UUID]*Client)
	m.clientsMutex.Unlock()

	m.subsMutex.Lock()
	m.sessionSubs = make(map[string]map[uuid.UUID]bool)
	m.clientSessions = make(map[uuid.UUID]map[string]bool)
	m.subsMutex.Unlock()
}
