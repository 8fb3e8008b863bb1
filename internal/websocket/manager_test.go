package websocket

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/findr-app/findr-api/internal/models"
)

// testMessages готовит последовательность сообщений сессии
func testMessages(sessionID string, texts ...string) []models.ChatMessage {
	messages := make([]models.ChatMessage, 0, len(texts))
	for i := range texts {
		messages = append(messages, models.ChatMessage{
			MessageID: uuid.New(),
			SessionID: sessionID,
			SenderID:  uuid.New(),
			Text:      &texts[i],
			Timestamp: int64(i + 1),
		})
	}
	return messages
}

// recvEvent читает одно событие из очереди отправки клиента
func recvEvent(t *testing.T, c *Client) Event {
	t.Helper()

	select {
	case raw := <-c.send:
		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return Event{}
}

// assertNoEvent проверяет, что клиенту ничего не отправлено
func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()

	select {
	case raw := <-c.send:
		t.Fatalf("unexpected event: %s", raw)
	default:
	}
}

// TestSubscribeUnauthorized проверяет, что подписка без доступа
// завершается событием об ошибке и не создается
func TestSubscribeUnauthorized(t *testing.T) {
	loaded := false
	manager := NewManager(
		func(sessionID, userID string) bool { return false },
		func(sessionID string) ([]models.ChatMessage, error) {
			loaded = true
			return nil, nil
		},
	)

	client := NewClient("alice", nil, manager)
	manager.AddClient(client)

	manager.Subscribe(client, "alice_bob_post-1")

	event := recvEvent(t, client)
	if event.Type != EventError {
		t.Errorf("got event type %q, want %q", event.Type, EventError)
	}
	if event.Error == "" {
		t.Error("error event should carry a description")
	}

	if len(manager.sessionSubs) != 0 {
		t.Error("no subscription should be created for an unauthorized client")
	}
	if len(manager.clientSessions[client.ID]) != 0 {
		t.Error("client session index should stay empty")
	}
	if loaded {
		t.Error("messages should not be loaded for an unauthorized subscribe")
	}
}

// TestSubscribePushesFullSequence проверяет, что при подписке клиент
// сразу получает всю последовательность сообщений по порядку
func TestSubscribePushesFullSequence(t *testing.T) {
	sessionID := "alice_bob_post-1"
	messages := testMessages(sessionID, "Привет", "Это ваша вещь?")

	manager := NewManager(
		func(string, string) bool { return true },
		func(string) ([]models.ChatMessage, error) { return messages, nil },
	)

	client := NewClient("alice", nil, manager)
	manager.AddClient(client)

	manager.Subscribe(client, sessionID)

	event := recvEvent(t, client)
	if event.Type != EventMessages {
		t.Fatalf("got event type %q, want %q", event.Type, EventMessages)
	}
	if event.SessionID != sessionID {
		t.Errorf("got session id %q, want %q", event.SessionID, sessionID)
	}
	if len(event.Messages) != len(messages) {
		t.Fatalf("got %d messages, want %d", len(event.Messages), len(messages))
	}
	for i := range messages {
		if event.Messages[i].MessageID != messages[i].MessageID {
			t.Errorf("message %d out of order", i)
		}
	}
}

// TestSubscribeLoadError проверяет, что сбой загрузки сообщений
// доносится до клиента событием об ошибке
func TestSubscribeLoadError(t *testing.T) {
	manager := NewManager(
		func(string, string) bool { return true },
		func(string) ([]models.ChatMessage, error) {
			return nil, errors.New("connection reset")
		},
	)

	client := NewClient("alice", nil, manager)
	manager.AddClient(client)

	manager.Subscribe(client, "alice_bob_post-1")

	event := recvEvent(t, client)
	if event.Type != EventError {
		t.Errorf("got event type %q, want %q", event.Type, EventError)
	}
}

// TestNotifySessionSubscribersOnly проверяет, что обновление сессии
// получают только ее подписчики
func TestNotifySessionSubscribersOnly(t *testing.T) {
	sessionID := "alice_bob_post-1"
	messages := testMessages(sessionID, "Привет")

	manager := NewManager(
		func(string, string) bool { return true },
		func(string) ([]models.ChatMessage, error) { return messages, nil },
	)

	subscriber := NewClient("alice", nil, manager)
	bystander := NewClient("carol", nil, manager)
	manager.AddClient(subscriber)
	manager.AddClient(bystander)

	manager.Subscribe(subscriber, sessionID)
	recvEvent(t, subscriber) // начальная последовательность при подписке

	manager.NotifySession(sessionID)

	event := recvEvent(t, subscriber)
	if event.Type != EventMessages {
		t.Errorf("got event type %q, want %q", event.Type, EventMessages)
	}
	if len(event.Messages) != len(messages) {
		t.Errorf("got %d messages, want %d", len(event.Messages), len(messages))
	}

	assertNoEvent(t, bystander)
}

// TestRemoveClientReleasesSubscriptions проверяет, что отключение клиента
// снимает все его подписки
func TestRemoveClientReleasesSubscriptions(t *testing.T) {
	manager := NewManager(
		func(string, string) bool { return true },
		func(string) ([]models.ChatMessage, error) { return nil, nil },
	)

	client := NewClient("alice", nil, manager)
	manager.AddClient(client)

	manager.Subscribe(client, "alice_bob_post-1")
	manager.Subscribe(client, "alice_bob_post-2")
	recvEvent(t, client)
	recvEvent(t, client)

	manager.RemoveClient(client.ID)

	if len(manager.sessionSubs) != 0 {
		t.Errorf("sessionSubs holds %d sessions after disconnect, want 0", len(manager.sessionSubs))
	}
	if len(manager.clientSessions) != 0 {
		t.Errorf("clientSessions holds %d clients after disconnect, want 0", len(manager.clientSessions))
	}

	// Уведомление после отключения никому не доставляется
	manager.NotifySession("alice_bob_post-1")
	assertNoEvent(t, client)
}

// TestUnsubscribe проверяет снятие одной подписки
func TestUnsubscribe(t *testing.T) {
	manager := NewManager(
		func(string, string) bool { return true },
		func(string) ([]models.ChatMessage, error) { return nil, nil },
	)

	client := NewClient("alice", nil, manager)
	manager.AddClient(client)

	manager.Subscribe(client, "alice_bob_post-1")
	recvEvent(t, client)

	manager.Unsubscribe(client, "alice_bob_post-1")

	manager.NotifySession("alice_bob_post-1")
	assertNoEvent(t, client)
}
