package chat

import (
	"testing"
)

// TestHandoffConfirmOnce проверяет, что подготовленное фото
// отправляется ровно один раз
func TestHandoffConfirmOnce(t *testing.T) {
	registry := NewHandoffRegistry()
	registry.Arm("session-1", "alice", "https://example.com/photo.jpg")

	url, err := registry.Confirm("session-1", "alice")
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if url != "https://example.com/photo.jpg" {
		t.Errorf("got url %q, want %q", url, "https://example.com/photo.jpg")
	}

	// Повторная отправка должна быть отклонена
	if _, err := registry.Confirm("session-1", "alice"); err != ErrHandoffFired {
		t.Errorf("second confirm: got error %v, want %v", err, ErrHandoffFired)
	}
}

// TestHandoffNotArmed проверяет отправку без подготовленного фото
func TestHandoffNotArmed(t *testing.T) {
	registry := NewHandoffRegistry()

	if _, err := registry.Confirm("session-1", "alice"); err != ErrHandoffNotArmed {
		t.Errorf("got error %v, want %v", err, ErrHandoffNotArmed)
	}
}

// TestHandoffDismiss проверяет, что после отказа фото не отправляется
func TestHandoffDismiss(t *testing.T) {
	registry := NewHandoffRegistry()
	registry.Arm("session-1", "alice", "https://example.com/photo.jpg")
	registry.Dismiss("session-1", "alice")

	if _, err := registry.Confirm("session-1", "alice"); err != ErrHandoffNotArmed {
		t.Errorf("confirm after dismiss: got error %v, want %v", err, ErrHandoffNotArmed)
	}
}

// TestHandoffDismissFreesEntry проверяет, что отклоненная запись
// не остается в реестре
func TestHandoffDismissFreesEntry(t *testing.T) {
	registry := NewHandoffRegistry()
	registry.Arm("session-1", "alice", "https://example.com/photo.jpg")
	registry.Dismiss("session-1", "alice")

	if len(registry.entries) != 0 {
		t.Errorf("registry holds %d entries after dismiss, want 0", len(registry.entries))
	}
}

// TestHandoffRearm проверяет, что повторное открытие чата
// подготавливает фото заново
func TestHandoffRearm(t *testing.T) {
	registry := NewHandoffRegistry()

	registry.Arm("session-1", "alice", "https://example.com/old.jpg")
	if _, err := registry.Confirm("session-1", "alice"); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	// Новое открытие чата сбрасывает состояние
	registry.Arm("session-1", "alice", "https://example.com/new.jpg")

	url, err := registry.Confirm("session-1", "alice")
	if err != nil {
		t.Fatalf("Confirm after rearm failed: %v", err)
	}
	if url != "https://example.com/new.jpg" {
		t.Errorf("got url %q, want %q", url, "https://example.com/new.jpg")
	}
}

// TestHandoffIsolation проверяет, что записи разных пользователей
// и сессий не пересекаются
func TestHandoffIsolation(t *testing.T) {
	registry := NewHandoffRegistry()
	registry.Arm("session-1", "alice", "https://example.com/a.jpg")
	registry.Arm("session-1", "bob", "https://example.com/b.jpg")
	registry.Arm("session-2", "alice", "https://example.com/c.jpg")

	if _, err := registry.Confirm("session-1", "alice"); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	// Отправка alice в session-1 не влияет на остальные записи
	if !registry.Armed("session-1", "bob") {
		t.Error("bob's handoff in session-1 should remain armed")
	}
	if !registry.Armed("session-2", "alice") {
		t.Error("alice's handoff in session-2 should remain armed")
	}
}
