package chat

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// stubSessionRows имитирует выборку сессий с управляемой ошибкой итерации
type stubSessionRows struct {
	rows [][]any
	err  error
	idx  int
}

func (r *stubSessionRows) Next() bool {
	if r.idx < len(r.rows) {
		r.idx++
		return true
	}
	return false
}

func (r *stubSessionRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	for i, d := range dest {
		switch v := d.(type) {
		case *string:
			*v = row[i].(string)
		case *uuid.UUID:
			*v = row[i].(uuid.UUID)
		case *[]byte:
			*v = row[i].([]byte)
		case *int64:
			*v = row[i].(int64)
		}
	}
	return nil
}

func (r *stubSessionRows) Err() error                               { return r.err }
func (r *stubSessionRows) Close()                                   {}
func (r *stubSessionRows) CommandTag() pgconn.CommandTag            { return pgconn.CommandTag{} }
func (r *stubSessionRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubSessionRows) Values() ([]any, error)                   { return nil, nil }
func (r *stubSessionRows) RawValues() [][]byte                      { return nil }
func (r *stubSessionRows) Conn() *pgx.Conn                          { return nil }

func sessionRow(sessionID string, lastMessage string, ts int64) []any {
	return []any{
		sessionID,
		uuid.New(),
		"",
		"Черный кошелек",
		[]byte(`{"alice":true,"bob":true}`),
		lastMessage,
		ts,
	}
}

// TestCollectSessions проверяет вычитывание списка сессий
func TestCollectSessions(t *testing.T) {
	rows := &stubSessionRows{
		rows: [][]any{
			sessionRow("alice_bob_post-1", "Привет", 200),
			sessionRow("alice_bob_post-2", "[Image]", 100),
		},
	}

	sessions, err := collectSessions(rows)
	if err != nil {
		t.Fatalf("collectSessions failed: %v", err)
	}

	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].SessionID != "alice_bob_post-1" {
		t.Errorf("got session %q first, want %q", sessions[0].SessionID, "alice_bob_post-1")
	}
	if !sessions[0].HasParticipant("alice") || !sessions[0].HasParticipant("bob") {
		t.Error("participants were not decoded")
	}
}

// TestCollectSessionsIterationError проверяет, что обрыв чтения
// не превращается в частичный список
func TestCollectSessionsIterationError(t *testing.T) {
	readErr := errors.New("connection reset")
	rows := &stubSessionRows{
		rows: [][]any{
			sessionRow("alice_bob_post-1", "Привет", 200),
		},
		err: readErr,
	}

	sessions, err := collectSessions(rows)
	if err != readErr {
		t.Fatalf("got error %v, want %v", err, readErr)
	}
	if sessions != nil {
		t.Errorf("expected no sessions on iteration error, got %d", len(sessions))
	}
}
