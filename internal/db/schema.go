package db

import (
	"fmt"
	"log"
)

// schemaStatements — DDL всех таблиц сервиса. Выполняется при старте,
// каждый оператор идемпотентен.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email         TEXT NOT NULL UNIQUE,
		name          TEXT,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_login_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS password_reset_codes (
		id         BIGSERIAL PRIMARY KEY,
		user_id    UUID NOT NULL REFERENCES users(id),
		code       TEXT NOT NULL,
		used       BOOLEAN NOT NULL DEFAULT false,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id          UUID PRIMARY KEY,
		user_id     UUID NOT NULL REFERENCES users(id),
		description TEXT NOT NULL,
		location    TEXT NOT NULL,
		item_type   TEXT NOT NULL,
		image_url   TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS chat_sessions (
		session_id             TEXT PRIMARY KEY,
		post_id                UUID NOT NULL,
		post_image_url         TEXT NOT NULL DEFAULT '',
		post_description       TEXT NOT NULL DEFAULT '',
		participants           JSONB NOT NULL,
		last_message           TEXT NOT NULL DEFAULT '',
		last_message_timestamp BIGINT NOT NULL DEFAULT 0,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		seq        BIGSERIAL PRIMARY KEY,
		message_id UUID NOT NULL UNIQUE,
		session_id TEXT NOT NULL REFERENCES chat_sessions(session_id),
		sender_id  UUID NOT NULL,
		text       TEXT,
		image_url  TEXT,
		timestamp  BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages (session_id, seq)`,
}

// EnsureSchema создает недостающие таблицы
func EnsureSchema() error {
	ctx, cancel := GetContext()
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ошибка при создании схемы: %w", err)
		}
	}

	log.Println("✅ Схема базы данных проверена")
	return nil
}
