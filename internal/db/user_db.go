package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// User представляет пользователя в системе
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  time.Time
}

// ErrUserNotFound возвращается, когда пользователь не найден
var ErrUserNotFound = fmt.Errorf("пользователь не найден")

// CreateUser создает нового пользователя с хешем пароля
func CreateUser(email, name, passwordHash string) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	var user User
	err := Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, last_login_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id, email, name, password_hash, created_at, updated_at, last_login_at
	`, email, name, passwordHash).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt,
	)

	if err != nil {
		return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
	}

	return &user, nil
}

// GetUserByEmail получает пользователя по email
func GetUserByEmail(email string) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	user, err := scanUser(Pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at, updated_at, last_login_at
		FROM users WHERE email = $1
	`, email))

	if err == pgx.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	return user, nil
}

// GetUserByID получает пользователя по ID
func GetUserByID(userID uuid.UUID) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	user, err := scanUser(Pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at, updated_at, last_login_at
		FROM users WHERE id = $1
	`, userID))

	if err == pgx.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	return user, nil
}

// UpdateLastLogin обновляет время последнего входа пользователя
func UpdateLastLogin(userID uuid.UUID) error {
	ctx, cancel := GetContext()
	defer cancel()

	_, err := Pool.Exec(ctx, `
		UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE id = $1
	`, userID)

	if err != nil {
		return fmt.Errorf("ошибка при обновлении времени входа: %w", err)
	}

	return nil
}

// UpdatePassword устанавливает новый хеш пароля пользователя
func UpdatePassword(userID uuid.UUID, passwordHash string) error {
	ctx, cancel := GetContext()
	defer cancel()

	_, err := Pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
	`, passwordHash, userID)

	if err != nil {
		return fmt.Errorf("ошибка при обновлении пароля: %w", err)
	}

	return nil
}

// CreatePasswordResetCode сохраняет код сброса пароля с ограниченным сроком действия.
// Предыдущие неиспользованные коды пользователя аннулируются.
func CreatePasswordResetCode(userID uuid.UUID, code string, ttl time.Duration) error {
	ctx, cancel := GetContext()
	defer cancel()

	tx, err := Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE password_reset_codes SET used = true WHERE user_id = $1 AND used = false
	`, userID)
	if err != nil {
		return fmt.Errorf("ошибка при аннулировании старых кодов: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO password_reset_codes (user_id, code, expires_at)
		VALUES ($1, $2, $3)
	`, userID, code, time.Now().Add(ttl))
	if err != nil {
		return fmt.Errorf("ошибка при сохранении кода сброса: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}

// ConsumePasswordResetCode помечает код использованным. Возвращает false,
// если кода нет, он просрочен или уже использован.
func ConsumePasswordResetCode(userID uuid.UUID, code string) (bool, error) {
	ctx, cancel := GetContext()
	defer cancel()

	tag, err := Pool.Exec(ctx, `
		UPDATE password_reset_codes
		SET used = true
		WHERE user_id = $1 AND code = $2 AND used = false AND expires_at > CURRENT_TIMESTAMP
	`, userID, code)

	if err != nil {
		return false, fmt.Errorf("ошибка при проверке кода сброса: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// scanUser читает строку пользователя, применяя дефолты к nullable полям
func scanUser(row pgx.Row) (*User, error) {
	var user User
	var name pgtype.Text

	err := row.Scan(
		&user.ID, &user.Email, &name, &user.PasswordHash,
		&user.CreatedAt, &user.UpdatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}

	// Преобразуем nullable поля
	if name.Valid {
		user.Name = name.String
	}

	return &user, nil
}
