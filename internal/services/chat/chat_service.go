package chat

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/findr-app/findr-api/internal/config"
	"github.com/findr-app/findr-api/internal/db"
	"github.com/findr-app/findr-api/internal/models"
	"github.com/findr-app/findr-api/internal/utils"
)

// SessionNotifier уведомляет подписчиков сессии о новых сообщениях
type SessionNotifier interface {
	NotifySession(sessionID string)
}

// ChatService представляет сервис для работы с чатами
type ChatService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	handoffs   *HandoffRegistry
	notifier   SessionNotifier
}

// NewChatService создает новый экземпляр ChatService
func NewChatService(cfg *config.Config, notifier SessionNotifier) *ChatService {
	return &ChatService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		handoffs:   NewHandoffRegistry(),
		notifier:   notifier,
	}
}

// Connect открывает чат по объявлению. Сессия для пары пользователей и
// объявления всегда одна: повторное открытие обновляет данные объявления,
// но не трогает последнее сообщение.
func (s *ChatService) Connect(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var requestData struct {
		PostID               string `json:"post_id"`
		VerificationImageURL string `json:"verification_image_url,omitempty"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	postUUID, err := uuid.Parse(requestData.PostID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Загружаем объявление: его автор становится вторым участником
	var authorID uuid.UUID
	var description string
	var imageURL pgtype.Text
	err = db.Pool.QueryRow(ctx, `
        SELECT user_id, description, image_url FROM posts WHERE id = $1
    `, postUUID).Scan(&authorID, &description, &imageURL)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Объявление не найдено"})
		}
		log.Printf("Ошибка получения объявления: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения объявления"})
	}

	if authorID.String() == userID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Нельзя открыть чат с самим собой"})
	}

	sessionID, err := DeriveSessionID(userID, authorID.String(), postUUID.String())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	participants := map[string]bool{
		userID:            true,
		authorID.String(): true,
	}
	participantsJSON, err := json.Marshal(participants)
	if err != nil {
		log.Printf("Ошибка сериализации участников: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания чата"})
	}

	postImageURL := ""
	if imageURL.Valid {
		postImageURL = imageURL.String
	}

	// Обновляются только данные объявления и участники: поля последнего
	// сообщения при повторном открытии не затираются
	_, err = db.Pool.Exec(ctx, `
        INSERT INTO chat_sessions (session_id, post_id, post_image_url, post_description, participants)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (session_id) DO UPDATE
        SET post_image_url = EXCLUDED.post_image_url,
            post_description = EXCLUDED.post_description,
            participants = EXCLUDED.participants
    `, sessionID, postUUID, postImageURL, description, participantsJSON)

	if err != nil {
		log.Printf("Ошибка создания сессии чата: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания чата"})
	}

	// Если при открытии передано проверочное фото, подготавливаем его
	// к однократной отправке
	armed := false
	if requestData.VerificationImageURL != "" {
		s.handoffs.Arm(sessionID, userID, requestData.VerificationImageURL)
		armed = true
	}

	return c.JSON(fiber.Map{
		"session_id":         sessionID,
		"verification_armed": armed,
		"success":            true,
	})
}

// GetSessions возвращает список чатов пользователя
func (s *ChatService) GetSessions(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	ctx, cancel := db.GetContext()
	defer cancel()

	emptyWithError := func() error {
		// Список чатов не должен падать из-за хранилища: возвращаем
		// пустой список с признаком ошибки
		return c.JSON(fiber.Map{
			"sessions": make([]models.ChatSession, 0),
			"count":    0,
			"error":    "Ошибка получения чатов",
		})
	}

	rows, err := db.Pool.Query(ctx, `
        SELECT session_id, post_id, post_image_url, post_description,
               participants, last_message, last_message_timestamp
        FROM chat_sessions
        WHERE COALESCE(participants ->> $1, 'false') = 'true'
        ORDER BY last_message_timestamp DESC, created_at DESC
    `, userID)

	if err != nil {
		log.Printf("Ошибка запроса чатов: %v", err)
		return emptyWithError()
	}
	defer rows.Close()

	sessions, err := collectSessions(rows)
	if err != nil {
		// Обрыв чтения посреди выборки: частичный список не отдаем
		log.Printf("Ошибка чтения чатов: %v", err)
		return emptyWithError()
	}

	return c.JSON(fiber.Map{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetMessages возвращает сообщения сессии в порядке отправки
func (s *ChatService) GetMessages(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	sessionID := c.Params("id")

	ctx, cancel := db.GetContext()
	defer cancel()

	session, err := loadSession(ctx, sessionID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Чат не найден"})
		}
		log.Printf("Ошибка получения сессии: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения чата"})
	}

	if !session.HasParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к этому чату"})
	}

	messages, err := LoadSessionMessages(sessionID)
	if err != nil {
		log.Printf("Ошибка запроса сообщений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сообщений"})
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

// SendMessage отправляет новое сообщение в сессию
func (s *ChatService) SendMessage(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	sessionID := c.Params("id")

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData struct {
		Text     string `json:"text,omitempty"`
		ImageURL string `json:"image_url,omitempty"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.Text == "" && requestData.ImageURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Сообщение должно содержать текст или изображение"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	session, err := loadSession(ctx, sessionID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Чат не найден"})
		}
		log.Printf("Ошибка получения сессии: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения чата"})
	}

	if !session.HasParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к этому чату"})
	}

	var text, imageURL *string
	if requestData.Text != "" {
		text = &requestData.Text
	}
	if requestData.ImageURL != "" {
		imageURL = &requestData.ImageURL
	}

	message, err := s.appendMessage(sessionID, userUUID, text, imageURL)
	if err != nil {
		log.Printf("Ошибка сохранения сообщения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения сообщения"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"success": true,
	})
}

// ConfirmVerification отправляет подготовленное проверочное фото
// как сообщение-изображение
func (s *ChatService) ConfirmVerification(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	sessionID := c.Params("id")

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	session, err := loadSession(ctx, sessionID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Чат не найден"})
		}
		log.Printf("Ошибка получения сессии: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения чата"})
	}

	if !session.HasParticipant(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к этому чату"})
	}

	photoURL, err := s.handoffs.Confirm(sessionID, userID)
	if err != nil {
		if err == ErrHandoffFired {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	message, err := s.appendMessage(sessionID, userUUID, nil, &photoURL)
	if err != nil {
		log.Printf("Ошибка сохранения сообщения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения сообщения"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"success": true,
	})
}

// DismissVerification отклоняет подготовленное проверочное фото
func (s *ChatService) DismissVerification(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	sessionID := c.Params("id")

	s.handoffs.Dismiss(sessionID, userID)

	return c.JSON(fiber.Map{"success": true})
}

// appendMessage дописывает сообщение в сессию и обновляет превью
// последнего сообщения одной транзакцией
func (s *ChatService) appendMessage(sessionID string, senderID uuid.UUID, text, imageURL *string) (models.ChatMessage, error) {
	ctx, cancel := db.GetContext()
	defer cancel()

	message := models.ChatMessage{
		MessageID: uuid.New(),
		SessionID: sessionID,
		SenderID:  senderID,
		Text:      text,
		ImageURL:  imageURL,
		Timestamp: time.Now().UnixMilli(),
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return models.ChatMessage{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO chat_messages (message_id, session_id, sender_id, text, image_url, timestamp)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, message.MessageID, message.SessionID, message.SenderID, message.Text, message.ImageURL, message.Timestamp)

	if err != nil {
		return models.ChatMessage{}, err
	}

	_, err = tx.Exec(ctx, `
        UPDATE chat_sessions
        SET last_message = $1, last_message_timestamp = $2
        WHERE session_id = $3
    `, message.PreviewText(), message.Timestamp, sessionID)

	if err != nil {
		return models.ChatMessage{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.ChatMessage{}, err
	}

	if s.notifier != nil {
		s.notifier.NotifySession(sessionID)
	}

	return message, nil
}

// loadSession загружает сессию по идентификатору
func loadSession(ctx context.Context, sessionID string) (models.ChatSession, error) {
	row := db.Pool.QueryRow(ctx, `
        SELECT session_id, post_id, post_image_url, post_description,
               participants, last_message, last_message_timestamp
        FROM chat_sessions
        WHERE session_id = $1
    `, sessionID)

	return scanSession(row)
}

// collectSessions вычитывает все сессии из результата запроса.
// Ошибка итерации возвращается наружу: частичный список хуже пустого.
func collectSessions(rows pgx.Rows) ([]models.ChatSession, error) {
	sessions := make([]models.ChatSession, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			log.Printf("Ошибка сканирования сессии: %v", err)
			continue
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// scanSession читает сессию из строки результата
func scanSession(row pgx.Row) (models.ChatSession, error) {
	var session models.ChatSession
	var participantsJSON []byte

	err := row.Scan(
		&session.SessionID,
		&session.PostID,
		&session.PostImageURL,
		&session.PostDescription,
		&participantsJSON,
		&session.LastMessage,
		&session.LastMessageTimestamp,
	)
	if err != nil {
		return models.ChatSession{}, err
	}

	if err := json.Unmarshal(participantsJSON, &session.Participants); err != nil {
		return models.ChatSession{}, err
	}

	return session, nil
}

// IsParticipant проверяет, состоит ли пользователь в сессии.
// Используется при авторизации подписок на обновления.
func IsParticipant(sessionID, userID string) bool {
	ctx, cancel := db.GetContext()
	defer cancel()

	var ok bool
	err := db.Pool.QueryRow(ctx, `
        SELECT COALESCE(participants ->> $2, 'false') = 'true'
        FROM chat_sessions
        WHERE session_id = $1
    `, sessionID, userID).Scan(&ok)

	if err != nil {
		if err != pgx.ErrNoRows {
			log.Printf("Ошибка проверки доступа к чату: %v", err)
		}
		return false
	}

	return ok
}

// LoadSessionMessages возвращает все сообщения сессии в порядке отправки
func LoadSessionMessages(sessionID string) ([]models.ChatMessage, error) {
	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
        SELECT message_id, session_id, sender_id, text, image_url, timestamp
        FROM chat_messages
        WHERE session_id = $1
        ORDER BY seq ASC
    `, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var msg models.ChatMessage
		var text, imageURL pgtype.Text

		if err := rows.Scan(
			&msg.MessageID,
			&msg.SessionID,
			&msg.SenderID,
			&text,
			&imageURL,
			&msg.Timestamp,
		); err != nil {
			log.Printf("Ошибка сканирования сообщения: %v", err)
			continue
		}

		if text.Valid {
			msg.Text = &text.String
		}
		if imageURL.Valid {
			msg.ImageURL = &imageURL.String
		}

		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
