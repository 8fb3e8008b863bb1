package auth

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"

	"github.com/findr-app/findr-api/internal/config"
	"github.com/findr-app/findr-api/internal/db"
	"github.com/findr-app/findr-api/internal/email"
	"github.com/findr-app/findr-api/internal/utils"
)

const (
	// Минимальная энтропия пароля в битах
	passwordMinEntropyBits = 50

	// Срок действия кода сброса пароля
	resetCodeTTL = 15 * time.Minute
)

// AuthService – структура для обработки авторизации
type AuthService struct {
	cfg         *config.Config
	jwtService  *utils.JWTService
	emailSender *email.Sender
}

// NewAuthService – конструктор AuthService
func NewAuthService(cfg *config.Config, emailSender *email.Sender) *AuthService {
	return &AuthService{
		cfg:         cfg,
		jwtService:  utils.NewJWTService(cfg.JWTSecret),
		emailSender: emailSender,
	}
}

// GetJWTService возвращает JWT сервис для использования в middleware
func (s *AuthService) GetJWTService() *utils.JWTService {
	return s.jwtService
}

// SignUp регистрирует нового пользователя по email и паролю
func (s *AuthService) SignUp(c fiber.Ctx) error {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))
	payload.Name = strings.TrimSpace(payload.Name)

	if payload.Email == "" || payload.Password == "" || payload.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Заполните все поля"})
	}

	if err := passwordvalidator.Validate(payload.Password, passwordMinEntropyBits); err != nil {
		// Текст валидатора показывается пользователю как есть
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if _, err := db.GetUserByEmail(payload.Email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Пользователь с таким email уже существует"})
	} else if err != db.ErrUserNotFound {
		log.Printf("Ошибка проверки существования пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Ошибка хеширования пароля: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка регистрации"})
	}

	user, err := db.CreateUser(payload.Email, payload.Name, string(hash))
	if err != nil {
		log.Printf("Ошибка создания пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка регистрации"})
	}

	token, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		log.Printf("Ошибка генерации токена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка генерации токена"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// SignIn выполняет вход по email и паролю
func (s *AuthService) SignIn(c fiber.Ctx) error {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))

	if payload.Email == "" || payload.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Заполните все поля"})
	}

	user, err := db.GetUserByEmail(payload.Email)
	if err == db.ErrUserNotFound {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Неверный email или пароль"})
	}
	if err != nil {
		log.Printf("Ошибка получения пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Неверный email или пароль"})
	}

	if err := db.UpdateLastLogin(user.ID); err != nil {
		// Не критично, вход продолжается
		log.Printf("Ошибка обновления времени входа: %v", err)
	}

	token, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		log.Printf("Ошибка генерации токена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка генерации токена"})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// RequestPasswordReset отправляет код сброса пароля на email.
// Ответ всегда 200, чтобы не раскрывать существование аккаунта.
func (s *AuthService) RequestPasswordReset(c fiber.Ctx) error {
	var payload struct {
		Email string `json:"email"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))
	if payload.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Укажите email"})
	}

	respond := func() error {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Если аккаунт существует, письмо с кодом отправлено",
		})
	}

	user, err := db.GetUserByEmail(payload.Email)
	if err != nil {
		if err != db.ErrUserNotFound {
			log.Printf("Ошибка получения пользователя для сброса: %v", err)
		}
		return respond()
	}

	code, err := generateResetCode()
	if err != nil {
		log.Printf("Ошибка генерации кода сброса: %v", err)
		return respond()
	}

	if err := db.CreatePasswordResetCode(user.ID, code, resetCodeTTL); err != nil {
		log.Printf("Ошибка сохранения кода сброса: %v", err)
		return respond()
	}

	if s.emailSender == nil {
		log.Println("⚠️ SMTP не настроен, письмо сброса пароля не отправлено")
		return respond()
	}

	if err := s.emailSender.SendPasswordResetEmail(user.Email, user.Name, code); err != nil {
		log.Printf("Ошибка отправки письма сброса: %v", err)
	}

	return respond()
}

// ConfirmPasswordReset устанавливает новый пароль по коду из письма
func (s *AuthService) ConfirmPasswordReset(c fiber.Ctx) error {
	var payload struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))

	if payload.Email == "" || payload.Code == "" || payload.NewPassword == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Заполните все поля"})
	}

	if err := passwordvalidator.Validate(payload.NewPassword, passwordMinEntropyBits); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := db.GetUserByEmail(payload.Email)
	if err == db.ErrUserNotFound {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный код сброса"})
	}
	if err != nil {
		log.Printf("Ошибка получения пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	ok, err := db.ConsumePasswordResetCode(user.ID, payload.Code)
	if err != nil {
		log.Printf("Ошибка проверки кода сброса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный или просроченный код сброса"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Ошибка хеширования пароля: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка смены пароля"})
	}

	if err := db.UpdatePassword(user.ID, string(hash)); err != nil {
		log.Printf("Ошибка обновления пароля: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка смены пароля"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Пароль обновлён"})
}

// Profile возвращает данные текущего пользователя
func (s *AuthService) Profile(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	user, err := db.GetUserByID(userUUID)
	if err == db.ErrUserNotFound {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
	}
	if err != nil {
		log.Printf("Ошибка получения профиля: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// generateResetCode создает шестизначный код сброса пароля
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
