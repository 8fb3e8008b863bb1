package chat

import (
	"github.com/gofiber/fiber/v3"

	"github.com/findr-app/findr-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API чатов
func (s *ChatService) SetupRoutes(app *fiber.App) {
	// Группа для API чатов
	api := app.Group("/api/chats")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для открытия чата по объявлению
	api.Post("/connect", s.Connect)

	// Маршрут для получения всех чатов пользователя
	api.Get("/", s.GetSessions)

	// Маршрут для получения сообщений чата
	api.Get("/:id/messages", s.GetMessages)

	// Маршрут для отправки сообщения
	api.Post("/:id/messages", s.SendMessage)

	// Маршруты для проверочного фото
	api.Post("/:id/verification/confirm", s.ConfirmVerification)
	api.Delete("/:id/verification", s.DismissVerification)
}
