package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/findr-app/findr-api/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(app *fiber.App) {
	// Публичные маршруты авторизации
	app.Post("/api/auth/signup", s.SignUp)
	app.Post("/api/auth/signin", s.SignIn)
	app.Post("/api/auth/reset", s.RequestPasswordReset)
	app.Post("/api/auth/reset/confirm", s.ConfirmPasswordReset)

	// Профиль текущего пользователя
	app.Get("/api/profile", s.Profile, middleware.AuthMiddleware(s.jwtService))
}
