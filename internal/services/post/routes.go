package post

import (
	"github.com/gofiber/fiber/v3"

	"github.com/findr-app/findr-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API объявлений
func (s *PostService) SetupRoutes(app *fiber.App) {
	// Группа для API объявлений
	api := app.Group("/api/posts")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для создания объявления
	api.Post("/", s.CreatePost)

	// Маршрут для получения списка своих объявлений
	api.Get("/my", s.GetMyPosts)

	// Маршрут для получения одного объявления по ID
	api.Get("/:id", s.GetPost)

	// Маршрут для удаления объявления
	api.Delete("/:id", s.DeletePost)
}

// SetupPublicRoutes настраивает публичные маршруты для объявлений
func (s *PostService) SetupPublicRoutes(app *fiber.App) {
	// Публичная лента объявлений
	app.Get("/api/posts", s.GetPublicPosts)
}
