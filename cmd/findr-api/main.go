package main

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/findr-app/findr-api/internal/config"
	"github.com/findr-app/findr-api/internal/db"
	"github.com/findr-app/findr-api/internal/email"
	"github.com/findr-app/findr-api/internal/services/auth"
	"github.com/findr-app/findr-api/internal/services/chat"
	"github.com/findr-app/findr-api/internal/services/post"
	"github.com/findr-app/findr-api/internal/services/upload"
	"github.com/findr-app/findr-api/internal/websocket"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Findr API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Создаём сервисы
	emailSender := email.NewSender(cfg.SMTPConfig)
	if emailSender == nil {
		log.Println("⚠️ SMTP не настроен, письма для сброса пароля отправляться не будут")
	}

	wsManager := websocket.NewManager(chat.IsParticipant, chat.LoadSessionMessages)
	defer wsManager.Shutdown()

	authService := auth.NewAuthService(cfg, emailSender)
	postService := post.NewPostService(cfg)
	chatService := chat.NewChatService(cfg, wsManager)
	uploadService := upload.NewUploadService(cfg)

	// Регистрируем маршруты
	authService.SetupRoutes(app)
	postService.SetupPublicRoutes(app)
	postService.SetupRoutes(app)
	chatService.SetupRoutes(app)
	uploadService.SetupRoutes(app)

	// Запускаем WebSocket сервер отдельным слушателем
	wsServer := websocket.NewServer(wsManager, authService.GetJWTService())
	go func() {
		if err := wsServer.Listen(":8081"); err != nil {
			log.Fatalf("❌ Ошибка WebSocket сервера: %v", err)
		}
	}()

	// Запускаем сервер
	log.Println("✅ Findr API запущен на порту 8080")
	log.Fatal(app.Listen(":8080"))
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
