package post

import (
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/findr-app/findr-api/internal/config"
	"github.com/findr-app/findr-api/internal/db"
	"github.com/findr-app/findr-api/internal/models"
	"github.com/findr-app/findr-api/internal/utils"
)

// PostService представляет сервис для работы с объявлениями
type PostService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewPostService создает новый экземпляр PostService
func NewPostService(cfg *config.Config) *PostService {
	return &PostService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// CreatePost обрабатывает создание нового объявления
func (s *PostService) CreatePost(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	// Преобразуем userID в UUID
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	// Извлекаем данные из запроса
	var requestData struct {
		Description string `json:"description"`
		Location    string `json:"location"`
		ItemType    string `json:"item_type"`
		ImageURL    string `json:"image_url"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	requestData.Description = strings.TrimSpace(requestData.Description)
	requestData.Location = strings.TrimSpace(requestData.Location)

	// Валидация обязательных полей
	if requestData.Description == "" || requestData.Location == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Заполните описание и место"})
	}

	// Проверка валидности item_type, по умолчанию - Lost
	requestData.ItemType = models.NormalizeItemType(requestData.ItemType)

	// Фото опционально: у "Lost" его может не быть вовсе,
	// у "Found" оно служит только для подтверждения владельца
	var imageURL *string
	if requestData.ImageURL != "" {
		imageURL = &requestData.ImageURL
	}

	// Создаем ID для нового объявления
	postID := uuid.New()

	ctx, cancel := db.GetContext()
	defer cancel()

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO posts (id, user_id, description, location, item_type, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, postID, userUUID, requestData.Description, requestData.Location, requestData.ItemType, imageURL)

	if err != nil {
		log.Printf("Ошибка вставки объявления: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения объявления"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"post_id": postID,
		"message": "Объявление успешно создано",
	})
}

// GetPublicPosts возвращает ленту объявлений с пагинацией.
// Фото "Found" объявлений в ленте скрываются.
func (s *PostService) GetPublicPosts(c fiber.Ctx) error {
	// Параметры пагинации
	limit := 10 // По умолчанию показываем 10 объявлений, как в ленте приложения
	if limitStr := c.Query("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	offsetStr := c.Query("offset", "0")
	offset, _ := strconv.Atoi(offsetStr)

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, queryErr := db.Pool.Query(ctx, `
		SELECT id, user_id, description, location, item_type, image_url, created_at
		FROM posts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)

	if queryErr != nil {
		log.Printf("Ошибка запроса объявлений: %v", queryErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения объявлений"})
	}
	defer rows.Close()

	posts := make([]models.PostSummary, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			log.Printf("Ошибка сканирования строки: %v", err)
			continue
		}
		posts = append(posts, post.Summary())
	}

	// Получаем общее количество объявлений для пагинации
	var total int
	if countErr := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); countErr != nil {
		log.Printf("Ошибка подсчета объявлений: %v", countErr)
		// Игнорируем ошибку, просто не вернем общее количество
	}

	return c.JSON(fiber.Map{
		"posts":  posts,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetMyPosts возвращает список объявлений текущего пользователя.
// Автор видит свои объявления целиком, включая фото "Found" вещей.
func (s *PostService) GetMyPosts(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, queryErr := db.Pool.Query(ctx, `
		SELECT id, user_id, description, location, item_type, image_url, created_at
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userUUID)

	if queryErr != nil {
		log.Printf("Ошибка запроса объявлений: %v", queryErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения объявлений"})
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			log.Printf("Ошибка сканирования строки: %v", err)
			continue
		}
		posts = append(posts, post)
	}

	return c.JSON(fiber.Map{
		"posts": posts,
		"count": len(posts),
	})
}

// GetPost возвращает детальную информацию об объявлении
func (s *PostService) GetPost(c fiber.Ctx) error {
	postID := c.Params("id")
	if postID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID объявления не указан"})
	}

	postUUID, err := uuid.Parse(postID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	userIDStr := c.Locals("userID").(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	post, err := scanPost(db.Pool.QueryRow(ctx, `
		SELECT id, user_id, description, location, item_type, image_url, created_at
		FROM posts
		WHERE id = $1
	`, postUUID))

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Объявление не найдено"})
		}
		log.Printf("Ошибка получения объявления: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения объявления"})
	}

	// Получаем информацию об авторе
	author, err := db.GetUserByID(post.UserID)
	if err != nil && err != db.ErrUserNotFound {
		log.Printf("Ошибка получения данных пользователя: %v", err)
	}
	if author != nil {
		post.User = &models.User{ID: author.ID, Name: author.Name}
	}

	return c.JSON(fiber.Map{
		"post":     post,
		"is_owner": post.UserID == userID,
	})
}

// DeletePost удаляет объявление. Удалить объявление может только его автор.
func (s *PostService) DeletePost(c fiber.Ctx) error {
	postID := c.Params("id")
	userIDStr := c.Locals("userID").(string)

	if postID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID объявления не указан"})
	}

	postUUID, err := uuid.Parse(postID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	// Проверяем, что объявление существует и принадлежит пользователю
	ctx, cancel := db.GetContext()
	defer cancel()

	var ownerID uuid.UUID
	err = db.Pool.QueryRow(ctx, "SELECT user_id FROM posts WHERE id = $1", postUUID).Scan(&ownerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Объявление не найдено"})
		}
		log.Printf("Ошибка запроса объявления: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения объявления"})
	}

	if ownerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к удалению этого объявления"})
	}

	_, err = db.Pool.Exec(ctx, "DELETE FROM posts WHERE id = $1", postUUID)
	if err != nil {
		log.Printf("Ошибка удаления объявления: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления объявления"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Объявление успешно удалено",
	})
}

// scanPost читает строку объявления, применяя дефолты к nullable полям
func scanPost(row pgx.Row) (models.Post, error) {
	var post models.Post
	var imageURL pgtype.Text

	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Description,
		&post.Location,
		&post.ItemType,
		&imageURL,
		&post.CreatedAt,
	)
	if err != nil {
		return models.Post{}, err
	}

	if imageURL.Valid && imageURL.String != "" {
		post.ImageURL = &imageURL.String
	}
	post.ItemType = models.NormalizeItemType(post.ItemType)

	return post, nil
}
