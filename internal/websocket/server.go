package websocket

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/findr-app/findr-api/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Источник проверяется на уровне токена
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server принимает WebSocket соединения. Работает отдельным HTTP-слушателем,
// так как апгрейд соединения требует стандартного net/http.
type Server struct {
	manager    *Manager
	jwtService *utils.JWTService
}

// NewServer создает новый экземпляр Server
func NewServer(manager *Manager, jwtService *utils.JWTService) *Server {
	return &Server{
		manager:    manager,
		jwtService: jwtService,
	}
}

// Handler обрабатывает запрос на установку WebSocket соединения.
// Токен передается в query-параметре, так как WebSocket клиенты
// не могут выставить заголовок Authorization.
func (s *Server) Handler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Отсутствует токен авторизации", http.StatusUnauthorized)
		return
	}

	userID, err := s.jwtService.ExtractUserID(token)
	if err != nil {
		http.Error(w, "Недействительный токен", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Ошибка апгрейда WebSocket соединения: %v", err)
		return
	}

	client := NewClient(userID, conn, s.manager)
	client.Start()
}

// Listen запускает WebSocket слушатель на указанном адресе
func (s *Server) Listen(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ws", s.Handler)

	log.Printf("✅ WebSocket сервер запущен на %s", addr)
	return http.ListenAndServe(addr, mux)
}
