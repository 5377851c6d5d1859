package server

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aman-churiwal/assistant-gateway/internal/audit"
	"github.com/aman-churiwal/assistant-gateway/internal/chat"
	"github.com/aman-churiwal/assistant-gateway/internal/config"
	"github.com/aman-churiwal/assistant-gateway/internal/handler"
	"github.com/aman-churiwal/assistant-gateway/internal/intent"
	"github.com/aman-churiwal/assistant-gateway/internal/middleware"
	"github.com/aman-churiwal/assistant-gateway/internal/storage"
	"github.com/aman-churiwal/assistant-gateway/internal/usage"
)

//go:embed templates/site.html
var templatesFS embed.FS

type Server struct {
	router      *gin.Engine
	config      *config.Config
	redis       *storage.RedisClient
	postgres    *storage.Postgres
	sessions    *chat.Store
	governor    *usage.Governor
	chatHandler *handler.ChatHandler
	httpServer  *http.Server
}

// New wires the gateway together. redis and postgres may be nil when the
// corresponding config sections are disabled.
func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/site.html")))

	var windows usage.WindowStore
	switch {
	case cfg.Governor.Backend == "redis" && redis != nil:
		windows = usage.NewRedisWindowStore(redis)
		log.Println("Usage governor backed by redis windows")
	case cfg.Governor.LegacyTokenSums:
		windows = usage.NewLegacyWindowStore()
		log.Println("Usage governor using legacy token sums (no decay)")
	default:
		windows = usage.NewMemoryWindowStore()
	}

	governor := usage.NewGovernor(cfg.PolicyTable(), windows)

	var auditLogger *audit.Logger
	if postgres != nil {
		auditLogger = audit.New(postgres, 1000)
		log.Println("Usage audit trail enabled")
	}

	s := &Server{
		router:      router,
		config:      cfg,
		redis:       redis,
		postgres:    postgres,
		sessions:    chat.NewStore(),
		governor:    governor,
		chatHandler: handler.NewChatHandler(governor, intent.NewRouter(), auditLogger),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	secret := []byte(s.config.Session.Secret)
	session := middleware.Session(s.sessions, secret)

	s.router.GET("/", session, s.chatHandler.Index)
	s.router.POST("/new-chat", session, s.chatHandler.NewChat)
	s.router.POST("/send-message", session, s.chatHandler.SendMessage)
	s.router.POST("/switch-conversation", session, s.chatHandler.SwitchConversation)
	s.router.GET("/get-previous-chats", session, s.chatHandler.GetPreviousChats)
	s.router.GET("/reset", session, s.chatHandler.Reset)
}

func (s *Server) healthCheck(c *gin.Context) {
	status := "healthy"
	statusCode := http.StatusOK
	checks := gin.H{}

	if s.redis != nil {
		healthy := true
		if err := s.redis.Ping(c.Request.Context()); err != nil {
			healthy = false
			log.Printf("Redis health check failed: %v", err)
		}
		checks["redis"] = healthy
		if !healthy {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}

	if s.postgres != nil {
		healthy := true
		if err := s.postgres.Ping(c.Request.Context()); err != nil {
			healthy = false
			log.Printf("Database health check failed: %v", err)
		}
		checks["database"] = healthy
		if !healthy {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}

	c.JSON(statusCode, gin.H{
		"status":       status,
		"service":      "assistant-gateway",
		"version":      "1.0.0",
		"timestamp":    time.Now().Unix(),
		"uptime":       time.Since(startTime).Seconds(),
		"sessions":     s.sessions.Count(),
		"tracked_keys": s.governor.KeyCount(),
		"checks":       checks,
	})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	log.Printf("Starting assistant gateway on %s", addr)
	log.Printf("Environment: %s", s.config.Server.Environment)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

var startTime = time.Now()
