package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/agentmeet/agentmeet-service/internal/config"
	"github.com/agentmeet/agentmeet-service/internal/handler"
	"github.com/agentmeet/agentmeet-service/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Server is the agent meeting service HTTP server.
type Server struct {
	config         *config.Config
	router         *mux.Router
	handlerManager *handler.HandlerManager
}

// NewServer initializes the logger, the handler manager and the router.
func NewServer(cfg *config.Config) (*Server, error) {
	if _, err := logger.Init(cfg.LogEnv); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	handlerManager, err := handler.NewHandlerManager(cfg)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	handlerManager.SetupAllRoutes(router)

	return &Server{
		config:         cfg,
		router:         router,
		handlerManager: handlerManager,
	}, nil
}

// Start runs the HTTP server until it fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.config.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Base().Info("starting server", zap.String("addr", addr))
	return server.ListenAndServe()
}

func main() {
	// Load .env for local development; deployed environments set real env
	// vars and this is a no-op.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	server, err := NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	defer logger.Sync()

	if err := server.Start(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
