package handler

import (
	"net/http"
	"time"

	"github.com/agentmeet/agentmeet-service/internal/cache"
	"github.com/agentmeet/agentmeet-service/internal/config"
	"github.com/agentmeet/agentmeet-service/internal/metrics"
	"github.com/agentmeet/agentmeet-service/internal/repository"
	agentsvc "github.com/agentmeet/agentmeet-service/internal/services/agent"
	meetingsvc "github.com/agentmeet/agentmeet-service/internal/services/meeting"
	"github.com/agentmeet/agentmeet-service/internal/stream"
	"github.com/agentmeet/agentmeet-service/pkg/logger"
	"github.com/agentmeet/agentmeet-service/pkg/redis"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HandlerManager wires repositories, services and handlers together and owns
// route registration.
type HandlerManager struct {
	cfg          *config.Config
	repoManager  repository.RepositoryManager
	streamClient *stream.Client
	registry     *prometheus.Registry
	collector    *metrics.Collector
	rateLimiter  *RateLimiter

	webhookHandler *WebhookHandler
	agentHandler   *AgentHandler
	meetingHandler *MeetingHandler
	tokenHandler   *TokenHandler
}

// NewHandlerManager creates and initializes all handlers and services.
func NewHandlerManager(cfg *config.Config) (*HandlerManager, error) {
	repoManager, err := repository.NewRepositoryManager(cfg.Database)
	if err != nil {
		logger.Base().Error("failed to connect to database", zap.Error(err))
		return nil, err
	}

	streamClient := stream.NewClient(stream.Config{
		APIKey:       cfg.StreamAPIKey,
		APISecret:    cfg.StreamAPISecret,
		BaseURL:      cfg.StreamBaseURL,
		RealtimeURL:  cfg.StreamRealtimeURL,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
	})

	// Redis is optional: without it webhook dedup degrades to the state
	// guards alone.
	var redisSvc redis.RedisServiceInterface
	if cfg.RedisHost != "" {
		svc, err := redis.NewRedisService(&redis.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Base().Warn("failed to initialize redis, running without delivery dedup", zap.Error(err))
		} else {
			redisSvc = svc
		}
	}
	deliveries := cache.NewDeliveryCache(redisSvc, 5*time.Minute)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	meetingService := meetingsvc.NewService(repoManager, streamClient)
	agentService := agentsvc.NewService(repoManager)

	m := &HandlerManager{
		cfg:          cfg,
		repoManager:  repoManager,
		streamClient: streamClient,
		registry:     registry,
		collector:    collector,
		rateLimiter:  NewRateLimiter(rate.Limit(2), 120),

		webhookHandler: NewWebhookHandler(streamClient, meetingService, deliveries, collector),
		agentHandler:   NewAgentHandler(agentService, repoManager.Users()),
		meetingHandler: NewMeetingHandler(meetingService, repoManager.Users()),
		tokenHandler:   NewTokenHandler(streamClient, repoManager.Users()),
	}
	return m, nil
}

// SetupAllRoutes registers every route on the router.
func (m *HandlerManager) SetupAllRoutes(router *mux.Router) {
	router.Use(CORSMiddleware)
	router.Use(LoggingMiddleware(m.collector))
	router.Use(ValidationMiddleware)

	// Machine-to-machine endpoint; authenticated by signature, not session.
	router.HandleFunc("/api/webhook", m.webhookHandler.HandleWebhook).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(m.cfg.AuthSecret))
	api.Use(m.rateLimiter.Middleware)
	api.HandleFunc("/agents", m.agentHandler.HandleCreate).Methods(http.MethodPost)
	api.HandleFunc("/agents", m.agentHandler.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/meetings", m.meetingHandler.HandleCreate).Methods(http.MethodPost)
	api.HandleFunc("/meetings", m.meetingHandler.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/meetings/{meetingId}/cancel", m.meetingHandler.HandleCancel).Methods(http.MethodPost)
	api.HandleFunc("/token", m.tokenHandler.HandleCreate).Methods(http.MethodPost)

	router.Handle("/metrics", metrics.Handler(m.registry)).Methods(http.MethodGet)
	router.HandleFunc("/health", m.handleHealth).Methods(http.MethodGet)

	logger.Base().Info("routes registered")
}

// handleHealth reports liveness and datastore reachability.
func (m *HandlerManager) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := m.repoManager.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Close releases resources held by the manager.
func (m *HandlerManager) Close() error {
	m.rateLimiter.Stop()
	return m.repoManager.Close()
}
