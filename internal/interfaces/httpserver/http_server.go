package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"flowcore-server/services/message-worker/internal/config"
	"flowcore-server/services/message-worker/internal/interfaces/httpserver/handlers"
	middleware "flowcore-server/services/message-worker/internal/interfaces/httpserver/middlewares"
)

type HTTPServer struct {
	engine  *gin.Engine
	webhook *handlers.WebhookHandler
	worker  *handlers.WorkerHandler
	config  *config.Config
}

func NewHttpServer(
	webhook *handlers.WebhookHandler,
	worker *handlers.WorkerHandler,
	cfg *config.Config,
	logger zerolog.Logger,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	server := HTTPServer{
		engine:  gin.New(),
		webhook: webhook,
		worker:  worker,
		config:  cfg,
	}
	server.engine.Use(gin.Recovery())
	server.engine.Use(middleware.RequestID())
	server.engine.Use(middleware.TracingMiddleware(cfg.ServiceName))
	server.engine.Use(middleware.LoggingMiddleware(logger))
	server.engine.Use(middleware.MetricsMiddleware())
	server.engine.Use(middleware.CORSMiddleware())

	server.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server.engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	server.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server.registerRoutes()
	return &server
}

func (s *HTTPServer) registerRoutes() {
	s.engine.POST("/webhooks/whatsapp", s.webhook.HandleWhatsApp)

	v1 := s.engine.Group("/v1")
	v1.POST("/worker/run", s.worker.RunBatch)
	v1.GET("/worker/queue", s.worker.QueueDepth)
}

// Engine exposes the router for tests.
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

func (s *HTTPServer) Run() error {
	return s.engine.Run(fmt.Sprintf(":%d", s.config.HTTPPort))
}
