package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/ledger/cache"
	"example.com/backstage/services/ledger/config"
	"example.com/backstage/services/ledger/projections"
	"example.com/backstage/services/ledger/reports"
)

// Server is the HTTP server for the query and report API
type Server struct {
	cfg          config.Config
	router       *gin.Engine
	httpServer   *http.Server
	transactions projections.TransactionStore
	reports      reports.ReportStore
	cache        cache.CacheClient
}

// NewServer creates a new API server
func NewServer(cfg config.Config, transactions projections.TransactionStore, reportStore reports.ReportStore, cacheClient cache.CacheClient) *Server {
	server := &Server{
		cfg:          cfg,
		router:       gin.New(),
		transactions: transactions,
		reports:      reportStore,
		cache:        cacheClient,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(RequestIDMiddleware())
	s.router.Use(gin.Recovery())
	s.router.Use(LoggingMiddleware())
}

func (s *Server) setupRoutes() {
	s.router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")

	transactionRoutes := v1.Group("/transaction")
	{
		transactionRoutes.GET("", s.searchTransactions)
		transactionRoutes.GET("/:externalId", s.getTransaction)
	}

	reportRoutes := v1.Group("/report")
	{
		reportRoutes.GET("/payments_by_state", s.getPaymentCountsByState)
		reportRoutes.GET("/performance-report", s.getPerformanceReport)
		reportRoutes.GET("/gateway-performance-report", s.getGatewayPerformanceReport)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.HTTPServerAddress,
		Handler: s.router,
	}

	log.Info().Msgf("HTTP server starting on %s", s.cfg.HTTPServerAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
