package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"sevenms-trading-bot/internal/approval"
	"sevenms-trading-bot/internal/auth"
	"sevenms-trading-bot/internal/broker"
	"sevenms-trading-bot/internal/database"
	"sevenms-trading-bot/internal/events"
	"sevenms-trading-bot/internal/logging"
	"sevenms-trading-bot/internal/market"
	"sevenms-trading-bot/internal/pipeline"
	"sevenms-trading-bot/internal/risk"
)

// RateLimiter provides simple in-memory rate limiting per endpoint
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int
	window   time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request is allowed for the given key
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-r.window)

	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	ProductionMode bool   `json:"production_mode"`
}

// Server exposes the analysis pipeline over HTTP: trigger runs, resolve
// approvals, query positions and stream events over WebSocket
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	engine      *pipeline.Engine
	journal     *database.Journal
	authService *auth.Service
	authEnabled bool
	rateLimiter *RateLimiter
	hub         *WSHub
	logger      *logging.Logger
	config      ServerConfig
}

// NewServer creates the API server. authService and journal may be nil
// when those subsystems are disabled.
func NewServer(config ServerConfig, engine *pipeline.Engine, bus *events.Bus, authService *auth.Service, journal *database.Journal) *Server {
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(requestLogger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:8090"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:      router,
		engine:      engine,
		journal:     journal,
		authService: authService,
		authEnabled: authService != nil,
		rateLimiter: NewRateLimiter(60, time.Minute),
		hub:         NewWSHub(),
		logger:      logging.WithComponent("api"),
		config:      config,
	}

	server.setupRoutes()

	if bus != nil {
		server.hub.AttachBus(bus)
	}
	go server.hub.Run()

	return server
}

// requestLogger tags each request with a trace ID and stores the tagged
// logger in the request context so downstream handlers inherit it.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = logging.GenerateTraceID()
		}
		c.Header("X-Trace-ID", traceID)

		log := logging.WithComponent("http").WithTraceID(traceID).WithFields(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		})
		c.Request = c.Request.WithContext(logging.NewContext(c.Request.Context(), log))

		c.Next()

		log.WithDuration(time.Since(start)).
			WithField("status_code", c.Writer.Status()).
			Info("Request completed")
	}
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		if !s.rateLimiter.Allow(path) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
				"path":  path,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.handleWebSocket)

	s.router.GET("/api/auth/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"auth_enabled": s.authEnabled})
	})
	if s.authEnabled {
		s.router.POST("/api/auth/login", s.handleLogin)
	}

	api := s.router.Group("/api")
	api.Use(s.rateLimitMiddleware())
	if s.authEnabled {
		api.Use(auth.Middleware(s.authService.JWT()))
	}

	api.POST("/analyze", s.handleAnalyze)
	api.GET("/approvals/pending", s.handlePendingApproval)
	api.POST("/approvals/:id/decision", s.handleDecision)
	api.POST("/runs/:symbol/cancel", s.handleCancel)
	api.GET("/positions", s.handlePositions)
	api.GET("/runs", s.handleRuns)
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("API server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	health := gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if s.journal != nil {
		if err := s.journal.HealthCheck(c.Request.Context()); err != nil {
			health["status"] = "degraded"
			health["database"] = err.Error()
		} else {
			health["database"] = "ok"
		}
	}
	c.JSON(http.StatusOK, health)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	pair, err := s.authService.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	// Body is optional; the configured default symbol applies
	_ = c.ShouldBindJSON(&req)

	result, err := s.engine.Analyze(c.Request.Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, market.ErrDataUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handlePendingApproval(c *gin.Context) {
	req, err := s.engine.PendingRequest(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pending request"})
		return
	}
	c.JSON(http.StatusOK, req)
}

type decisionRequest struct {
	Type   string        `json:"type" binding:"required"`
	Reason string        `json:"reason"`
	Volume float64       `json:"volume"`
	Edited *editedLevels `json:"edited"`
}

type editedLevels struct {
	Side       string  `json:"side"`
	EntryPrice float64 `json:"entry_price"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
}

func (s *Server) handleDecision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision type required"})
		return
	}

	decision := approval.Decision{
		Type:   approval.DecisionType(req.Type),
		Reason: req.Reason,
		Volume: req.Volume,
	}
	switch decision.Type {
	case approval.DecisionApprove, approval.DecisionReject:
	case approval.DecisionEdit:
		if req.Edited == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "edit decision requires edited levels"})
			return
		}
		decision.Edited = &risk.Parameters{
			Side:       risk.Side(req.Edited.Side),
			EntryPrice: req.Edited.EntryPrice,
			StopLoss:   req.Edited.StopLoss,
			TakeProfit: req.Edited.TakeProfit,
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown decision type"})
		return
	}

	outcome, err := s.engine.Decide(c.Request.Context(), c.Param("id"), decision)
	if err != nil {
		switch {
		case errors.Is(err, approval.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, approval.ErrAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, broker.ErrExecutionRejected):
			// The decision resolved; only the order was refused
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   err.Error(),
				"outcome": outcome,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) handleCancel(c *gin.Context) {
	req, err := s.engine.Cancel(c.Request.Context(), c.Param("symbol"), c.Query("reason"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pending request for symbol"})
		return
	}
	c.JSON(http.StatusOK, req)
}

func (s *Server) handlePositions(c *gin.Context) {
	positions, err := s.engine.OpenPositions(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"open_positions": len(positions),
		"positions":      positions,
	})
}

func (s *Server) handleRuns(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "journal not configured"})
		return
	}

	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol required"})
		return
	}

	runs, err := s.journal.RecentRuns(c.Request.Context(), symbol, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
