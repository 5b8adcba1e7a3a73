// Package api exposes the storefront over HTTP and WebSocket.
package api

import (
	"net/http"

	"maitred/internal/config"
	"maitred/internal/contextinfo"
	"maitred/internal/database"
	"maitred/internal/dialogue"
	"maitred/internal/llm"
	"maitred/internal/menu"
	"maitred/internal/monitoring"
	"maitred/internal/orders"
	"maitred/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

// ContextSource provides the current context snapshot
type ContextSource interface {
	Snapshot() contextinfo.Snapshot
}

// Deps are the components the server routes to
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Menu     *menu.Store
	MenuRepo menu.Repository
	Sessions *session.Manager
	Engine   *dialogue.Engine
	Checkout *orders.Checkout
	Context  ContextSource
	Proxy    *llm.Proxy
	Metrics  *monitoring.Metrics
	Log      logrus.FieldLogger
}

// Server wires the storefront routes onto a gin engine
type Server struct {
	router   *gin.Engine
	db       *gorm.DB
	menu     *menu.Store
	sessions *session.Manager
	engine   *dialogue.Engine
	checkout *orders.Checkout
	context  ContextSource
	metrics  *monitoring.Metrics
	log      logrus.FieldLogger
}

func NewServer(d Deps) *Server {
	s := &Server{
		router:   gin.New(),
		db:       d.DB,
		menu:     d.Menu,
		sessions: d.Sessions,
		engine:   d.Engine,
		checkout: d.Checkout,
		context:  d.Context,
		metrics:  d.Metrics,
		log:      d.Log.WithField("component", "api"),
	}

	s.router.Use(gin.Recovery(), requestLogger(s.log), corsMiddleware(d.Config))
	s.setupRoutes(d)
	return s
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", sessionHeader},
		ExposeHeaders: []string{sessionHeader, requestIDHeader},
	}
	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

func (s *Server) setupRoutes(d Deps) {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	menu.NewHandler(d.MenuRepo, d.Menu, d.Log).Register(api)
	if d.Proxy != nil {
		api.POST("/qwen", d.Proxy.Handle)
	}
	api.POST("/sessions", s.handleCreateSession)
	api.GET("/metrics", s.handleMetrics)
	api.GET("/orders", s.handleListOrders)

	scoped := api.Group("", s.requireSession)
	{
		scoped.GET("/view", s.handleView)
		scoped.GET("/cart", s.handleCart)
		scoped.POST("/cart/items", s.handleAddItem)
		scoped.PATCH("/cart/items/:id", s.handleAdjustItem)
		scoped.DELETE("/cart/items/:id", s.handleRemoveItem)
		scoped.GET("/checkout", s.handleCheckout)
		scoped.POST("/checkout/confirm", s.handleConfirm)
		scoped.GET("/chat", s.handleChatState)
		scoped.POST("/chat", s.handleChat)
		scoped.POST("/chat/apply", s.handleApply)
		scoped.POST("/chat/clear", s.handleClear)
		scoped.PUT("/language", s.handleLanguage)
		scoped.GET("/context", s.handleContext)
	}

	s.router.GET("/ws/chat", s.requireSession, s.handleChatSocket)
}

// Router returns the Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	status := "disconnected"
	if database.Ping(s.db) {
		status = "connected"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": status})
}

func (s *Server) handleMetrics(c *gin.Context) {
	mon := s.metrics.Monitor()
	if mon == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, mon.GetMetrics())
}

func (s *Server) handleListOrders(c *gin.Context) {
	list, err := s.checkout.List(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Error("failed to list orders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "orders": list})
}
