package api

import (
	"net/http"
	"strconv"

	"maitred/internal/cart"
	"maitred/internal/dialogue"
	"maitred/internal/i18n"
	"maitred/internal/models"
	"maitred/internal/render"
	"maitred/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// languageCookie mirrors the session language for browser clients
const languageCookie = "language"

type addItemRequest struct {
	DishID int `json:"dish_id" binding:"required"`
}

type adjustItemRequest struct {
	Delta int `json:"delta"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type languageRequest struct {
	Language string `json:"language"`
}

func (s *Server) handleCreateSession(c *gin.Context) {
	sess, token, err := s.sessions.Create()
	if err != nil {
		s.log.WithError(err).Error("failed to create session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.Header(sessionHeader, token)
	c.JSON(http.StatusCreated, gin.H{
		"token":      token,
		"session_id": sess.ID,
		"language":   sess.Language(),
	})
}

func (s *Server) view(sess *session.Session, category models.Category) render.View {
	return render.Build(render.Input{
		Language:        sess.Language(),
		Category:        category,
		Menu:            s.menu.Dishes(),
		MenuError:       s.menu.Status().Error,
		Cart:            sess.Cart.Summary(),
		Recommendations: sess.Conversation.Recommendations(),
		Context:         s.context.Snapshot(),
	})
}

// viewCategory reads the optional category query shared by every view response
func viewCategory(c *gin.Context) (models.Category, bool) {
	category, err := models.ParseCategory(c.Query("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return category, true
}

// respondView answers with the fresh view. Handlers that mutate read the
// category with viewCategory before changing anything.
func (s *Server) respondView(c *gin.Context, status int, category models.Category, extra gin.H) {
	body := gin.H{"view": s.view(currentSession(c), category)}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

func (s *Server) handleView(c *gin.Context) {
	category, ok := viewCategory(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.view(currentSession(c), category))
}

func (s *Server) handleCart(c *gin.Context) {
	sess := currentSession(c)
	c.JSON(http.StatusOK, gin.H{"cart": sess.Cart.Summary()})
}

func itemID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dish id"})
		return 0, false
	}
	return id, true
}

func (s *Server) handleAddItem(c *gin.Context) {
	category, ok := viewCategory(c)
	if !ok {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dish_id is required"})
		return
	}
	dish, ok := s.menu.Find(req.DishID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": cart.ErrUnknownDish.Error()})
		return
	}
	currentSession(c).Cart.Add(dish)
	s.metrics.CartMutation("add")
	s.respondView(c, http.StatusOK, category, nil)
}

func (s *Server) handleAdjustItem(c *gin.Context) {
	category, ok := viewCategory(c)
	if !ok {
		return
	}
	id, ok := itemID(c)
	if !ok {
		return
	}
	var req adjustItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	currentSession(c).Cart.SetQuantity(id, req.Delta)
	s.metrics.CartMutation("adjust")
	s.respondView(c, http.StatusOK, category, nil)
}

func (s *Server) handleRemoveItem(c *gin.Context) {
	category, ok := viewCategory(c)
	if !ok {
		return
	}
	id, ok := itemID(c)
	if !ok {
		return
	}
	currentSession(c).Cart.Remove(id)
	s.metrics.CartMutation("remove")
	s.respondView(c, http.StatusOK, category, nil)
}

func (s *Server) handleCheckout(c *gin.Context) {
	sess := currentSession(c)
	lang := sess.Language()
	summary := sess.Cart.Summary()
	c.JSON(http.StatusOK, gin.H{
		"title":         i18n.T(lang, "checkoutTitle"),
		"confirm_label": i18n.T(lang, "confirmOrder"),
		"cart":          summary,
		"total":         cart.FormatPrice(summary.Total),
		"can_confirm":   len(summary.Lines) > 0,
	})
}

func (s *Server) handleConfirm(c *gin.Context) {
	category, ok := viewCategory(c)
	if !ok {
		return
	}
	sess := currentSession(c)
	order, message, err := s.checkout.Confirm(c.Request.Context(), sess.Cart, sess.ID, string(sess.Language()))
	if errors.Is(err, cart.ErrEmptyCart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error", "message": err.Error()})
		return
	}
	s.respondView(c, http.StatusOK, category, gin.H{"order": order, "message": message})
}

func (s *Server) handleChatState(c *gin.Context) {
	sess := currentSession(c)
	c.JSON(http.StatusOK, gin.H{
		"welcome": i18n.T(sess.Language(), "chatbotWelcome"),
		"state":   sess.Conversation.State(),
	})
}

func (s *Server) handleChat(c *gin.Context) {
	category, ok := viewCategory(c)
	if !ok {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sess := currentSession(c)
	res, err := s.engine.HandleTurn(c.Request.Context(), sess.Conversation, req.Message)
	switch {
	case errors.Is(err, dialogue.ErrEmptyMessage):
		c.Status(http.StatusNoContent)
		return
	case errors.Is(err, dialogue.ErrTurnInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.respondView(c, http.StatusOK, category, gin.H{"result": res})
}

func (s *Server) handleApply(c *gin.Context) {
	category, ok := viewCategory(c)
	if !ok {
		return
	}
	res := s.engine.Apply(currentSession(c).Conversation)
	s.respondView(c, http.StatusOK, category, gin.H{"result": res})
}

func (s *Server) handleClear(c *gin.Context) {
	category, ok := viewCategory(c)
	if !ok {
		return
	}
	sess := currentSession(c)
	s.engine.Clear(sess.Conversation)
	s.respondView(c, http.StatusOK, category, gin.H{"state": sess.Conversation.State()})
}

func (s *Server) handleLanguage(c *gin.Context) {
	category, ok := viewCategory(c)
	if !ok {
		return
	}
	var req languageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	lang, err := i18n.Parse(req.Language)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	currentSession(c).SetLanguage(lang)
	c.SetCookie(languageCookie, string(lang), 0, "/", "", false, false)
	s.respondView(c, http.StatusOK, category, nil)
}

func (s *Server) handleContext(c *gin.Context) {
	snap := s.context.Snapshot()
	c.JSON(http.StatusOK, gin.H{"context": snap, "weather_label": snap.WeatherLabel()})
}
