package menu

import (
	"encoding/json"
	"net/http"
	"strconv"

	"maitred/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var requiredFields = []string{"name", "description", "price", "category"}

// Handler serves the menu CRUD endpoints
type Handler struct {
	repo  Repository
	store *Store
	log   logrus.FieldLogger
}

func NewHandler(repo Repository, store *Store, log logrus.FieldLogger) *Handler {
	return &Handler{repo: repo, store: store, log: log.WithField("component", "menu_api")}
}

// Register mounts the menu routes on the /api group
func (h *Handler) Register(api gin.IRouter) {
	api.GET("/menu", h.list)
	api.POST("/menu", h.create)
	api.POST("/menu/refresh", h.refresh)
	api.GET("/menu/:id", h.get)
	api.PUT("/menu/:id", h.update)
	api.DELETE("/menu/:id", h.delete)
}

// dishPatch carries the optional fields of a dish update
type dishPatch struct {
	Name         *string             `json:"name"`
	Description  *string             `json:"description"`
	Emoji        *string             `json:"emoji"`
	Price        *decimal.Decimal    `json:"price"`
	Category     *string             `json:"category"`
	Tags         *models.StringSlice `json:"tags"`
	Allergens    *models.StringSlice `json:"allergens"`
	Restrictions *models.StringSlice `json:"restrictions"`
}

func (p dishPatch) fields() (map[string]interface{}, error) {
	f := map[string]interface{}{}
	if p.Name != nil {
		f["name"] = *p.Name
	}
	if p.Description != nil {
		f["description"] = *p.Description
	}
	if p.Emoji != nil {
		f["emoji"] = *p.Emoji
	}
	if p.Price != nil {
		if p.Price.IsNegative() {
			return nil, errors.New("dish price must not be negative")
		}
		f["price"] = *p.Price
	}
	if p.Category != nil {
		c, err := models.ParseCategory(*p.Category)
		if err != nil || c == models.CategoryAll {
			return nil, errors.Errorf("invalid category: %q", *p.Category)
		}
		f["category"] = string(c)
	}
	if p.Tags != nil {
		f["tags"] = *p.Tags
	}
	if p.Allergens != nil {
		f["allergens"] = *p.Allergens
	}
	if p.Restrictions != nil {
		f["restrictions"] = *p.Restrictions
	}
	return f, nil
}

func noCache(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}

func (h *Handler) list(c *gin.Context) {
	category, err := models.ParseCategory(c.Query("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dishes, err := h.repo.List(c.Request.Context(), category)
	if err != nil {
		h.log.WithError(err).Error("list dishes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error", "message": err.Error()})
		return
	}

	noCache(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(dishes),
		"dishes":  dishes,
	})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := dishID(c)
	if !ok {
		return
	}
	dish, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "dish": dish})
}

func (h *Handler) create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || !gjson.ValidBytes(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	for _, field := range requiredFields {
		if !gjson.GetBytes(body, field).Exists() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: " + field})
			return
		}
	}

	var dish models.Dish
	if err := json.Unmarshal(body, &dish); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if cat, err := models.ParseCategory(dish.Category); err == nil {
		dish.Category = string(cat)
	}
	if err := models.ValidateDish(&dish); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.repo.Create(c.Request.Context(), &dish); err != nil {
		h.writeError(c, err)
		return
	}
	h.reload(c)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Dish created successfully",
		"id":      dish.ID,
	})
}

func (h *Handler) update(c *gin.Context) {
	id, ok := dishID(c)
	if !ok {
		return
	}
	var patch dishPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fields, err := patch.fields()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	dish, err := h.repo.Update(c.Request.Context(), id, fields)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.reload(c)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Dish updated successfully",
		"dish":    dish,
	})
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := dishID(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	h.reload(c)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Dish deleted successfully"})
}

func (h *Handler) refresh(c *gin.Context) {
	err := h.store.Load(c.Request.Context())
	if err != nil && !errors.Is(err, ErrSuperseded) {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": h.store.Status()})
}

// reload refreshes the store after a mutation; a failure is recorded on the
// store and does not fail the request.
func (h *Handler) reload(c *gin.Context) {
	if h.store == nil {
		return
	}
	if err := h.store.Load(c.Request.Context()); err != nil && !errors.Is(err, ErrSuperseded) {
		h.log.WithError(err).Warn("menu reload after mutation failed")
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrDishNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dish not found"})
		return
	}
	h.log.WithError(err).Error("menu repository")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error", "message": err.Error()})
}

func dishID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dish id"})
		return 0, false
	}
	return id, true
}
