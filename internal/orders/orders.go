package orders

import (
	"context"
	"time"

	"maitred/internal/cart"
	"maitred/internal/models"
	"maitred/internal/monitoring"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Repository persists confirmed orders
type Repository interface {
	Record(ctx context.Context, order *models.Order) error
	List(ctx context.Context) ([]models.Order, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Record stores the order and its items in one transaction
func (r *GormRepository) Record(ctx context.Context, order *models.Order) error {
	tx := r.db.Begin()
	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		return errors.Wrap(err, "record order")
	}
	if err := tx.Commit().Error; err != nil {
		return errors.Wrap(err, "commit order")
	}
	return nil
}

// List returns orders newest first with their items
func (r *GormRepository) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Order("id desc").Find(&orders).Error; err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Checkout turns carts into recorded orders
type Checkout struct {
	repo    Repository
	log     logrus.FieldLogger
	metrics *monitoring.Metrics
	now     func() time.Time
}

func NewCheckout(repo Repository, log logrus.FieldLogger, metrics *monitoring.Metrics) *Checkout {
	return &Checkout{
		repo:    repo,
		log:     log.WithField("component", "checkout"),
		metrics: metrics,
		now:     time.Now,
	}
}

// Confirm takes the cart's lines, records them as an order and returns the
// order with its confirmation text. The lines are taken atomically, so a
// concurrent confirm sees an empty cart. When recording fails they are put
// back ahead of anything added in the meantime.
func (c *Checkout) Confirm(ctx context.Context, cr *cart.Cart, sessionID, language string) (*models.Order, string, error) {
	lines, err := cr.Take()
	if err != nil {
		return nil, "", err
	}
	summary := cart.SummaryOf(lines)

	order := &models.Order{
		Status:      string(models.OrderStatusConfirmed),
		Total:       summary.Total,
		ItemCount:   summary.ItemCount,
		Language:    language,
		SessionID:   sessionID,
		ConfirmedAt: c.now(),
	}
	for _, l := range summary.Lines {
		order.Items = append(order.Items, models.OrderItem{
			DishID:    l.DishID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal,
		})
	}

	if err := c.repo.Record(ctx, order); err != nil {
		cr.Restore(lines)
		c.log.WithError(err).Error("failed to record order")
		return nil, "", err
	}
	c.metrics.OrderConfirmed()
	c.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"items":    order.ItemCount,
		"total":    order.Total.StringFixed(2),
	}).Info("order confirmed")

	return order, cart.ConfirmationText(order.Total), nil
}

// List exposes the recorded orders
func (c *Checkout) List(ctx context.Context) ([]models.Order, error) {
	return c.repo.List(ctx)
}
