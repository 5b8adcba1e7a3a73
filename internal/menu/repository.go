package menu

import (
	"context"

	"maitred/internal/models"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

// ErrDishNotFound is returned when no dish has the requested id
var ErrDishNotFound = errors.New("dish not found")

// Repository defines the database operations for dishes
type Repository interface {
	List(ctx context.Context, category models.Category) ([]models.Dish, error)
	Get(ctx context.Context, id int) (*models.Dish, error)
	Create(ctx context.Context, dish *models.Dish) error
	Update(ctx context.Context, id int, fields map[string]interface{}) (*models.Dish, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

// GormRepository stores dishes through gorm
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a dish repository over db
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) List(ctx context.Context, category models.Category) ([]models.Dish, error) {
	q := r.db
	if category != "" && category != models.CategoryAll {
		q = q.Where("category = ?", string(category))
	}
	var dishes []models.Dish
	if err := q.Order("id asc").Find(&dishes).Error; err != nil {
		return nil, errors.Wrap(err, "list dishes")
	}
	return dishes, nil
}

func (r *GormRepository) Get(ctx context.Context, id int) (*models.Dish, error) {
	var dish models.Dish
	err := r.db.Where("id = ?", id).First(&dish).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrDishNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get dish %d", id)
	}
	return &dish, nil
}

func (r *GormRepository) Create(ctx context.Context, dish *models.Dish) error {
	if err := models.ValidateDish(dish); err != nil {
		return err
	}
	if err := r.db.Create(dish).Error; err != nil {
		return errors.Wrap(err, "create dish")
	}
	return nil
}

// Update applies a partial update; unknown columns are rejected by gorm.
func (r *GormRepository) Update(ctx context.Context, id int, fields map[string]interface{}) (*models.Dish, error) {
	dish, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.Model(dish).Updates(fields).Error; err != nil {
		return nil, errors.Wrapf(err, "update dish %d", id)
	}
	return r.Get(ctx, id)
}

func (r *GormRepository) Delete(ctx context.Context, id int) error {
	res := r.db.Where("id = ?", id).Delete(&models.Dish{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete dish %d", id)
	}
	if res.RowsAffected == 0 {
		return ErrDishNotFound
	}
	return nil
}

func (r *GormRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Model(&models.Dish{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "count dishes")
	}
	return n, nil
}
