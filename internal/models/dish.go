package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, matching the menu API.
	decimal.MarshalJSONWithoutQuotes = true
}

// Dish represents a purchasable menu record
type Dish struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	Emoji        string          `json:"emoji,omitempty"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	Category     string          `gorm:"index" json:"category"`
	Tags         StringSlice     `gorm:"type:text" json:"tags"`
	Allergens    StringSlice     `gorm:"type:text" json:"allergens"`
	Restrictions StringSlice     `gorm:"type:text" json:"restrictions"`
}

// TableName sets the table name for Dish
func (Dish) TableName() string {
	return "dishes"
}

// Category is the menu section a dish belongs to
type Category string

const (
	CategoryAll        Category = "all"
	CategoryAppetizers Category = "appetizers"
	CategoryMains      Category = "mains"
	CategoryDesserts   Category = "desserts"
	CategoryDrinks     Category = "drinks"
)

// Categories lists the menu sections in display order.
var Categories = []Category{CategoryAppetizers, CategoryMains, CategoryDesserts, CategoryDrinks}

// ParseCategory validates a category name. "all" is only valid for filtering.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryAll, CategoryAppetizers, CategoryMains, CategoryDesserts, CategoryDrinks:
		return c, nil
	case "":
		return CategoryAll, nil
	}
	return "", fmt.Errorf("unknown category: %q", s)
}

// ValidateDish validates a dish before it is stored
func ValidateDish(d *Dish) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("dish name is required")
	}
	if strings.TrimSpace(d.Description) == "" {
		return fmt.Errorf("dish description is required")
	}
	if d.Price.IsNegative() {
		return fmt.Errorf("dish price must not be negative")
	}
	c, err := ParseCategory(d.Category)
	if err != nil || c == CategoryAll {
		return fmt.Errorf("dish category must be one of appetizers, mains, desserts, drinks")
	}
	return nil
}

// IsInCategory checks if the dish belongs to a specific category
func (d *Dish) IsInCategory(category Category) bool {
	return category == CategoryAll || strings.EqualFold(d.Category, string(category))
}

// HasTag checks if the dish carries a tag
func (d *Dish) HasTag(tag string) bool {
	return d.Tags.Contains(tag)
}

// PromptLine renders the dish the way the assistant sees the menu.
func (d *Dish) PromptLine() string {
	return fmt.Sprintf("ID:%d %q (%s) - Tags:%s Allergens:%s Restrictions:%s",
		d.ID, d.Name, d.Category,
		d.Tags.Join("none"), d.Allergens.Join("none"), d.Restrictions.Join("none"))
}
