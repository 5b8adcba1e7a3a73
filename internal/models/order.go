package models

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// Order represents a confirmed checkout
type Order struct {
	gorm.Model
	Items       []OrderItem     `gorm:"foreignkey:OrderID" json:"items"`
	Status      string          `json:"status"`
	Total       decimal.Decimal `gorm:"type:decimal(10,2)" json:"total"`
	ItemCount   int             `json:"item_count"`
	Language    string          `json:"language"`
	SessionID   string          `gorm:"index" json:"session_id"`
	ConfirmedAt time.Time       `json:"confirmed_at"`
}

// OrderItem represents one cart line frozen at checkout
type OrderItem struct {
	gorm.Model
	OrderID   uint            `json:"order_id"`
	DishID    int             `json:"dish_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2)" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:decimal(10,2)" json:"line_total"`
}

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
)
