package cart

import (
	"fmt"
	"sync"

	"maitred/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCart is returned when checking out a cart without lines
	ErrEmptyCart = errors.New("cart is empty")
	// ErrUnknownDish is returned when a dish id is not on the current menu
	ErrUnknownDish = errors.New("unknown dish")
)

// Line is one dish in the cart. Quantity is always positive.
type Line struct {
	Dish     models.Dish `json:"dish"`
	Quantity int         `json:"quantity"`
}

// Total is price times quantity
func (l Line) Total() decimal.Decimal {
	return l.Dish.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// MaxQuantity caps a single line
const MaxQuantity = 999

// Cart holds at most one line per dish id, in insertion order.
// It is safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

// New returns an empty cart
func New() *Cart {
	return &Cart{}
}

func (c *Cart) indexOf(id int) int {
	for i := range c.lines {
		if c.lines[i].Dish.ID == id {
			return i
		}
	}
	return -1
}

// Add appends a line for dish or increments the existing one by one
func (c *Cart) Add(dish models.Dish) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(dish.ID); i >= 0 {
		if c.lines[i].Quantity < MaxQuantity {
			c.lines[i].Quantity++
		}
		return
	}
	c.lines = append(c.lines, Line{Dish: dish, Quantity: 1})
}

// Remove deletes the line for id. Unknown ids are ignored.
func (c *Cart) Remove(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
}

func (c *Cart) removeLocked(id int) {
	if i := c.indexOf(id); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// SetQuantity changes the quantity of id by delta, removing the line when it
// reaches zero or below and capping it at MaxQuantity. Unknown ids are ignored.
func (c *Cart) SetQuantity(id, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return
	}
	q := c.lines[i].Quantity
	switch {
	case delta >= MaxQuantity-q:
		c.lines[i].Quantity = MaxQuantity
	case delta <= -q:
		c.removeLocked(id)
	default:
		c.lines[i].Quantity = q + delta
	}
}

// ItemCount is the sum of all quantities
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Total sums every line exactly and rounds to cents
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return totalOf(c.lines)
}

func totalOf(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return total.Round(2)
}

// Lines returns a copy of the lines in insertion order
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Empty reports whether the cart has no lines
func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Clear drops every line
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// SummaryLine is a cart line as shown at checkout
type SummaryLine struct {
	DishID    int             `json:"dish_id"`
	Name      string          `json:"name"`
	Emoji     string          `json:"emoji,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Summary is the checkout view of a cart
type Summary struct {
	Lines     []SummaryLine   `json:"lines"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// Summary captures every line with its total
func (c *Cart) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return summaryOf(c.lines)
}

// Take empties the cart atomically and returns the lines it held
func (c *Cart) Take() ([]Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) == 0 {
		return nil, ErrEmptyCart
	}
	taken := c.lines
	c.lines = nil
	return taken, nil
}

// Restore puts taken lines back ahead of anything added since, merging
// quantities for dishes present in both.
func (c *Cart) Restore(taken []Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	merged := make([]Line, 0, len(taken)+len(c.lines))
	merged = append(merged, taken...)
	for _, l := range c.lines {
		found := false
		for i := range merged {
			if merged[i].Dish.ID == l.Dish.ID {
				merged[i].Quantity += l.Quantity
				if merged[i].Quantity > MaxQuantity {
					merged[i].Quantity = MaxQuantity
				}
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, l)
		}
	}
	c.lines = merged
}

// SummaryOf builds the checkout view of lines
func SummaryOf(lines []Line) Summary {
	return summaryOf(lines)
}

func summaryOf(lines []Line) Summary {
	s := Summary{Lines: make([]SummaryLine, 0, len(lines))}
	for _, l := range lines {
		s.Lines = append(s.Lines, SummaryLine{
			DishID:    l.Dish.ID,
			Name:      l.Dish.Name,
			Emoji:     l.Dish.Emoji,
			Quantity:  l.Quantity,
			UnitPrice: l.Dish.Price,
			LineTotal: l.Total().Round(2),
		})
		s.ItemCount += l.Quantity
	}
	s.Total = totalOf(lines)
	return s
}

// FormatPrice renders an amount as dollars with two decimals
func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// ConfirmationText is the message shown once an order is placed
func ConfirmationText(total decimal.Decimal) string {
	return fmt.Sprintf("Order confirmed! Total: %s\n\nThank you for your order!", FormatPrice(total))
}
