// Package render projects menu, cart, recommendations and context into the
// view a storefront client draws.
package render

import (
	"maitred/internal/cart"
	"maitred/internal/contextinfo"
	"maitred/internal/i18n"
	"maitred/internal/models"
)

// Input is everything a view is built from
type Input struct {
	Language        i18n.Language
	Category        models.Category
	Menu            []models.Dish
	MenuError       string
	Cart            cart.Summary
	Recommendations []int
	Context         contextinfo.Snapshot
}

type Tab struct {
	Category models.Category `json:"category"`
	Label    string          `json:"label"`
	Active   bool            `json:"active"`
}

type Card struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Emoji       string   `json:"emoji,omitempty"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Recommended bool     `json:"recommended"`
	Badge       string   `json:"badge,omitempty"`
	AddLabel    string   `json:"add_label"`
}

type CartLine struct {
	DishID    int    `json:"dish_id"`
	Name      string `json:"name"`
	Emoji     string `json:"emoji,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type CartView struct {
	Title           string     `json:"title"`
	Lines           []CartLine `json:"lines"`
	ItemCount       int        `json:"item_count"`
	TotalLabel      string     `json:"total_label"`
	Total           string     `json:"total"`
	EmptyText       string     `json:"empty_text,omitempty"`
	CheckoutLabel   string     `json:"checkout_label"`
	CheckoutEnabled bool       `json:"checkout_enabled"`
}

// MenuErrorView is set when the last menu load failed
type MenuErrorView struct {
	Message    string `json:"message"`
	RetryLabel string `json:"retry_label"`
}

type Header struct {
	Title   string `json:"title"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Weather string `json:"weather,omitempty"`
	Special string `json:"special_date,omitempty"`
}

// View is the full storefront state for one session
type View struct {
	Language  i18n.Language  `json:"language"`
	Header    Header         `json:"header"`
	MenuTitle string         `json:"menu_title"`
	Tabs      []Tab          `json:"tabs"`
	Cards     []Card         `json:"cards"`
	MenuError *MenuErrorView `json:"menu_error,omitempty"`
	Cart      CartView       `json:"cart"`
}

var tabOrder = append([]models.Category{models.CategoryAll}, models.Categories...)

// Build renders in. It has no side effects.
func Build(in Input) View {
	lang := in.Language
	if lang == "" {
		lang = i18n.Default
	}
	category := in.Category
	if category == "" {
		category = models.CategoryAll
	}

	v := View{
		Language: lang,
		Header: Header{
			Title:   i18n.T(lang, "title"),
			Date:    in.Context.Date,
			Time:    in.Context.Time,
			Weather: in.Context.WeatherLabel(),
			Special: in.Context.SpecialDate,
		},
		MenuTitle: i18n.T(lang, "menuTitle"),
		Tabs:      make([]Tab, 0, len(tabOrder)),
		Cards:     []Card{},
		Cart:      buildCart(lang, in.Cart),
	}

	for _, c := range tabOrder {
		v.Tabs = append(v.Tabs, Tab{Category: c, Label: i18n.Category(lang, string(c)), Active: c == category})
	}

	if in.MenuError != "" {
		v.MenuError = &MenuErrorView{Message: i18n.T(lang, "menuError"), RetryLabel: i18n.T(lang, "retry")}
	}

	recommended := make(map[int]bool, len(in.Recommendations))
	for _, id := range in.Recommendations {
		recommended[id] = true
	}

	for i := range in.Menu {
		d := &in.Menu[i]
		if !d.IsInCategory(category) {
			continue
		}
		card := Card{
			ID:          d.ID,
			Name:        d.Name,
			Emoji:       d.Emoji,
			Description: d.Description,
			Price:       cart.FormatPrice(d.Price),
			Category:    d.Category,
			Tags:        append([]string{}, d.Tags...),
			Recommended: recommended[d.ID],
			AddLabel:    i18n.T(lang, "addToCart"),
		}
		if card.Recommended {
			card.Badge = i18n.T(lang, "recommended")
		}
		v.Cards = append(v.Cards, card)
	}
	return v
}

func buildCart(lang i18n.Language, s cart.Summary) CartView {
	cv := CartView{
		Title:           i18n.T(lang, "cartTitle"),
		Lines:           make([]CartLine, 0, len(s.Lines)),
		ItemCount:       s.ItemCount,
		TotalLabel:      i18n.T(lang, "total"),
		Total:           cart.FormatPrice(s.Total),
		CheckoutLabel:   i18n.T(lang, "checkout"),
		CheckoutEnabled: len(s.Lines) > 0,
	}
	for _, l := range s.Lines {
		cv.Lines = append(cv.Lines, CartLine{
			DishID:    l.DishID,
			Name:      l.Name,
			Emoji:     l.Emoji,
			Quantity:  l.Quantity,
			UnitPrice: cart.FormatPrice(l.UnitPrice),
			LineTotal: cart.FormatPrice(l.LineTotal),
		})
	}
	if len(s.Lines) == 0 {
		cv.EmptyText = i18n.T(lang, "emptyCart")
	}
	return cv
}
