package database

import (
	"maitred/internal/models"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// SeedDishes inserts dishes when the table is empty and returns how many were written
func SeedDishes(db *gorm.DB, dishes []models.Dish) (int, error) {
	var count int
	if err := db.Model(&models.Dish{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	tx := db.Begin()
	for i := range dishes {
		if err := tx.Create(&dishes[i]).Error; err != nil {
			tx.Rollback()
			return 0, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return len(dishes), nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DefaultDishes is the house menu used when the database starts empty
func DefaultDishes() []models.Dish {
	return []models.Dish{
		{
			ID: 1, Name: "Garden Salad", Emoji: "🥗", Price: price("8.99"),
			Description: "Crisp greens, cherry tomatoes and cucumber with a lemon vinaigrette",
			Category:    string(models.CategoryAppetizers),
			Tags:        models.StringSlice{"vegetarian", "vegan", "low-carb", "light"},
		},
		{
			ID: 2, Name: "Chicken Wings", Emoji: "🍗", Price: price("10.99"),
			Description: "Crispy wings tossed in a honey garlic glaze",
			Category:    string(models.CategoryAppetizers),
			Tags:        models.StringSlice{"spicy", "protein"},
			Allergens:   models.StringSlice{"soy"},
		},
		{
			ID: 3, Name: "Spring Rolls", Emoji: "🥟", Price: price("7.50"),
			Description: "Vegetable spring rolls with sweet chili sauce",
			Category:    string(models.CategoryAppetizers),
			Tags:        models.StringSlice{"vegetarian", "vegan-option"},
			Allergens:   models.StringSlice{"gluten"},
		},
		{
			ID: 4, Name: "Creamy Mushroom Pasta", Emoji: "🍝", Price: price("15.99"),
			Description: "Fettuccine in a parmesan cream sauce with wild mushrooms",
			Category:    string(models.CategoryMains),
			Tags:        models.StringSlice{"vegetarian", "comfort", "soft"},
			Allergens:   models.StringSlice{"dairy", "gluten"},
		},
		{
			ID: 5, Name: "Grilled Salmon", Emoji: "🐟", Price: price("22.50"),
			Description: "Atlantic salmon with steamed greens and lemon butter",
			Category:    string(models.CategoryMains),
			Tags:        models.StringSlice{"low-carb", "protein"},
			Allergens:   models.StringSlice{"fish", "dairy"},
		},
		{
			ID: 6, Name: "Vegetable Curry", Emoji: "🍛", Price: price("14.50"),
			Description: "Coconut curry with seasonal vegetables and jasmine rice",
			Category:    string(models.CategoryMains),
			Tags:        models.StringSlice{"vegetarian", "vegan", "warm", "comfort"},
		},
		{
			ID: 7, Name: "Beef Burger", Emoji: "🍔", Price: price("16.99"),
			Description:  "Beef patty, cheddar, lettuce and tomato on a brioche bun",
			Category:     string(models.CategoryMains),
			Tags:         models.StringSlice{"protein", "hearty"},
			Allergens:    models.StringSlice{"dairy", "gluten", "eggs"},
			Restrictions: models.StringSlice{"beef"},
		},
		{
			ID: 8, Name: "Pork Dumpling Soup", Emoji: "🍜", Price: price("13.00"),
			Description:  "Pork dumplings in a ginger broth",
			Category:     string(models.CategoryMains),
			Tags:         models.StringSlice{"warm", "soup"},
			Allergens:    models.StringSlice{"gluten", "soy"},
			Restrictions: models.StringSlice{"pork"},
		},
		{
			ID: 9, Name: "Chocolate Lava Cake", Emoji: "🍫", Price: price("8.50"),
			Description: "Warm chocolate cake with a molten centre",
			Category:    string(models.CategoryDesserts),
			Tags:        models.StringSlice{"vegetarian", "sweet", "comfort"},
			Allergens:   models.StringSlice{"dairy", "eggs", "gluten"},
		},
		{
			ID: 10, Name: "Mango Sorbet", Emoji: "🍨", Price: price("6.50"),
			Description: "Dairy-free mango sorbet",
			Category:    string(models.CategoryDesserts),
			Tags:        models.StringSlice{"vegetarian", "vegan", "refreshing"},
		},
		{
			ID: 11, Name: "Peanut Brittle Sundae", Emoji: "🥜", Price: price("7.99"),
			Description: "Vanilla ice cream with house peanut brittle",
			Category:    string(models.CategoryDesserts),
			Tags:        models.StringSlice{"vegetarian", "sweet"},
			Allergens:   models.StringSlice{"peanuts", "dairy"},
		},
		{
			ID: 12, Name: "Fresh Lemonade", Emoji: "🍋", Price: price("4.50"),
			Description: "Freshly squeezed lemonade",
			Category:    string(models.CategoryDrinks),
			Tags:        models.StringSlice{"vegetarian", "vegan", "refreshing"},
		},
		{
			ID: 13, Name: "Hot Coffee", Emoji: "☕", Price: price("3.99"),
			Description: "Single-origin drip coffee",
			Category:    string(models.CategoryDrinks),
			Tags:        models.StringSlice{"vegetarian", "vegan", "warm", "energizing"},
		},
		{
			ID: 14, Name: "Ginger Honey Tea", Emoji: "🍵", Price: price("4.25"),
			Description: "Hot ginger tea sweetened with honey",
			Category:    string(models.CategoryDrinks),
			Tags:        models.StringSlice{"vegetarian", "warm", "soothing"},
		},
	}
}
