// Package i18n holds the storefront strings for each supported language.
package i18n

import "github.com/pkg/errors"

// Language is a supported UI language code
type Language string

const (
	English            Language = "en"
	TraditionalChinese Language = "zh"
	SimplifiedChinese  Language = "zhCN"
)

// Default is used when no language has been chosen
const Default = English

// ErrUnsupportedLanguage is returned by Parse for unknown codes
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Parse validates a language code; empty selects the default
func Parse(code string) (Language, error) {
	switch l := Language(code); l {
	case English, TraditionalChinese, SimplifiedChinese:
		return l, nil
	case "":
		return Default, nil
	}
	return "", errors.Wrapf(ErrUnsupportedLanguage, "%q", code)
}

// T looks up key for lang. Missing keys translate to themselves.
func T(lang Language, key string) string {
	if s, ok := translations[lang][key]; ok {
		return s
	}
	if s, ok := translations[Default][key]; ok && lang != Default {
		return s
	}
	return key
}

// Category returns the tab label of a menu category
func Category(lang Language, category string) string {
	switch category {
	case "all":
		return T(lang, "categoryAll")
	case "appetizers":
		return T(lang, "categoryAppetizers")
	case "mains":
		return T(lang, "categoryMains")
	case "desserts":
		return T(lang, "categoryDesserts")
	case "drinks":
		return T(lang, "categoryDrinks")
	}
	return category
}

var translations = map[Language]map[string]string{
	English: {
		"title":              "🍽️ Delicious Bites Restaurant",
		"menuTitle":          "Our Menu",
		"categoryAll":        "All",
		"categoryAppetizers": "Appetizers",
		"categoryMains":      "Main Courses",
		"categoryDesserts":   "Desserts",
		"categoryDrinks":     "Drinks",
		"addToCart":          "Add to Cart",
		"recommended":        "✓ Recommended for you",
		"cartTitle":          "Your Order",
		"emptyCart":          "Your cart is empty",
		"total":              "Total",
		"checkout":           "Checkout",
		"chatbotApply":       "Apply Recommendations",
		"chatbotClear":       "Clear Chat",
		"chatbotWelcome":     "Hello! I'm here to help you find meals that suit your dietary needs and feelings. Please tell me about any allergies, health conditions, dietary preferences, or how you're feeling. For example: \"I'm upset\" or \"I have diabetes and a peanut allergy\" or \"I'm vegetarian and have a sore throat.\"",
		"checkoutTitle":      "Order Confirmation",
		"confirmOrder":       "Confirm Order",
		"menuError":          "Failed to load menu. Please try again.",
		"retry":              "Retry",
	},
	TraditionalChinese: {
		"title":              "🍽️ 美味餐廳",
		"menuTitle":          "我們的菜單",
		"categoryAll":        "全部",
		"categoryAppetizers": "開胃菜",
		"categoryMains":      "主菜",
		"categoryDesserts":   "甜品",
		"categoryDrinks":     "飲品",
		"addToCart":          "加入購物車",
		"recommended":        "✓ 為您推薦",
		"cartTitle":          "您的訂單",
		"emptyCart":          "您的購物車是空的",
		"total":              "總計",
		"checkout":           "結帳",
		"chatbotApply":       "應用推薦",
		"chatbotClear":       "清除對話",
		"chatbotWelcome":     "您好！我是來幫助您找到適合您飲食需求和感受的餐點。請告訴我任何過敏、健康狀況、飲食偏好或您的感受。例如：「我很沮喪」或「我有糖尿病和花生過敏」或「我是素食主義者，而且喉嚨痛。」",
		"checkoutTitle":      "訂單確認",
		"confirmOrder":       "確認訂單",
	},
	SimplifiedChinese: {
		"title":              "🍽️ 美味餐厅",
		"menuTitle":          "我们的菜单",
		"categoryAll":        "全部",
		"categoryAppetizers": "开胃菜",
		"categoryMains":      "主菜",
		"categoryDesserts":   "甜品",
		"categoryDrinks":     "饮品",
		"addToCart":          "加入购物车",
		"recommended":        "✓ 为您推荐",
		"cartTitle":          "您的订单",
		"emptyCart":          "您的购物车是空的",
		"total":              "总计",
		"checkout":           "结账",
		"chatbotApply":       "应用推荐",
		"chatbotClear":       "清除对话",
		"chatbotWelcome":     "您好！我是来帮助您找到适合您饮食需求和感受的餐点。请告诉我任何过敏、健康状况、饮食偏好或您的感受。例如：「我很沮丧」或「我有糖尿病和花生过敏」或「我是素食主义者，而且喉咙痛。」",
		"checkoutTitle":      "订单确认",
		"confirmOrder":       "确认订单",
	},
}
