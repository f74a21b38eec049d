package catalog

import "github.com/shopspring/decimal"

// Product is a card in the storefront catalog. It never changes after seeding.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
}

// DefaultProducts is the catalog written on first start.
func DefaultProducts() []Product {
	return []Product{
		{ID: "visa-gold-1", Title: "Visa Gold Card", Price: decimal.NewFromInt(25), Image: "Visa Gold 1.jpeg", Description: "Premium Visa Gold virtual card"},
		{ID: "visa-infinite-1", Title: "Visa Infinite Card", Price: decimal.NewFromInt(35), Image: "Visa Infinite1.jpeg", Description: "Elite Visa Infinite virtual card"},
		{ID: "visa-infinite-2", Title: "Visa Infinite Card Premium", Price: decimal.NewFromInt(50), Image: "Visa Infinite 2.jpeg", Description: "Premium Visa Infinite virtual card"},
		{ID: "platinum-mastercard-1", Title: "Platinum Mastercard", Price: decimal.NewFromInt(100), Image: "Platinum Mastercard1.jpeg", Description: "Exclusive Platinum Mastercard"},
		{ID: "american-express-1", Title: "American Express Card", Price: decimal.NewFromInt(75), Image: "American Express 1.jpeg", Description: "Premium American Express card"},
		{ID: "american-express-2", Title: "American Express Premium", Price: decimal.NewFromInt(90), Image: "American Express 2.jpeg", Description: "Elite American Express card"},
		{ID: "discover-1", Title: "Discover Card", Price: decimal.NewFromInt(40), Image: "Discover1.jpeg", Description: "Premium Discover virtual card"},
		{ID: "discover-2", Title: "Discover Premium", Price: decimal.NewFromInt(55), Image: "Discover2.jpeg", Description: "Elite Discover virtual card"},
		{ID: "platinum-2", Title: "Platinum Card", Price: decimal.NewFromInt(80), Image: "platinum2.jpeg", Description: "Premium Platinum virtual card"},
	}
}
