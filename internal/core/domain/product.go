package domain

import "github.com/shopspring/decimal"

// Product is the catalog's view of a sellable item. The catalog owns it; the
// core only reads price and stock and decrements stock during checkout.
type Product struct {
	ID       string
	Name     string
	ImageURL string
	Price    decimal.Decimal
	Stock    int
}

type PriceStock struct {
	Price decimal.Decimal
	Stock int
}
