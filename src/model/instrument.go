package model

import "github.com/shopspring/decimal"

// Category groups instruments the way the market screen filters them.
type Category string

const (
	CategoryHalalStocks  Category = "halal-stocks"
	CategoryIslamicBonds Category = "islamic-bonds"
	CategorySukuk        Category = "sukuk"
	CategoryCommodities  Category = "commodities"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryHalalStocks, CategoryIslamicBonds, CategorySukuk, CategoryCommodities:
		return true
	}
	return false
}

// Instrument is a tradable asset with its live quote.
// Only the price updater changes Price, ChangeAbsolute and ChangePercent.
type Instrument struct {
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	ChangeAbsolute decimal.Decimal `json:"change"`
	ChangePercent  decimal.Decimal `json:"changePercent"`
	Category       Category        `json:"category"`
	IsHalal        bool            `json:"isHalal"`
	MarketCap      string          `json:"marketCap,omitempty"`
	Volume         string          `json:"volume,omitempty"`
	Description    string          `json:"description,omitempty"`
}

// Quote is the slice of an instrument pushed to live price subscribers.
type Quote struct {
	Symbol         string          `json:"symbol"`
	Price          decimal.Decimal `json:"price"`
	ChangeAbsolute decimal.Decimal `json:"change"`
	ChangePercent  decimal.Decimal `json:"changePercent"`
}

func (i Instrument) Quote() Quote {
	return Quote{
		Symbol:         i.Symbol,
		Price:          i.Price,
		ChangeAbsolute: i.ChangeAbsolute,
		ChangePercent:  i.ChangePercent,
	}
}
