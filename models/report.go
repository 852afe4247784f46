package models

// DailySales aggregates every sale recorded on one calendar day.
type DailySales struct {
	Date       string  `json:"date"`
	Sales      float64 `json:"sales"`
	Profit     float64 `json:"profit"`
	TotalItems int     `json:"total_items"`
}

// ProductSales aggregates every line item sold under one item name.
type ProductSales struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Profit   float64 `json:"profit"`
}

type SalesSummary struct {
	DailySales  []DailySales   `json:"dailySales"`
	TopProducts []ProductSales `json:"topProducts"`
}

// UnknownItemName labels line items stored without a name.
const UnknownItemName = "Unknown"
