package utils

import "github.com/shopspring/decimal"

// LineAmount is selling price times quantity.
func LineAmount(sellingPrice float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(sellingPrice).Mul(decimal.NewFromInt(int64(quantity)))
}

// LineProfit is (selling price - buy price) times quantity.
func LineProfit(buyPrice, sellingPrice float64, quantity int) decimal.Decimal {
	margin := decimal.NewFromFloat(sellingPrice).Sub(decimal.NewFromFloat(buyPrice))
	return margin.Mul(decimal.NewFromInt(int64(quantity)))
}

// StockValue is buy price times quantity.
func StockValue(buyPrice float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(buyPrice).Mul(decimal.NewFromInt(int64(quantity)))
}

func ToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
