package models

import "time"

// SaleItem is one priced line of a sale. Name and prices are a snapshot
// taken when the sale was recorded.
type SaleItem struct {
	ProductID    string  `bson:"product_id" json:"product_id" firestore:"product_id"`
	ItemName     string  `bson:"item_name" json:"item_name" firestore:"item_name"`
	BuyPrice     float64 `bson:"buy_price" json:"buy_price" firestore:"buy_price"`
	SellingPrice float64 `bson:"selling_price" json:"selling_price" firestore:"selling_price"`
	QuantitySold int     `bson:"quantity_sold" json:"quantity_sold" firestore:"quantity_sold"`
	Amount       float64 `bson:"amount" json:"amount" firestore:"amount"`
	Profit       float64 `bson:"profit" json:"profit" firestore:"profit"`
}

type Sale struct {
	ID          string     `bson:"_id" json:"id" firestore:"-"`
	UserID      string     `bson:"user_id" json:"-" firestore:"user_id"`
	Date        string     `bson:"date" json:"date" firestore:"date"` // YYYY-MM-DD, UTC
	Items       []SaleItem `bson:"items" json:"items" firestore:"items"`
	TotalAmount float64    `bson:"total_amount" json:"total_amount" firestore:"total_amount"`
	TotalProfit float64    `bson:"total_profit" json:"total_profit" firestore:"total_profit"`
	CreatedAt   time.Time  `bson:"created_at" json:"-" firestore:"created_at"`
}

type SaleLineRequest struct {
	ProductID    string `json:"product_id"`
	QuantitySold int    `json:"quantity_sold"`
}

type SaleRequest struct {
	Items []SaleLineRequest `json:"items"`
}

// RecordedSale is the response body of POST /api/sales.
type RecordedSale struct {
	Message     string     `json:"message"`
	SaleID      string     `json:"sale_id"`
	TotalAmount float64    `json:"total_amount"`
	TotalProfit float64    `json:"total_profit"`
	Items       []SaleItem `json:"items"`
}

const DateLayout = "2006-01-02"
