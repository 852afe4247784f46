package models

import (
	"time"
)

type Product struct {
	ID           string    `bson:"_id" json:"id" firestore:"-"`
	ItemName     string    `bson:"item_name" json:"item_name" firestore:"item_name"`
	BuyPrice     float64   `bson:"buy_price" json:"buy_price" firestore:"buy_price"`
	SellingPrice float64   `bson:"selling_price" json:"selling_price" firestore:"selling_price"`
	Quantity     int       `bson:"quantity" json:"quantity" firestore:"quantity"`
	PurchaseDate string    `bson:"purchase_date" json:"purchase_date" firestore:"purchase_date"`
	Category     string    `bson:"category" json:"category" firestore:"category"`
	UserID       string    `bson:"user_id" json:"user_id" firestore:"user_id"`
	PhotoURL     string    `bson:"photo_url,omitempty" json:"photo_url,omitempty" firestore:"photo_url,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at" firestore:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at" firestore:"updated_at"`
}

// CreateProduct is the payload for POST /api/products. Pointers let the
// validator tell a missing number apart from an explicit zero.
type CreateProduct struct {
	ItemName     string   `json:"item_name" binding:"required"`
	BuyPrice     *float64 `json:"buy_price" binding:"required,gte=0"`
	SellingPrice *float64 `json:"selling_price" binding:"required,gte=0"`
	Quantity     *int     `json:"quantity" binding:"required,gte=0"`
	PurchaseDate string   `json:"purchase_date" binding:"required"`
	Category     string   `json:"category" binding:"required"`
}

// UpdateProduct carries a partial update; nil fields are left untouched.
type UpdateProduct struct {
	ItemName     *string  `json:"item_name,omitempty" bson:"item_name,omitempty" binding:"omitempty,min=1"`
	BuyPrice     *float64 `json:"buy_price,omitempty" bson:"buy_price,omitempty" binding:"omitempty,gte=0"`
	SellingPrice *float64 `json:"selling_price,omitempty" bson:"selling_price,omitempty" binding:"omitempty,gte=0"`
	Quantity     *int     `json:"quantity,omitempty" bson:"quantity,omitempty" binding:"omitempty,gte=0"`
	PurchaseDate *string  `json:"purchase_date,omitempty" bson:"purchase_date,omitempty"`
	Category     *string  `json:"category,omitempty" bson:"category,omitempty"`
	PhotoURL     *string  `json:"-" bson:"photo_url,omitempty"`
}

// Empty reports whether the update carries no field at all.
func (u UpdateProduct) Empty() bool {
	return u.ItemName == nil && u.BuyPrice == nil && u.SellingPrice == nil &&
		u.Quantity == nil && u.PurchaseDate == nil && u.Category == nil && u.PhotoURL == nil
}

// Apply copies the set fields of u onto p.
func (u UpdateProduct) Apply(p *Product) {
	if u.ItemName != nil {
		p.ItemName = *u.ItemName
	}
	if u.BuyPrice != nil {
		p.BuyPrice = *u.BuyPrice
	}
	if u.SellingPrice != nil {
		p.SellingPrice = *u.SellingPrice
	}
	if u.Quantity != nil {
		p.Quantity = *u.Quantity
	}
	if u.PurchaseDate != nil {
		p.PurchaseDate = *u.PurchaseDate
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.PhotoURL != nil {
		p.PhotoURL = *u.PhotoURL
	}
}

// Fields returns the set fields keyed by their stored name.
func (u UpdateProduct) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if u.ItemName != nil {
		fields["item_name"] = *u.ItemName
	}
	if u.BuyPrice != nil {
		fields["buy_price"] = *u.BuyPrice
	}
	if u.SellingPrice != nil {
		fields["selling_price"] = *u.SellingPrice
	}
	if u.Quantity != nil {
		fields["quantity"] = *u.Quantity
	}
	if u.PurchaseDate != nil {
		fields["purchase_date"] = *u.PurchaseDate
	}
	if u.Category != nil {
		fields["category"] = *u.Category
	}
	if u.PhotoURL != nil {
		fields["photo_url"] = *u.PhotoURL
	}
	return fields
}

type Inventory struct {
	Products   []Product `json:"products"`
	TotalValue float64   `json:"total_value"`
}
