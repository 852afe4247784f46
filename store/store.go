// Package store holds the document-store repositories behind the service
// layer. Each backend (MongoDB, Firestore, memory) implements every
// repository interface on a single type and is exposed through Store.
package store

import (
	"context"
	"errors"
	"time"

	"salesbackend/models"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrDuplicate         = errors.New("duplicate document")
	ErrForbidden         = errors.New("document owned by another user")
	ErrInsufficientStock = errors.New("not enough stock")
)

type UserRepository interface {
	// CreateUser fails with ErrDuplicate when the email is already registered.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, update models.UpdateProfile) (*models.Profile, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProductsByOwner(ctx context.Context, userID string) ([]models.Product, error)
	// ListLowStock returns the products of every owner whose quantity is at
	// or below threshold.
	ListLowStock(ctx context.Context, threshold int) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id string, update models.UpdateProduct) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type SaleRepository interface {
	// CommitSale decrements the stock of every product referenced by the
	// sale items and persists the sale as one unit: either all of it is
	// applied or none of it is. A decrement only applies while the product
	// belongs to sale.UserID and holds enough stock; otherwise ErrNotFound,
	// ErrForbidden or ErrInsufficientStock is returned.
	CommitSale(ctx context.Context, sale *models.Sale) error
	// ForEachSale calls fn for every sale of the user, oldest first.
	ForEachSale(ctx context.Context, userID string, fn func(*models.Sale) error) error
}

type Store struct {
	Users    UserRepository
	Sessions SessionRepository
	Products ProductRepository
	Sales    SaleRepository

	closer func(context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}

// StockDecrement is the total quantity a sale takes from one product.
type StockDecrement struct {
	ProductID string
	Quantity  int
}

// Decrements folds sale items into one decrement per product, in the order
// the products first appear.
func Decrements(items []models.SaleItem) []StockDecrement {
	index := make(map[string]int, len(items))
	var out []StockDecrement
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity += item.QuantitySold
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, StockDecrement{ProductID: item.ProductID, Quantity: item.QuantitySold})
	}
	return out
}
