package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"salesbackend/models"
)

// Firestore implements the repositories on Cloud Firestore. Queries only
// use single-field equality and range filters so no composite index has to
// be provisioned; ordering is applied in memory.
type Firestore struct {
	Client *firestore.Client
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{Client: client}
}

func NewFirestoreStore(client *firestore.Client) *Store {
	f := NewFirestore(client)
	return &Store{
		Users:    f,
		Sessions: f,
		Products: f,
		Sales:    f,
		closer:   func(context.Context) error { return client.Close() },
	}
}

func (f *Firestore) users() *firestore.CollectionRef    { return f.Client.Collection("users") }
func (f *Firestore) sessions() *firestore.CollectionRef { return f.Client.Collection("sessions") }
func (f *Firestore) products() *firestore.CollectionRef { return f.Client.Collection("products") }
func (f *Firestore) sales() *firestore.CollectionRef    { return f.Client.Collection("sales") }

// ---- users ----

// CreateUser checks for the email and creates the document in one
// transaction; Firestore has no unique indexes.
func (f *Firestore) CreateUser(ctx context.Context, user *models.User) error {
	return f.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(f.users().Where("email", "==", user.Email).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return ErrDuplicate
		}
		return tx.Create(f.users().Doc(user.ID), user)
	})
}

func (f *Firestore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	it := f.users().Where("email", "==", email).Limit(1).Documents(ctx)
	defer it.Stop()

	doc, err := it.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return docToUser(doc)
}

func (f *Firestore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	snap, err := f.users().Doc(id).Get(ctx)
	if err != nil {
		return nil, fsNotFound(err)
	}
	return docToUser(snap)
}

func (f *Firestore) UpdateProfile(ctx context.Context, userID string, update models.UpdateProfile) (*models.Profile, error) {
	var updates []firestore.Update
	for field, value := range update.Fields() {
		updates = append(updates, firestore.Update{Path: "profile." + field, Value: value})
	}
	if _, err := f.users().Doc(userID).Update(ctx, updates); err != nil {
		return nil, fsNotFound(err)
	}
	user, err := f.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user.Profile, nil
}

// ---- sessions ----

func (f *Firestore) CreateSession(ctx context.Context, session *models.Session) error {
	_, err := f.sessions().Doc(session.ID).Create(ctx, session)
	if status.Code(err) == codes.AlreadyExists {
		return ErrDuplicate
	}
	return err
}

func (f *Firestore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	snap, err := f.sessions().Doc(id).Get(ctx)
	if err != nil {
		return nil, fsNotFound(err)
	}
	var session models.Session
	if err := snap.DataTo(&session); err != nil {
		return nil, err
	}
	session.ID = snap.Ref.ID
	return &session, nil
}

func (f *Firestore) DeleteSession(ctx context.Context, id string) error {
	_, err := f.sessions().Doc(id).Delete(ctx, firestore.Exists)
	return fsNotFound(err)
}

func (f *Firestore) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	it := f.sessions().Where("expires_at", "<", before).Documents(ctx)
	defer it.Stop()

	var n int64
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return n, err
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// ---- products ----

func (f *Firestore) CreateProduct(ctx context.Context, product *models.Product) error {
	_, err := f.products().Doc(product.ID).Create(ctx, product)
	if status.Code(err) == codes.AlreadyExists {
		return ErrDuplicate
	}
	return err
}

func (f *Firestore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	snap, err := f.products().Doc(id).Get(ctx)
	if err != nil {
		return nil, fsNotFound(err)
	}
	return docToProduct(snap)
}

func (f *Firestore) ListProductsByOwner(ctx context.Context, userID string) ([]models.Product, error) {
	products, err := f.queryProducts(ctx, f.products().Where("user_id", "==", userID))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})
	return products, nil
}

func (f *Firestore) ListLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	return f.queryProducts(ctx, f.products().Where("quantity", "<=", threshold))
}

func (f *Firestore) queryProducts(ctx context.Context, q firestore.Query) ([]models.Product, error) {
	it := q.Documents(ctx)
	defer it.Stop()

	products := []models.Product{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		p, err := docToProduct(doc)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

func (f *Firestore) UpdateProduct(ctx context.Context, id string, update models.UpdateProduct) (*models.Product, error) {
	updates := []firestore.Update{{Path: "updated_at", Value: time.Now().UTC()}}
	for field, value := range update.Fields() {
		updates = append(updates, firestore.Update{Path: field, Value: value})
	}
	if _, err := f.products().Doc(id).Update(ctx, updates); err != nil {
		return nil, fsNotFound(err)
	}
	return f.GetProduct(ctx, id)
}

func (f *Firestore) DeleteProduct(ctx context.Context, id string) error {
	_, err := f.products().Doc(id).Delete(ctx, firestore.Exists)
	return fsNotFound(err)
}

// ---- sales ----

// CommitSale reads every product, checks ownership and stock, then writes
// the new quantities and the sale inside one transaction. Firestore retries
// the function on contention, so the stock check always runs against the
// committed quantity.
func (f *Firestore) CommitSale(ctx context.Context, sale *models.Sale) error {
	decrements := Decrements(sale.Items)

	return f.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		remaining := make([]int, len(decrements))
		for i, d := range decrements {
			snap, err := tx.Get(f.products().Doc(d.ProductID))
			if err != nil {
				if status.Code(err) == codes.NotFound {
					return fmt.Errorf("%w: product %s", ErrNotFound, d.ProductID)
				}
				return err
			}
			p, err := docToProduct(snap)
			if err != nil {
				return err
			}
			if p.UserID != sale.UserID {
				return fmt.Errorf("%w: product %s", ErrForbidden, d.ProductID)
			}
			if p.Quantity < d.Quantity {
				return fmt.Errorf("%w: product %s", ErrInsufficientStock, d.ProductID)
			}
			remaining[i] = p.Quantity - d.Quantity
		}

		now := time.Now().UTC()
		for i, d := range decrements {
			if err := tx.Update(f.products().Doc(d.ProductID), []firestore.Update{
				{Path: "quantity", Value: remaining[i]},
				{Path: "updated_at", Value: now},
			}); err != nil {
				return err
			}
		}
		return tx.Create(f.sales().Doc(sale.ID), sale)
	})
}

func (f *Firestore) ForEachSale(ctx context.Context, userID string, fn func(*models.Sale) error) error {
	it := f.sales().Where("user_id", "==", userID).Documents(ctx)
	defer it.Stop()

	var sales []models.Sale
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}
		var sale models.Sale
		if err := doc.DataTo(&sale); err != nil {
			return err
		}
		sale.ID = doc.Ref.ID
		sales = append(sales, sale)
	}

	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].CreatedAt.Before(sales[j].CreatedAt)
	})
	for i := range sales {
		if err := fn(&sales[i]); err != nil {
			return err
		}
	}
	return nil
}

// ---- helpers ----

func docToUser(doc *firestore.DocumentSnapshot) (*models.User, error) {
	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, err
	}
	user.ID = doc.Ref.ID
	return &user, nil
}

func docToProduct(doc *firestore.DocumentSnapshot) (*models.Product, error) {
	var p models.Product
	if err := doc.DataTo(&p); err != nil {
		return nil, err
	}
	p.ID = doc.Ref.ID
	return &p, nil
}

func fsNotFound(err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}
