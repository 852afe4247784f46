package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"salesbackend/models"
)

type Mongo struct {
	client   *mongo.Client
	users    *mongo.Collection
	sessions *mongo.Collection
	products *mongo.Collection
	sales    *mongo.Collection

	// transactions is set by DetectTransactions on replica sets and
	// sharded clusters; standalone servers fall back to compensation.
	transactions bool
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		client:   db.Client(),
		users:    db.Collection("users"),
		sessions: db.Collection("sessions"),
		products: db.Collection("products"),
		sales:    db.Collection("sales"),
	}
}

// Store exposes m through the repository interfaces; closing it
// disconnects the client.
func (m *Mongo) Store() *Store {
	return &Store{
		Users:    m,
		Sessions: m,
		Products: m,
		Sales:    m,
		closer:   m.client.Disconnect,
	}
}

// DetectTransactions asks the server whether it is a replica set member or
// a mongos and enables transactional sale commits if so.
func (m *Mongo) DetectTransactions(ctx context.Context) error {
	var hello bson.M
	if err := m.client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return fmt.Errorf("hello: %w", err)
	}
	_, replicaSet := hello["setName"]
	msg, _ := hello["msg"].(string)
	m.transactions = replicaSet || msg == "isdbgrid"
	return nil
}

// Transactional reports whether sale commits run inside a transaction.
func (m *Mongo) Transactional() bool { return m.transactions }

// EnsureIndexes creates the indexes the queries below rely on. The unique
// email index is what turns a second registration into ErrDuplicate.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	if _, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	if _, err := m.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("products index: %w", err)
	}
	if _, err := m.sales.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("sales index: %w", err)
	}
	if _, err := m.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "expires_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("sessions index: %w", err)
	}
	return nil
}

// ---- users ----

func (m *Mongo) CreateUser(ctx context.Context, user *models.User) error {
	_, err := m.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := m.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (m *Mongo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := m.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (m *Mongo) UpdateProfile(ctx context.Context, userID string, update models.UpdateProfile) (*models.Profile, error) {
	set := bson.M{}
	for field, value := range update.Fields() {
		set["profile."+field] = value
	}

	var user models.User
	err := m.users.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, notFound(err)
	}
	return &user.Profile, nil
}

// ---- sessions ----

func (m *Mongo) CreateSession(ctx context.Context, session *models.Session) error {
	_, err := m.sessions.InsertOne(ctx, session)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (m *Mongo) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := m.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&session); err != nil {
		return nil, notFound(err)
	}
	return &session, nil
}

func (m *Mongo) DeleteSession(ctx context.Context, id string) error {
	res, err := m.sessions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := m.sessions.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ---- products ----

func (m *Mongo) CreateProduct(ctx context.Context, product *models.Product) error {
	_, err := m.products.InsertOne(ctx, product)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (m *Mongo) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := m.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (m *Mongo) ListProductsByOwner(ctx context.Context, userID string) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return m.findProducts(ctx, bson.M{"user_id": userID}, opts)
}

func (m *Mongo) ListLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}, {Key: "quantity", Value: 1}})
	return m.findProducts(ctx, bson.M{"quantity": bson.M{"$lte": threshold}}, opts)
}

func (m *Mongo) findProducts(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Product, error) {
	cursor, err := m.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	for cursor.Next(ctx) {
		var p models.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (m *Mongo) UpdateProduct(ctx context.Context, id string, update models.UpdateProduct) (*models.Product, error) {
	set := bson.M(update.Fields())
	set["updated_at"] = time.Now().UTC()

	var product models.Product
	err := m.products.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (m *Mongo) DeleteProduct(ctx context.Context, id string) error {
	res, err := m.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- sales ----

// CommitSale applies each decrement as a conditional $inc that only matches
// while the product still belongs to the seller and holds enough stock, so
// concurrent sales cannot oversell. On a replica set the decrements and the
// sale insert share one transaction. On a standalone server a failed line or
// insert gives back the decrements already applied.
func (m *Mongo) CommitSale(ctx context.Context, sale *models.Sale) error {
	if !m.transactions {
		applied, err := m.applySale(ctx, sale)
		if err != nil {
			m.restoreStock(ctx, applied)
		}
		return err
	}

	session, err := m.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		_, err := m.applySale(sc, sale)
		return nil, err
	})
	return err
}

// applySale runs the decrements and the insert, returning the decrements
// that were applied before any failure.
func (m *Mongo) applySale(ctx context.Context, sale *models.Sale) ([]StockDecrement, error) {
	now := time.Now().UTC()
	var applied []StockDecrement

	for _, d := range Decrements(sale.Items) {
		res, err := m.products.UpdateOne(ctx,
			bson.M{"_id": d.ProductID, "user_id": sale.UserID, "quantity": bson.M{"$gte": d.Quantity}},
			bson.M{"$inc": bson.M{"quantity": -d.Quantity}, "$set": bson.M{"updated_at": now}},
		)
		if err != nil {
			return applied, err
		}
		if res.MatchedCount == 0 {
			return applied, m.decrementFailure(ctx, d, sale.UserID)
		}
		applied = append(applied, d)
	}

	if _, err := m.sales.InsertOne(ctx, sale); err != nil {
		return applied, err
	}
	return applied, nil
}

// decrementFailure explains why a conditional decrement matched nothing.
func (m *Mongo) decrementFailure(ctx context.Context, d StockDecrement, userID string) error {
	product, err := m.GetProduct(ctx, d.ProductID)
	switch {
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: product %s", ErrNotFound, d.ProductID)
	case err != nil:
		return err
	case product.UserID != userID:
		return fmt.Errorf("%w: product %s", ErrForbidden, d.ProductID)
	default:
		return fmt.Errorf("%w: product %s", ErrInsufficientStock, d.ProductID)
	}
}

func (m *Mongo) restoreStock(ctx context.Context, applied []StockDecrement) {
	if len(applied) == 0 {
		return
	}
	// The restore must run even if the request context is already done.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	for _, d := range applied {
		_, err := m.products.UpdateOne(ctx,
			bson.M{"_id": d.ProductID},
			bson.M{"$inc": bson.M{"quantity": d.Quantity}, "$set": bson.M{"updated_at": time.Now().UTC()}},
		)
		if err != nil {
			log.Printf("restore stock for product %s (+%d) failed: %v", d.ProductID, d.Quantity, err)
		}
	}
}

func (m *Mongo) ForEachSale(ctx context.Context, userID string, fn func(*models.Sale) error) error {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := m.sales.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var sale models.Sale
		if err := cursor.Decode(&sale); err != nil {
			return err
		}
		if err := fn(&sale); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
