package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"salesbackend/models"
)

// Memory keeps every collection in process. It backs STORE_BACKEND=memory
// and the tests; nothing survives a restart.
type Memory struct {
	mu           sync.RWMutex
	users        map[string]models.User
	emails       map[string]string
	sessions     map[string]models.Session
	products     map[string]models.Product
	productOrder []string
	sales        []models.Sale
}

func NewMemory() *Memory {
	return &Memory{
		users:    map[string]models.User{},
		emails:   map[string]string{},
		sessions: map[string]models.Session{},
		products: map[string]models.Product{},
	}
}

func NewMemoryStore() *Store {
	m := NewMemory()
	return &Store{Users: m, Sessions: m, Products: m, Sales: m}
}

// ---- users ----

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := m.emails[email]; ok {
		return ErrDuplicate
	}
	m.users[user.ID] = *user
	m.emails[email] = user.ID
	return nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	user := m.users[id]
	return &user, nil
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *Memory) UpdateProfile(_ context.Context, userID string, update models.UpdateProfile) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	update.Apply(&user.Profile)
	m.users[userID] = user
	profile := user.Profile
	return &profile, nil
}

// ---- sessions ----

func (m *Memory) CreateSession(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.ID]; ok {
		return ErrDuplicate
	}
	m.sessions[session.ID] = *session
	return nil
}

func (m *Memory) GetSession(_ context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (m *Memory) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *Memory) DeleteExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, s := range m.sessions {
		if s.ExpiresAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// ---- products ----

func (m *Memory) CreateProduct(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[product.ID]; ok {
		return ErrDuplicate
	}
	m.products[product.ID] = *product
	m.productOrder = append(m.productOrder, product.ID)
	return nil
}

func (m *Memory) GetProduct(_ context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListProductsByOwner(_ context.Context, userID string) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := []models.Product{}
	for _, id := range m.productOrder {
		if p := m.products[id]; p.UserID == userID {
			products = append(products, p)
		}
	}
	return products, nil
}

func (m *Memory) ListLowStock(_ context.Context, threshold int) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var products []models.Product
	for _, id := range m.productOrder {
		if p := m.products[id]; p.Quantity <= threshold {
			products = append(products, p)
		}
	}
	return products, nil
}

func (m *Memory) UpdateProduct(_ context.Context, id string, update models.UpdateProduct) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	update.Apply(&p)
	p.UpdatedAt = time.Now().UTC()
	m.products[id] = p
	return &p, nil
}

func (m *Memory) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	for i, pid := range m.productOrder {
		if pid == id {
			m.productOrder = append(m.productOrder[:i], m.productOrder[i+1:]...)
			break
		}
	}
	return nil
}

// ---- sales ----

func (m *Memory) CommitSale(_ context.Context, sale *models.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	decrements := Decrements(sale.Items)
	for _, d := range decrements {
		p, ok := m.products[d.ProductID]
		if !ok {
			return fmt.Errorf("%w: product %s", ErrNotFound, d.ProductID)
		}
		if p.UserID != sale.UserID {
			return fmt.Errorf("%w: product %s", ErrForbidden, d.ProductID)
		}
		if p.Quantity < d.Quantity {
			return fmt.Errorf("%w: product %s", ErrInsufficientStock, d.ProductID)
		}
	}

	now := time.Now().UTC()
	for _, d := range decrements {
		p := m.products[d.ProductID]
		p.Quantity -= d.Quantity
		p.UpdatedAt = now
		m.products[d.ProductID] = p
	}

	stored := *sale
	stored.Items = append([]models.SaleItem(nil), sale.Items...)
	m.sales = append(m.sales, stored)
	return nil
}

func (m *Memory) ForEachSale(_ context.Context, userID string, fn func(*models.Sale) error) error {
	m.mu.RLock()
	var sales []models.Sale
	for _, s := range m.sales {
		if s.UserID == userID {
			sales = append(sales, s)
		}
	}
	m.mu.RUnlock()

	for i := range sales {
		if err := fn(&sales[i]); err != nil {
			return err
		}
	}
	return nil
}

// SeedSale appends a sale without touching stock. Tests use it to build
// history on fixed dates.
func (m *Memory) SeedSale(sale models.Sale) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, sale)
}
