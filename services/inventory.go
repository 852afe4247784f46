package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"salesbackend/cache"
	"salesbackend/models"
	"salesbackend/store"
	"salesbackend/utils"
)

var ErrPhotoStorageDisabled = errors.New("photo storage is not configured")

type InventoryService struct {
	store  *store.Store
	cache  cache.Cache
	photos utils.PhotoStorage
	now    func() time.Time
}

// NewInventoryService builds the service; photos may be nil when object
// storage is not configured.
func NewInventoryService(s *store.Store, c cache.Cache, photos utils.PhotoStorage) *InventoryService {
	return &InventoryService{store: s, cache: c, photos: photos, now: time.Now}
}

func (s *InventoryService) AddProduct(ctx context.Context, userID string, input models.CreateProduct) (string, error) {
	if input.BuyPrice == nil || input.SellingPrice == nil || input.Quantity == nil {
		return "", newError(ErrValidation, "Missing product fields")
	}
	if *input.BuyPrice < 0 || *input.SellingPrice < 0 || *input.Quantity < 0 {
		return "", newError(ErrValidation, "Prices and quantity must not be negative")
	}

	now := s.now().UTC()
	product := &models.Product{
		ID:           uuid.NewString(),
		ItemName:     input.ItemName,
		BuyPrice:     *input.BuyPrice,
		SellingPrice: *input.SellingPrice,
		Quantity:     *input.Quantity,
		PurchaseDate: input.PurchaseDate,
		Category:     input.Category,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Products.CreateProduct(ctx, product); err != nil {
		return "", fromStore(err, "Product")
	}

	invalidate(ctx, s.cache, cache.ProductsKey(userID))
	return product.ID, nil
}

func (s *InventoryService) ListInventory(ctx context.Context, userID string) (*models.Inventory, error) {
	key := cache.ProductsKey(userID)
	var cached models.Inventory
	if readCache(ctx, s.cache, key, &cached) && cached.Products != nil {
		return &cached, nil
	}

	products, err := s.store.Products.ListProductsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, p := range products {
		total = total.Add(utils.StockValue(p.BuyPrice, p.Quantity))
	}
	inventory := &models.Inventory{Products: products, TotalValue: utils.ToFloat(total)}

	writeCache(ctx, s.cache, key, inventory)
	return inventory, nil
}

func (s *InventoryService) GetProduct(ctx context.Context, userID, productID string) (*models.Product, error) {
	key := cache.ProductKey(productID, userID)
	var cached models.Product
	if readCache(ctx, s.cache, key, &cached) && cached.ID != "" {
		return &cached, nil
	}

	product, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	writeCache(ctx, s.cache, key, product)
	return product, nil
}

func (s *InventoryService) UpdateProduct(ctx context.Context, userID, productID string, update models.UpdateProduct) (*models.Product, error) {
	if update.Empty() {
		return nil, newError(ErrValidation, "No valid fields provided")
	}
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return nil, err
	}

	product, err := s.store.Products.UpdateProduct(ctx, productID, update)
	if err != nil {
		return nil, fromStore(err, "Product")
	}

	invalidate(ctx, s.cache, cache.ProductsKey(userID), cache.ProductKey(productID, userID))
	return product, nil
}

func (s *InventoryService) DeleteProduct(ctx context.Context, userID, productID string) error {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return err
	}
	if err := s.store.Products.DeleteProduct(ctx, productID); err != nil {
		return fromStore(err, "Product")
	}

	invalidate(ctx, s.cache, cache.ProductsKey(userID), cache.ProductKey(productID, userID))
	return nil
}

// SetPhoto resizes the uploaded image, stores it and records its URL on
// the product.
func (s *InventoryService) SetPhoto(ctx context.Context, userID, productID string, r io.Reader, contentType string) (string, error) {
	if s.photos == nil {
		return "", ErrPhotoStorageDisabled
	}
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return "", err
	}

	data, err := utils.ResizeImage(r, contentType)
	if err != nil {
		if errors.Is(err, utils.ErrUnsupportedImage) {
			return "", newError(ErrValidation, "Only JPEG and PNG images are accepted")
		}
		return "", newError(ErrValidation, "Could not read image")
	}

	url, err := s.photos.PutPhoto(ctx, utils.PhotoObjectName(productID, s.now()), data)
	if err != nil {
		return "", err
	}
	if _, err := s.store.Products.UpdateProduct(ctx, productID, models.UpdateProduct{PhotoURL: &url}); err != nil {
		return "", fromStore(err, "Product")
	}

	invalidate(ctx, s.cache, cache.ProductsKey(userID), cache.ProductKey(productID, userID))
	return url, nil
}

func (s *InventoryService) ownedProduct(ctx context.Context, userID, productID string) (*models.Product, error) {
	product, err := s.store.Products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fromStore(err, "Product")
	}
	if product.UserID != userID {
		return nil, newError(ErrForbidden, "Unauthorized access")
	}
	return product, nil
}
