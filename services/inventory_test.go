package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"salesbackend/cache"
	"salesbackend/models"
	"salesbackend/store"
)

type fakePhotos struct {
	names []string
}

func (f *fakePhotos) PutPhoto(_ context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty upload")
	}
	f.names = append(f.names, name)
	return "https://cdn.example/" + name, nil
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func newInventory(t *testing.T) (*InventoryService, *cache.Memory, *fakePhotos) {
	t.Helper()
	c := cache.NewMemory(time.Minute)
	photos := &fakePhotos{}
	return NewInventoryService(store.NewMemoryStore(), c, photos), c, photos
}

func createInput(name string, buy, sell float64, qty int) models.CreateProduct {
	return models.CreateProduct{
		ItemName: name, BuyPrice: floatPtr(buy), SellingPrice: floatPtr(sell), Quantity: intPtr(qty),
		PurchaseDate: "2024-01-01", Category: "general",
	}
}

func TestInventoryCRUD(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInventory(t)

	id, err := svc.AddProduct(ctx, "u1", createInput("Tea", 2.5, 4, 4))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddProduct(ctx, "u1", createInput("Rice", 1, 2, 10)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddProduct(ctx, "u2", createInput("Soap", 100, 200, 1)); err != nil {
		t.Fatal(err)
	}

	inv, err := svc.ListInventory(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(inv.Products) != 2 || inv.TotalValue != 20 {
		t.Fatalf("inventory = %d products, total %v; want 2, 20", len(inv.Products), inv.TotalValue)
	}

	p, err := svc.GetProduct(ctx, "u1", id)
	if err != nil || p.ItemName != "Tea" {
		t.Fatalf("GetProduct = %+v, %v", p, err)
	}

	updated, err := svc.UpdateProduct(ctx, "u1", id, models.UpdateProduct{Quantity: intPtr(8), Category: strPtr("drinks")})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Quantity != 8 || updated.Category != "drinks" || updated.ItemName != "Tea" {
		t.Errorf("updated = %+v", updated)
	}

	inv, _ = svc.ListInventory(ctx, "u1")
	if inv.TotalValue != 30 {
		t.Errorf("total after update = %v, want 30 (cache not invalidated?)", inv.TotalValue)
	}
	p, _ = svc.GetProduct(ctx, "u1", id)
	if p.Quantity != 8 {
		t.Errorf("cached product not invalidated: %+v", p)
	}

	if err := svc.DeleteProduct(ctx, "u1", id); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetProduct(ctx, "u1", id); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProduct after delete err = %v", err)
	}
}

func TestInventoryValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInventory(t)

	if _, err := svc.AddProduct(ctx, "u1", createInput("Tea", -1, 4, 4)); !errors.Is(err, ErrValidation) {
		t.Errorf("negative price err = %v", err)
	}
	missing := createInput("Tea", 1, 2, 3)
	missing.Quantity = nil
	if _, err := svc.AddProduct(ctx, "u1", missing); !errors.Is(err, ErrValidation) {
		t.Errorf("missing quantity err = %v", err)
	}

	id, _ := svc.AddProduct(ctx, "u1", createInput("Tea", 1, 2, 3))
	if _, err := svc.UpdateProduct(ctx, "u1", id, models.UpdateProduct{}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty update err = %v", err)
	}
}

func TestInventoryOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newInventory(t)
	id, _ := svc.AddProduct(ctx, "owner", createInput("Tea", 1, 2, 3))

	if _, err := svc.GetProduct(ctx, "intruder", id); !errors.Is(err, ErrForbidden) {
		t.Errorf("GetProduct err = %v, want ErrForbidden", err)
	}
	if _, err := svc.UpdateProduct(ctx, "intruder", id, models.UpdateProduct{Quantity: intPtr(0)}); !errors.Is(err, ErrForbidden) {
		t.Errorf("UpdateProduct err = %v, want ErrForbidden", err)
	}
	if err := svc.DeleteProduct(ctx, "intruder", id); !errors.Is(err, ErrForbidden) {
		t.Errorf("DeleteProduct err = %v, want ErrForbidden", err)
	}
	if _, err := svc.GetProduct(ctx, "owner", id); err != nil {
		t.Errorf("owner lost the product: %v", err)
	}
}

func TestInventoryEmptyListIsNotNull(t *testing.T) {
	svc, _, _ := newInventory(t)
	inv, err := svc.ListInventory(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if inv.Products == nil || inv.TotalValue != 0 {
		t.Errorf("inventory = %+v", inv)
	}
}

func TestSetPhoto(t *testing.T) {
	ctx := context.Background()
	svc, _, photos := newInventory(t)
	id, _ := svc.AddProduct(ctx, "u1", createInput("Tea", 1, 2, 3))

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatal(err)
	}
	url, err := svc.SetPhoto(ctx, "u1", id, &buf, "image/png")
	if err != nil {
		t.Fatalf("SetPhoto: %v", err)
	}
	if !strings.HasPrefix(url, "https://cdn.example/products/"+id) || len(photos.names) != 1 {
		t.Errorf("url = %q, uploads = %v", url, photos.names)
	}
	p, _ := svc.GetProduct(ctx, "u1", id)
	if p.PhotoURL != url {
		t.Errorf("photo_url = %q, want %q", p.PhotoURL, url)
	}

	if _, err := svc.SetPhoto(ctx, "u1", id, strings.NewReader("GIF89a"), "image/gif"); !errors.Is(err, ErrValidation) {
		t.Errorf("gif err = %v", err)
	}
	if _, err := svc.SetPhoto(ctx, "intruder", id, &buf, "image/png"); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign photo err = %v", err)
	}
}

func TestSetPhotoWithoutStorage(t *testing.T) {
	svc := NewInventoryService(store.NewMemoryStore(), cache.NewMemory(time.Minute), nil)
	_, err := svc.SetPhoto(context.Background(), "u1", "p1", strings.NewReader(""), "image/png")
	if !errors.Is(err, ErrPhotoStorageDisabled) {
		t.Fatalf("err = %v", err)
	}
}
