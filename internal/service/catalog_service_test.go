package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lumenshop/storefront/internal/models"
)

func TestCatalogHidesInactiveProducts(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	catalog := NewCatalogService(env.products, 10*time.Second)

	original := models.MustMoney("80.00")
	seed := []*models.Product{
		{ID: "lamp", Name: "Desk Lamp", Brand: "Lumen", Category: "home", Price: models.MustMoney("60.00"), OriginalPrice: &original, IsActive: true},
		{ID: "mug", Name: "Mug", Brand: "Clay", Category: "kitchen", Price: models.MustMoney("12.00"), IsActive: true},
		{ID: "old", Name: "Old Lamp", Brand: "Lumen", Category: "home", Price: models.MustMoney("5.00"), IsActive: false},
	}
	for _, product := range seed {
		if err := catalog.Save(ctx, product); err != nil {
			t.Fatalf("save %s failed: %v", product.ID, err)
		}
	}

	products, total, err := catalog.ListPublic(ctx, "", "", 0, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(products) != 2 {
		t.Fatalf("inactive products should be hidden, got total=%d", total)
	}
	products, total, err = catalog.ListPublic(ctx, "home", "lamp", 1, 10)
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if total != 1 || products[0].ID != "lamp" {
		t.Fatalf("unexpected filtered products: %+v", products)
	}

	if _, err := catalog.Get(ctx, "old"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("inactive product should be not found, got %v", err)
	}
	if _, err := catalog.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing product should be not found, got %v", err)
	}

	snapshot, err := catalog.Snapshot(ctx, "lamp")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snapshot.ProductID != "lamp" || snapshot.Price.String() != "60.00" || snapshot.OriginalPrice == nil || snapshot.OriginalPrice.String() != "80.00" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}
