package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/lumenshop/storefront/internal/app"
	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/provider"
	"github.com/lumenshop/storefront/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	log := logger.S()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		log.Fatalw("seed_open_database_failed", "error", err)
	}
	container, err := provider.NewContainer(cfg, db)
	if err != nil {
		log.Fatalw("seed_container_failed", "error", err)
	}
	defer container.Close()

	for _, product := range seedProducts() {
		item := product
		if err := container.CatalogService.Save(ctx, &item); err != nil {
			log.Fatalw("seed_product_failed", "product_id", item.ID, "error", err)
		}
	}
	log.Infow("seed_products_done", "count", len(seedProducts()))

	email := strings.TrimSpace(os.Getenv("LUMEN_ADMIN_EMAIL"))
	password := os.Getenv("LUMEN_ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Warnw("seed_admin_skipped", "reason", "LUMEN_ADMIN_EMAIL or LUMEN_ADMIN_PASSWORD empty")
		return
	}
	_, err = container.IdentityService.Register(ctx, email, password, service.ProfileSeed{
		DisplayName:          "Administrator",
		Role:                 constants.RoleAdmin,
		ProvisioningVerified: true,
	})
	switch {
	case err == nil:
		log.Infow("seed_admin_created", "email", email)
	case errors.Is(err, service.ErrDuplicateIdentity):
		log.Infow("seed_admin_exists", "email", email)
	default:
		log.Fatalw("seed_admin_failed", "error", err)
	}
}

func seedProducts() []models.Product {
	original := models.MustMoney("49.00")
	return []models.Product{
		{
			ID:            "prd-linen-shirt",
			Name:          "Linen Shirt",
			Brand:         "Lumen Basics",
			Category:      "apparel",
			Description:   "Breathable linen shirt with a relaxed fit.",
			Price:         models.MustMoney("39.00"),
			OriginalPrice: &original,
			Image:         "/static/products/linen-shirt.jpg",
			Options:       map[string][]string{"size": {"S", "M", "L", "XL"}, "color": {"white", "sand"}},
			Stock:         120,
			IsActive:      true,
		},
		{
			ID:          "prd-desk-lamp",
			Name:        "Desk Lamp",
			Brand:       "Halo",
			Category:    "home",
			Description: "Dimmable LED desk lamp with a brass arm.",
			Price:       models.MustMoney("30.00"),
			Image:       "/static/products/desk-lamp.jpg",
			Options:     map[string][]string{"color": {"black", "brass"}},
			Stock:       45,
			IsActive:    true,
		},
		{
			ID:          "prd-ceramic-mug",
			Name:        "Ceramic Mug",
			Brand:       "Kiln & Co",
			Category:    "kitchen",
			Description: "Hand glazed stoneware mug, 350 ml.",
			Price:       models.MustMoney("12.50"),
			Image:       "/static/products/ceramic-mug.jpg",
			Stock:       300,
			IsActive:    true,
		},
		{
			ID:          "prd-canvas-tote",
			Name:        "Canvas Tote",
			Brand:       "Lumen Basics",
			Category:    "accessories",
			Description: "Heavy canvas tote with an inner pocket.",
			Price:       models.MustMoney("18.00"),
			Image:       "/static/products/canvas-tote.jpg",
			Stock:       0,
			IsActive:    false,
		},
	}
}
