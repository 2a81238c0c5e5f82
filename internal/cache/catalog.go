package cache

import (
	"context"
	"strings"
	"time"

	"github.com/lumenshop/storefront/internal/models"
)

const productCacheTTL = 5 * time.Minute

func productKey(id string) string {
	return "catalog:product:" + strings.TrimSpace(id)
}

// GetProduct 读取商品缓存
func GetProduct(ctx context.Context, id string) (*models.Product, bool, error) {
	var product models.Product
	hit, err := GetJSON(ctx, productKey(id), &product)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &product, true, nil
}

// SetProduct 写入商品缓存
func SetProduct(ctx context.Context, product *models.Product) error {
	if product == nil || strings.TrimSpace(product.ID) == "" {
		return nil
	}
	return SetJSON(ctx, productKey(product.ID), product, productCacheTTL)
}

// DelProduct 删除商品缓存
func DelProduct(ctx context.Context, id string) error {
	return Del(ctx, productKey(id))
}
