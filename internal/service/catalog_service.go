package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lumenshop/storefront/internal/cache"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/repository"

	"github.com/google/uuid"
)

const defaultCatalogPageSize = 20

// CatalogService 商品目录只读服务
type CatalogService struct {
	repo    repository.ProductRepository
	timeout time.Duration
}

// NewCatalogService 创建目录服务
func NewCatalogService(repo repository.ProductRepository, timeout time.Duration) *CatalogService {
	return &CatalogService{repo: repo, timeout: timeout}
}

// ListPublic 获取上架商品列表
func (s *CatalogService) ListPublic(ctx context.Context, category, search string, page, pageSize int) ([]models.Product, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultCatalogPageSize
	}
	readCtx, cancel := remoteReadContext(ctx, s.timeout)
	defer cancel()
	products, total, err := s.repo.List(readCtx, repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Category:   category,
		Search:     search,
		OnlyActive: true,
	})
	if err != nil {
		return nil, 0, wrapRemoteError(ctx, "list_products", err)
	}
	return products, total, nil
}

// Get 获取上架商品详情，优先读缓存
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrProductNotFound
	}
	if cached, hit, err := cache.GetProduct(ctx, id); err == nil && hit && cached != nil {
		return cached, nil
	}

	readCtx, cancel := remoteReadContext(ctx, s.timeout)
	defer cancel()
	product, err := s.repo.GetByID(readCtx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMalformedDocument) {
			return nil, ErrProductNotFound
		}
		return nil, wrapRemoteError(ctx, "get_product", err)
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	if err := cache.SetProduct(ctx, product); err != nil {
		logger.Ctx(ctx).Warnw("catalog_cache_write_failed", "product_id", id, "error", err)
	}
	return product, nil
}

// Snapshot 读取商品并生成购物车快照
func (s *CatalogService) Snapshot(ctx context.Context, id string) (models.ProductSnapshot, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return models.ProductSnapshot{}, err
	}
	return product.Snapshot(), nil
}

// Save 写入商品并失效缓存；缺少 id 时生成
func (s *CatalogService) Save(ctx context.Context, product *models.Product) error {
	if product == nil || strings.TrimSpace(product.Name) == "" || product.Price.IsNegative() {
		return ErrInvalidProduct
	}
	product.ID = strings.TrimSpace(product.ID)
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	writeCtx, cancel := remoteWriteContext(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Save(writeCtx, product); err != nil {
		return wrapRemoteError(ctx, "save_product", err)
	}
	if err := cache.DelProduct(ctx, product.ID); err != nil {
		logger.Ctx(ctx).Warnw("catalog_cache_invalidate_failed", "product_id", product.ID, "error", err)
	}
	return nil
}
