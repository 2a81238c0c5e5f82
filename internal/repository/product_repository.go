package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/models"
)

// ProductRepository 商品目录访问接口
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, filter ProductListFilter) ([]models.Product, int64, error)
	Save(ctx context.Context, product *models.Product) error
	Count(ctx context.Context) (int64, error)
}

// DocumentProductRepository 基于文档存储的实现
type DocumentProductRepository struct {
	store DocumentStore
}

// NewProductRepository 创建商品仓库
func NewProductRepository(store DocumentStore) *DocumentProductRepository {
	return &DocumentProductRepository{store: store}
}

// GetByID 根据 ID 获取商品，不存在返回 nil
func (r *DocumentProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	doc, err := r.store.GetDocument(ctx, constants.CollectionProducts, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return decodeProduct(doc)
}

// List 分页查询商品
func (r *DocumentProductRepository) List(ctx context.Context, filter ProductListFilter) ([]models.Product, int64, error) {
	query := DocumentQuery{}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query.Filters = append(query.Filters, Filter{Field: "category", Op: OpEq, Value: category})
	}
	if filter.OnlyActive {
		query.Filters = append(query.Filters, Filter{Field: "is_active", Op: OpEq, Value: true})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query.Keyword = &KeywordFilter{Fields: []string{"name", "brand"}, Keyword: search}
	}
	total, err := r.store.CountDocuments(ctx, constants.CollectionProducts, query)
	if err != nil {
		return nil, 0, err
	}
	query.OrderBy = FieldID
	query.Limit, query.Offset = pageWindow(filter.Page, filter.PageSize)
	docs, err := r.store.QueryDocuments(ctx, constants.CollectionProducts, query)
	if err != nil {
		return nil, 0, err
	}
	products := make([]models.Product, 0, len(docs))
	for i := range docs {
		product, err := decodeProduct(&docs[i])
		if err != nil {
			quarantineLog(constants.CollectionProducts, docs[i].ID, err)
			continue
		}
		products = append(products, *product)
	}
	return products, total, nil
}

// Save 保存商品（整体替换）
func (r *DocumentProductRepository) Save(ctx context.Context, product *models.Product) error {
	if product == nil || strings.TrimSpace(product.ID) == "" {
		return fmt.Errorf("product id is required")
	}
	body, err := models.EncodeJSON(product)
	if err != nil {
		return err
	}
	_, err = r.store.SetDocument(ctx, constants.CollectionProducts, product.ID, body)
	return err
}

// Count 统计商品数量
func (r *DocumentProductRepository) Count(ctx context.Context) (int64, error) {
	return r.store.CountDocuments(ctx, constants.CollectionProducts, DocumentQuery{})
}

func decodeProduct(doc *models.Document) (*models.Product, error) {
	var product models.Product
	if err := models.DecodeJSON(doc.Body, &product); err != nil {
		return nil, fmt.Errorf("%w: products/%s: %v", ErrMalformedDocument, doc.ID, err)
	}
	product.ID = doc.ID
	if product.Price.IsNegative() {
		return nil, fmt.Errorf("%w: products/%s: negative price", ErrMalformedDocument, doc.ID)
	}
	return &product, nil
}

func quarantineLog(collection, id string, err error) {
	logger.Warnw("document_quarantined",
		"collection", collection,
		"id", id,
		"error", err,
	)
}
