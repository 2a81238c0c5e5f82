package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/models"
)

var knownOrderStatuses = map[string]bool{
	constants.OrderStatusPending:    true,
	constants.OrderStatusProcessing: true,
	constants.OrderStatusShipped:    true,
	constants.OrderStatusDelivered:  true,
	constants.OrderStatusCancelled:  true,
}

// orderSearchFields 管理端订单关键字搜索字段
var orderSearchFields = []string{
	FieldID,
	"shipping_address.full_name",
	"shipping_address.email",
	"billing_address.email",
}

// OrderRepository 订单文档访问接口
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) (string, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAdmin(ctx context.Context, filter OrderListFilter) ([]models.Order, int64, error)
	ListRecent(ctx context.Context, limit int) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	Count(ctx context.Context, status string) (int64, error)
	UpdateWithVersion(ctx context.Context, id string, expectedVersion int64, patch models.JSON) (*models.Order, error)
	Delete(ctx context.Context, id string) error
}

// DocumentOrderRepository 基于文档存储的实现
type DocumentOrderRepository struct {
	store DocumentStore
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(store DocumentStore) *DocumentOrderRepository {
	return &DocumentOrderRepository{store: store}
}

// Create 创建订单并返回生成的订单 ID
func (r *DocumentOrderRepository) Create(ctx context.Context, order *models.Order) (string, error) {
	if order == nil {
		return "", fmt.Errorf("order is nil")
	}
	body, err := models.EncodeJSON(order)
	if err != nil {
		return "", err
	}
	id, err := r.store.CreateDocument(ctx, constants.CollectionOrders, body)
	if err != nil {
		return "", err
	}
	order.ID = id
	order.Version = 1
	return id, nil
}

// Delete 删除订单文档（仅用于下单失败时撤销）
func (r *DocumentOrderRepository) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return r.store.DeleteDocument(ctx, constants.CollectionOrders, id)
}

// GetByID 根据 ID 获取订单，不存在返回 nil
func (r *DocumentOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	doc, err := r.store.GetDocument(ctx, constants.CollectionOrders, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return decodeOrder(doc)
}

// ListByUser 获取用户订单（按创建时间倒序）
func (r *DocumentOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	docs, err := r.store.QueryDocuments(ctx, constants.CollectionOrders, DocumentQuery{
		Filters:    []Filter{{Field: "user_id", Op: OpEq, Value: userID}},
		OrderBy:    FieldCreatedAt,
		Descending: true,
	})
	if err != nil {
		return nil, err
	}
	return decodeOrders(docs), nil
}

// ListAdmin 管理端订单列表
func (r *DocumentOrderRepository) ListAdmin(ctx context.Context, filter OrderListFilter) ([]models.Order, int64, error) {
	query := buildOrderQuery(filter)
	total, err := r.store.CountDocuments(ctx, constants.CollectionOrders, query)
	if err != nil {
		return nil, 0, err
	}
	query.OrderBy = FieldCreatedAt
	query.Descending = true
	query.Limit, query.Offset = pageWindow(filter.Page, filter.PageSize)
	docs, err := r.store.QueryDocuments(ctx, constants.CollectionOrders, query)
	if err != nil {
		return nil, 0, err
	}
	return decodeOrders(docs), total, nil
}

// ListRecent 获取最近的订单
func (r *DocumentOrderRepository) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	docs, err := r.store.QueryDocuments(ctx, constants.CollectionOrders, DocumentQuery{
		OrderBy:    FieldCreatedAt,
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return decodeOrders(docs), nil
}

// ListAll 获取全部订单（用于统计）
func (r *DocumentOrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	docs, err := r.store.QueryDocuments(ctx, constants.CollectionOrders, DocumentQuery{})
	if err != nil {
		return nil, err
	}
	return decodeOrders(docs), nil
}

// Count 统计订单数量，status 为空时统计全部
func (r *DocumentOrderRepository) Count(ctx context.Context, status string) (int64, error) {
	return r.store.CountDocuments(ctx, constants.CollectionOrders, buildOrderQuery(OrderListFilter{Status: status}))
}

// UpdateWithVersion 比较交换更新订单字段
func (r *DocumentOrderRepository) UpdateWithVersion(ctx context.Context, id string, expectedVersion int64, patch models.JSON) (*models.Order, error) {
	encoded, err := encodePatch(patch)
	if err != nil {
		return nil, err
	}
	doc, err := r.store.CompareAndSet(ctx, constants.CollectionOrders, id, expectedVersion, encoded)
	if err != nil {
		return nil, err
	}
	return decodeOrder(doc)
}

func buildOrderQuery(filter OrderListFilter) DocumentQuery {
	query := DocumentQuery{}
	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		query.Filters = append(query.Filters, Filter{Field: "user_id", Op: OpEq, Value: userID})
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query.Filters = append(query.Filters, Filter{Field: "status", Op: OpEq, Value: status})
	}
	if filter.CreatedFrom != nil {
		query.Filters = append(query.Filters, Filter{Field: FieldCreatedAt, Op: OpGte, Value: *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		query.Filters = append(query.Filters, Filter{Field: FieldCreatedAt, Op: OpLt, Value: *filter.CreatedTo})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query.Keyword = &KeywordFilter{Fields: orderSearchFields, Keyword: search}
	}
	return query
}

// decodeOrder 解码并校验订单文档
func decodeOrder(doc *models.Document) (*models.Order, error) {
	var order models.Order
	if err := models.DecodeJSON(doc.Body, &order); err != nil {
		return nil, fmt.Errorf("%w: orders/%s: %v", ErrMalformedDocument, doc.ID, err)
	}
	order.ID = doc.ID
	order.Version = doc.Version
	if !knownOrderStatuses[order.Status] {
		return nil, fmt.Errorf("%w: orders/%s: unknown status %q", ErrMalformedDocument, doc.ID, order.Status)
	}
	if strings.TrimSpace(order.UserID) == "" {
		return nil, fmt.Errorf("%w: orders/%s: missing user_id", ErrMalformedDocument, doc.ID)
	}
	for _, item := range order.Items {
		if !item.Validate() {
			return nil, fmt.Errorf("%w: orders/%s: invalid line %q", ErrMalformedDocument, doc.ID, item.ProductID)
		}
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = doc.CreatedAt
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = doc.UpdatedAt
	}
	return &order, nil
}

// decodeOrders 批量解码订单，非法文档被跳过并记录日志
func decodeOrders(docs []models.Document) []models.Order {
	orders := make([]models.Order, 0, len(docs))
	for i := range docs {
		order, err := decodeOrder(&docs[i])
		if err != nil {
			quarantineLog(docs[i].Collection, docs[i].ID, err)
			continue
		}
		orders = append(orders, *order)
	}
	return orders
}
