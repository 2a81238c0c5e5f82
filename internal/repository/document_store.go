package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumenshop/storefront/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 文档保留列字段名
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
	FieldVersion   = "version"
)

// 过滤操作符
const (
	OpEq  = "=="
	OpNeq = "!="
	OpGte = ">="
	OpLt  = "<"
	OpIn  = "in"
)

const mergeRetryLimit = 5

var (
	// ErrDocumentNotFound 更新的文档不存在
	ErrDocumentNotFound = errors.New("document not found")
	// ErrVersionConflict 比较交换时版本不一致
	ErrVersionConflict = errors.New("document version conflict")
)

var storeTracer = otel.Tracer("repository/documents")

// Filter 文档字段过滤条件
type Filter struct {
	Field string
	Op    string
	Value interface{}
}

// KeywordFilter 多字段模糊匹配（OR）
type KeywordFilter struct {
	Fields  []string
	Keyword string
}

// DocumentQuery 文档查询参数
type DocumentQuery struct {
	Filters    []Filter
	Keyword    *KeywordFilter
	OrderBy    string
	Descending bool
	Limit      int
	Offset     int
}

// DocumentStore 文档存储接口
type DocumentStore interface {
	GetDocument(ctx context.Context, collection, id string) (*models.Document, error)
	SetDocument(ctx context.Context, collection, id string, body models.JSON) (*models.Document, error)
	UpdateDocument(ctx context.Context, collection, id string, patch models.JSON) (*models.Document, error)
	CompareAndSet(ctx context.Context, collection, id string, expectedVersion int64, patch models.JSON) (*models.Document, error)
	QueryDocuments(ctx context.Context, collection string, query DocumentQuery) ([]models.Document, error)
	CountDocuments(ctx context.Context, collection string, query DocumentQuery) (int64, error)
	CreateDocument(ctx context.Context, collection string, body models.JSON) (string, error)
	DeleteDocument(ctx context.Context, collection, id string) error
}

// GormDocumentStore GORM 实现
type GormDocumentStore struct {
	db *gorm.DB
}

// NewDocumentStore 创建文档存储
func NewDocumentStore(db *gorm.DB) *GormDocumentStore {
	return &GormDocumentStore{db: db}
}

// WithTx 绑定事务
func (s *GormDocumentStore) WithTx(tx *gorm.DB) *GormDocumentStore {
	if tx == nil {
		return s
	}
	return &GormDocumentStore{db: tx}
}

// GetDocument 获取文档，不存在返回 nil
func (s *GormDocumentStore) GetDocument(ctx context.Context, collection, id string) (doc *models.Document, err error) {
	ctx, span := startStoreSpan(ctx, "get", collection)
	defer func() { endStoreSpan(span, err) }()

	return s.find(ctx, collection, id)
}

// SetDocument 整体替换文档（不存在时创建）
func (s *GormDocumentStore) SetDocument(ctx context.Context, collection, id string, body models.JSON) (doc *models.Document, err error) {
	ctx, span := startStoreSpan(ctx, "set", collection)
	defer func() { endStoreSpan(span, err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("document id is required")
	}
	if body == nil {
		body = models.JSON{}
	}
	now := time.Now()
	record := models.Document{
		Collection: collection,
		ID:         id,
		Body:       body,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"body":       body,
			"version":    gorm.Expr("documents.version + 1"),
			"updated_at": now,
		}),
	}).Create(&record).Error
	if err != nil {
		return nil, err
	}
	return s.find(ctx, collection, id)
}

// UpdateDocument 按顶层字段合并更新
func (s *GormDocumentStore) UpdateDocument(ctx context.Context, collection, id string, patch models.JSON) (doc *models.Document, err error) {
	ctx, span := startStoreSpan(ctx, "update", collection)
	defer func() { endStoreSpan(span, err) }()

	for attempt := 0; attempt < mergeRetryLimit; attempt++ {
		current, findErr := s.find(ctx, collection, id)
		if findErr != nil {
			return nil, findErr
		}
		if current == nil {
			return nil, ErrDocumentNotFound
		}
		doc, err = s.mergeIfVersion(ctx, current, patch)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		return doc, err
	}
	return nil, ErrVersionConflict
}

// CompareAndSet 仅当版本一致时合并更新
func (s *GormDocumentStore) CompareAndSet(ctx context.Context, collection, id string, expectedVersion int64, patch models.JSON) (doc *models.Document, err error) {
	ctx, span := startStoreSpan(ctx, "compare_and_set", collection)
	defer func() { endStoreSpan(span, err) }()

	current, err := s.find(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrDocumentNotFound
	}
	if current.Version != expectedVersion {
		return nil, ErrVersionConflict
	}
	return s.mergeIfVersion(ctx, current, patch)
}

// QueryDocuments 查询集合内文档
func (s *GormDocumentStore) QueryDocuments(ctx context.Context, collection string, query DocumentQuery) (docs []models.Document, err error) {
	ctx, span := startStoreSpan(ctx, "query", collection)
	defer func() { endStoreSpan(span, err) }()

	db, err := s.buildQuery(ctx, collection, query)
	if err != nil {
		return nil, err
	}
	if query.OrderBy != "" {
		expr, exprErr := documentFieldExpr(s.db, query.OrderBy)
		if exprErr != nil {
			return nil, exprErr
		}
		direction := "ASC"
		if query.Descending {
			direction = "DESC"
		}
		db = db.Order(fmt.Sprintf("%s %s", expr, direction))
	}
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}
	if query.Offset > 0 {
		db = db.Offset(query.Offset)
	}
	if err := db.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// CountDocuments 统计集合内满足条件的文档数量
func (s *GormDocumentStore) CountDocuments(ctx context.Context, collection string, query DocumentQuery) (total int64, err error) {
	ctx, span := startStoreSpan(ctx, "count", collection)
	defer func() { endStoreSpan(span, err) }()

	db, err := s.buildQuery(ctx, collection, query)
	if err != nil {
		return 0, err
	}
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CreateDocument 创建文档并返回生成的 ID
func (s *GormDocumentStore) CreateDocument(ctx context.Context, collection string, body models.JSON) (id string, err error) {
	ctx, span := startStoreSpan(ctx, "create", collection)
	defer func() { endStoreSpan(span, err) }()

	if body == nil {
		body = models.JSON{}
	}
	id = uuid.NewString()
	body["id"] = id
	now := time.Now()
	record := models.Document{
		Collection: collection,
		ID:         id,
		Body:       body,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", err
	}
	return id, nil
}

// DeleteDocument 删除文档，不存在时不报错
func (s *GormDocumentStore) DeleteDocument(ctx context.Context, collection, id string) (err error) {
	ctx, span := startStoreSpan(ctx, "delete", collection)
	defer func() { endStoreSpan(span, err) }()

	return s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, strings.TrimSpace(id)).
		Delete(&models.Document{}).Error
}

func (s *GormDocumentStore) find(ctx context.Context, collection, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, strings.TrimSpace(id)).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (s *GormDocumentStore) mergeIfVersion(ctx context.Context, current *models.Document, patch models.JSON) (*models.Document, error) {
	merged := models.JSON{}
	for key, value := range current.Body {
		merged[key] = value
	}
	for key, value := range patch {
		merged[key] = value
	}
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.Document{}).
		Where("collection = ? AND id = ? AND version = ?", current.Collection, current.ID, current.Version).
		Updates(map[string]interface{}{
			"body":       merged,
			"version":    current.Version + 1,
			"updated_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrVersionConflict
	}
	updated := *current
	updated.Body = merged
	updated.Version = current.Version + 1
	updated.UpdatedAt = now
	return &updated, nil
}

func (s *GormDocumentStore) buildQuery(ctx context.Context, collection string, query DocumentQuery) (*gorm.DB, error) {
	db := s.db.WithContext(ctx).Model(&models.Document{}).Where("collection = ?", collection)
	for _, filter := range query.Filters {
		expr, err := documentFieldExpr(s.db, filter.Field)
		if err != nil {
			return nil, err
		}
		value := normalizeFilterValue(dbDialectName(s.db), filter.Value)
		switch filter.Op {
		case OpEq, "":
			db = db.Where(fmt.Sprintf("%s = ?", expr), value)
		case OpNeq:
			db = db.Where(fmt.Sprintf("%s <> ?", expr), value)
		case OpGte:
			db = db.Where(fmt.Sprintf("%s >= ?", expr), value)
		case OpLt:
			db = db.Where(fmt.Sprintf("%s < ?", expr), value)
		case OpIn:
			db = db.Where(fmt.Sprintf("%s IN ?", expr), value)
		default:
			return nil, fmt.Errorf("unsupported filter operator: %s", filter.Op)
		}
	}
	if query.Keyword != nil {
		keyword := strings.TrimSpace(query.Keyword.Keyword)
		if keyword != "" && len(query.Keyword.Fields) > 0 {
			operator := likeOperatorByDialect(dbDialectName(s.db))
			parts := make([]string, 0, len(query.Keyword.Fields))
			args := make([]interface{}, 0, len(query.Keyword.Fields))
			like := "%" + escapeLike(keyword) + "%"
			for _, field := range query.Keyword.Fields {
				expr, err := documentFieldExpr(s.db, field)
				if err != nil {
					return nil, err
				}
				parts = append(parts, fmt.Sprintf("%s %s ? ESCAPE '\\'", expr, operator))
				args = append(args, like)
			}
			db = db.Where("("+strings.Join(parts, " OR ")+")", args...)
		}
	}
	return db, nil
}

// normalizeFilterValue 布尔值在 postgres 中按文本比较，在 sqlite 中按 0/1 比较
func normalizeFilterValue(dialect string, value interface{}) interface{} {
	flag, ok := value.(bool)
	if !ok {
		return value
	}
	switch dialect {
	case "postgres", "postgresql":
		if flag {
			return "true"
		}
		return "false"
	default:
		if flag {
			return 1
		}
		return 0
	}
}

func startStoreSpan(ctx context.Context, operation, collection string) (context.Context, trace.Span) {
	return storeTracer.Start(ctx, "documents."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.operation.name", operation),
			attribute.String("db.collection.name", collection),
		),
	)
}

func endStoreSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
