package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/models"
)

// ErrMalformedDocument 远端文档结构非法
var ErrMalformedDocument = errors.New("malformed document")

// ProfileRepository 用户资料文档访问接口
type ProfileRepository interface {
	Get(ctx context.Context, uid string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, uid string, patch models.JSON) (*models.Profile, error)
	AppendOrder(ctx context.Context, uid, orderID string) error
	Count(ctx context.Context) (int64, error)
}

// DocumentProfileRepository 基于文档存储的实现
type DocumentProfileRepository struct {
	store DocumentStore
}

// NewProfileRepository 创建用户资料仓库
func NewProfileRepository(store DocumentStore) *DocumentProfileRepository {
	return &DocumentProfileRepository{store: store}
}

// Get 获取用户资料，不存在返回 nil
func (r *DocumentProfileRepository) Get(ctx context.Context, uid string) (*models.Profile, error) {
	doc, err := r.store.GetDocument(ctx, constants.CollectionUsers, uid)
	if err != nil || doc == nil {
		return nil, err
	}
	return decodeProfile(doc)
}

// Create 创建（或覆盖）用户资料
func (r *DocumentProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile == nil || strings.TrimSpace(profile.UID) == "" {
		return fmt.Errorf("profile uid is required")
	}
	body, err := models.EncodeJSON(profile)
	if err != nil {
		return err
	}
	_, err = r.store.SetDocument(ctx, constants.CollectionUsers, profile.UID, body)
	return err
}

// Update 合并更新用户资料字段
func (r *DocumentProfileRepository) Update(ctx context.Context, uid string, patch models.JSON) (*models.Profile, error) {
	encoded, err := encodePatch(patch)
	if err != nil {
		return nil, err
	}
	doc, err := r.store.UpdateDocument(ctx, constants.CollectionUsers, uid, encoded)
	if err != nil {
		return nil, err
	}
	return decodeProfile(doc)
}

// AppendOrder 将订单 ID 追加到用户订单历史（比较交换，冲突时重试）
func (r *DocumentProfileRepository) AppendOrder(ctx context.Context, uid, orderID string) error {
	for attempt := 0; attempt < mergeRetryLimit; attempt++ {
		doc, err := r.store.GetDocument(ctx, constants.CollectionUsers, uid)
		if err != nil {
			return err
		}
		if doc == nil {
			return ErrDocumentNotFound
		}
		profile, err := decodeProfile(doc)
		if err != nil {
			return err
		}
		for _, existing := range profile.Orders {
			if existing == orderID {
				return nil
			}
		}
		orders := append(append([]string{}, profile.Orders...), orderID)
		patch, err := encodePatch(models.JSON{"orders": orders})
		if err != nil {
			return err
		}
		_, err = r.store.CompareAndSet(ctx, constants.CollectionUsers, uid, doc.Version, patch)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		return err
	}
	return ErrVersionConflict
}

// Count 统计用户数量
func (r *DocumentProfileRepository) Count(ctx context.Context) (int64, error) {
	return r.store.CountDocuments(ctx, constants.CollectionUsers, DocumentQuery{})
}

// profileDocument 购物车行逐条解码，单行损坏不影响整份资料
type profileDocument struct {
	models.Profile
	Cart []json.RawMessage `json:"cart"`
}

// decodeProfile 解码并校验用户资料，非法的购物车行会被隔离，同键行合并
func decodeProfile(doc *models.Document) (*models.Profile, error) {
	payload, err := json.Marshal(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: users/%s: %v", ErrMalformedDocument, doc.ID, err)
	}
	var envelope profileDocument
	if err := models.DecodeRaw(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: users/%s: %v", ErrMalformedDocument, doc.ID, err)
	}
	profile := envelope.Profile
	if profile.UID == "" {
		profile.UID = doc.ID
	}
	if profile.Role == "" {
		profile.Role = constants.RoleCustomer
	}
	profile.Cart = decodeCartLines(profile.UID, envelope.Cart)

	wishlist := make([]models.WishlistItem, 0, len(profile.Wishlist))
	for _, item := range profile.Wishlist {
		if strings.TrimSpace(item.ProductID) == "" {
			logger.Warnw("profile_wishlist_item_quarantined", "uid", profile.UID)
			continue
		}
		wishlist = append(wishlist, item)
	}
	profile.Wishlist = wishlist

	if profile.Addresses == nil {
		profile.Addresses = []models.Address{}
	}
	if profile.Orders == nil {
		profile.Orders = []string{}
	}
	return &profile, nil
}

// decodeCartLines 丢弃无法解码或校验失败的行，并按身份键合并重复行
func decodeCartLines(uid string, raws []json.RawMessage) []models.CartLine {
	lines := make([]models.CartLine, 0, len(raws))
	index := make(map[string]int, len(raws))
	for _, raw := range raws {
		var line models.CartLine
		if err := models.DecodeRaw(raw, &line); err != nil {
			logger.Warnw("profile_cart_line_quarantined", "uid", uid, "error", err)
			continue
		}
		if !line.Validate() {
			logger.Warnw("profile_cart_line_quarantined",
				"uid", uid,
				"product_id", line.ProductID,
				"quantity", line.Quantity,
			)
			continue
		}
		key := line.Key()
		if i, ok := index[key]; ok {
			merged := lines[i].Quantity + line.Quantity
			if merged > models.MaxLineQuantity {
				merged = models.MaxLineQuantity
			}
			lines[i].Quantity = merged
			logger.Warnw("profile_cart_line_merged", "uid", uid, "product_id", line.ProductID)
			continue
		}
		index[key] = len(lines)
		lines = append(lines, line)
	}
	return lines
}

// encodePatch 将补丁中的结构体值转为通用 JSON 值
func encodePatch(patch models.JSON) (models.JSON, error) {
	encoded, err := models.EncodeJSON(patch)
	if err != nil {
		return nil, fmt.Errorf("encode patch failed: %w", err)
	}
	return encoded, nil
}
