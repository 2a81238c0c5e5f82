package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/repository"
	"github.com/lumenshop/storefront/internal/telemetry"
)

const (
	mirrorFieldCart     = "cart"
	mirrorFieldWishlist = "wishlist"
)

// MirrorWarning 远端镜像写入失败；内存状态已生效，不回滚
type MirrorWarning struct {
	Operation string
	Err       error
}

func (w *MirrorWarning) Error() string {
	return fmt.Sprintf("cart mirror write failed (%s): %v", w.Operation, w.Err)
}

func (w *MirrorWarning) Unwrap() error {
	return w.Err
}

// CartState 购物车变更结果
type CartState struct {
	Lines   []models.CartLine `json:"lines"`
	Totals  Totals            `json:"totals"`
	Warning *MirrorWarning    `json:"-"`
}

// WishlistState 心愿单变更结果
type WishlistState struct {
	Items      []models.WishlistItem `json:"items"`
	InWishlist bool                  `json:"in_wishlist"`
	Warning    *MirrorWarning        `json:"-"`
}

// CartManager 会话购物车管理：先改内存，再把完整购物车写入资料文档
type CartManager struct {
	session  *Session
	profiles repository.ProfileRepository
	pricing  PricingRules
	timeout  time.Duration
	now      func() time.Time
}

// NewCartManager 创建购物车管理器
func NewCartManager(session *Session, profiles repository.ProfileRepository, pricing PricingRules, timeout time.Duration) *CartManager {
	if session == nil {
		session = NewAnonymousSession()
	}
	return &CartManager{
		session:  session,
		profiles: profiles,
		pricing:  pricing,
		timeout:  timeout,
		now:      time.Now,
	}
}

// AddLine 加入购物车；同商品同规格合并数量，否则追加商品快照。
// 合并后超过单行上限时拒绝，购物车不变。
func (m *CartManager) AddLine(ctx context.Context, product models.ProductSnapshot, quantity int, options map[string]string) (*CartState, error) {
	if quantity < 1 || quantity > models.MaxLineQuantity {
		return nil, ErrInvalidQuantity
	}
	productID := strings.TrimSpace(product.ProductID)
	if productID == "" || product.Price.IsNegative() {
		return nil, ErrInvalidProduct
	}
	overflow := false
	err := m.mutateCart(func(lines []models.CartLine) ([]models.CartLine, bool) {
		key := models.LineKey(productID, options)
		for i := range lines {
			if lines[i].Key() == key {
				if lines[i].Quantity > models.MaxLineQuantity-quantity {
					overflow = true
					return lines, false
				}
				lines[i].Quantity += quantity
				return lines, true
			}
		}
		line := models.CartLine{
			ProductID: productID,
			Name:      product.Name,
			Brand:     product.Brand,
			UnitPrice: product.Price,
			Image:     product.Image,
			Quantity:  quantity,
			Options:   normalizeOptions(options),
		}
		if product.OriginalPrice != nil {
			price := *product.OriginalPrice
			line.OriginalUnitPrice = &price
		}
		return append(lines, line), true
	})
	if err != nil {
		return nil, err
	}
	if overflow {
		return nil, ErrInvalidQuantity
	}
	return m.stateAfter(ctx, "add_line"), nil
}

// RemoveLine 移除匹配的购物车行，不存在时不做任何事
func (m *CartManager) RemoveLine(ctx context.Context, productID string, options map[string]string) (*CartState, error) {
	key := models.LineKey(productID, options)
	changed := false
	err := m.mutateCart(func(lines []models.CartLine) ([]models.CartLine, bool) {
		kept := lines[:0]
		for _, line := range lines {
			if line.Key() == key {
				changed = true
				continue
			}
			kept = append(kept, line)
		}
		return kept, changed
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return m.State(), nil
	}
	return m.stateAfter(ctx, "remove_line"), nil
}

// SetQuantity 设置数量；数量 <= 0 等同移除
func (m *CartManager) SetQuantity(ctx context.Context, productID string, options map[string]string, quantity int) (*CartState, error) {
	if quantity <= 0 {
		return m.RemoveLine(ctx, productID, options)
	}
	if quantity > models.MaxLineQuantity {
		return nil, ErrInvalidQuantity
	}
	key := models.LineKey(productID, options)
	changed := false
	err := m.mutateCart(func(lines []models.CartLine) ([]models.CartLine, bool) {
		for i := range lines {
			if lines[i].Key() == key && lines[i].Quantity != quantity {
				lines[i].Quantity = quantity
				changed = true
			}
		}
		return lines, changed
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return m.State(), nil
	}
	return m.stateAfter(ctx, "set_quantity"), nil
}

// Clear 清空购物车并同步空状态
func (m *CartManager) Clear(ctx context.Context) (*CartState, error) {
	err := m.mutateCart(func([]models.CartLine) ([]models.CartLine, bool) {
		return []models.CartLine{}, true
	})
	if err != nil {
		return nil, err
	}
	return m.stateAfter(ctx, "clear"), nil
}

// Lines 购物车行副本
func (m *CartManager) Lines() []models.CartLine {
	m.session.mu.Lock()
	defer m.session.mu.Unlock()
	return models.CloneLines(m.session.cart)
}

// Totals 全部派生金额
func (m *CartManager) Totals() Totals {
	return m.pricing.Compute(m.Lines())
}

// Subtotal 小计
func (m *CartManager) Subtotal() models.Money {
	return m.Totals().Subtotal
}

// Tax 税费
func (m *CartManager) Tax() models.Money {
	return m.Totals().Tax
}

// Shipping 运费
func (m *CartManager) Shipping() models.Money {
	return m.Totals().Shipping
}

// Total 合计
func (m *CartManager) Total() models.Money {
	return m.Totals().Total
}

// LineCount 商品件数（数量之和）
func (m *CartManager) LineCount() int {
	return LineCount(m.Lines())
}

// State 当前购物车状态（无远端写入）
func (m *CartManager) State() *CartState {
	lines := m.Lines()
	return &CartState{Lines: lines, Totals: m.pricing.Compute(lines)}
}

// ToggleWishlist 切换心愿单成员关系，返回切换后的状态
func (m *CartManager) ToggleWishlist(ctx context.Context, product models.ProductSnapshot) (*WishlistState, error) {
	productID := strings.TrimSpace(product.ProductID)
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	s := m.session
	s.mu.Lock()
	if s.closed || s.uid == "" {
		s.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	member := false
	kept := make([]models.WishlistItem, 0, len(s.wishlist)+1)
	for _, item := range s.wishlist {
		if item.ProductID == productID {
			member = true
			continue
		}
		kept = append(kept, item)
	}
	if !member {
		product.ProductID = productID
		kept = append(kept, product)
	}
	s.wishlist = kept
	s.wishlistSeq++
	s.mu.Unlock()

	warning := m.persist(ctx, mirrorFieldWishlist, "toggle_wishlist")
	return &WishlistState{Items: m.Wishlist(), InWishlist: !member, Warning: warning}, nil
}

// InWishlist 判断商品是否在心愿单中
func (m *CartManager) InWishlist(productID string) bool {
	m.session.mu.Lock()
	defer m.session.mu.Unlock()
	for _, item := range m.session.wishlist {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Wishlist 心愿单副本
func (m *CartManager) Wishlist() []models.WishlistItem {
	m.session.mu.Lock()
	defer m.session.mu.Unlock()
	return append([]models.WishlistItem{}, m.session.wishlist...)
}

// MoveToCart 心愿单商品以数量 1 加入购物车并移出心愿单
func (m *CartManager) MoveToCart(ctx context.Context, productID string, options map[string]string) (*CartState, error) {
	var item *models.WishlistItem
	for _, candidate := range m.Wishlist() {
		if candidate.ProductID == productID {
			found := candidate
			item = &found
			break
		}
	}
	if item == nil {
		if !m.session.Authenticated() {
			return nil, ErrNotAuthenticated
		}
		return nil, ErrProductNotFound
	}
	state, err := m.AddLine(ctx, *item, 1, options)
	if err != nil {
		return nil, err
	}
	wishlist, err := m.ToggleWishlist(ctx, *item)
	if err != nil {
		return nil, err
	}
	if state.Warning == nil {
		state.Warning = wishlist.Warning
	}
	return state, nil
}

// mutateCart 在会话锁内修改购物车；fn 返回是否有变化
func (m *CartManager) mutateCart(fn func([]models.CartLine) ([]models.CartLine, bool)) error {
	s := m.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.uid == "" {
		return ErrNotAuthenticated
	}
	next, changed := fn(models.CloneLines(s.cart))
	if changed {
		s.cart = next
		s.cartSeq++
	}
	return nil
}

func (m *CartManager) stateAfter(ctx context.Context, operation string) *CartState {
	warning := m.persist(ctx, mirrorFieldCart, operation)
	state := m.State()
	state.Warning = warning
	return state
}

// persist 将最新的购物车或心愿单写入资料文档。
// 写入失败只返回告警；较新的写入已完成时跳过。
func (m *CartManager) persist(ctx context.Context, field, operation string) *MirrorWarning {
	s := m.session
	s.mirrorMu.Lock()
	defer s.mirrorMu.Unlock()

	s.mu.Lock()
	if s.closed || s.uid == "" {
		s.mu.Unlock()
		return nil
	}
	uid := s.uid
	var seq uint64
	var value interface{}
	switch field {
	case mirrorFieldWishlist:
		if s.wishlistSeq <= s.wishlistMirrored {
			s.mu.Unlock()
			return nil
		}
		seq = s.wishlistSeq
		value = append([]models.WishlistItem{}, s.wishlist...)
	default:
		if s.cartSeq <= s.cartMirrored {
			s.mu.Unlock()
			return nil
		}
		seq = s.cartSeq
		value = models.CloneLines(s.cart)
	}
	s.mu.Unlock()

	writeCtx, cancel := remoteWriteContext(ctx, m.timeout)
	defer cancel()
	_, err := m.profiles.Update(writeCtx, uid, models.JSON{
		field:         value,
		"last_active": m.now().UTC(),
	})
	if err != nil {
		telemetry.RecordCartMirrorFailure(ctx, operation)
		logger.Ctx(ctx).Warnw("cart_mirror_write_failed",
			"uid", uid,
			"field", field,
			"operation", operation,
			"error", err,
		)
		if ctx.Err() != nil {
			return nil
		}
		return &MirrorWarning{Operation: operation, Err: err}
	}

	s.mu.Lock()
	switch field {
	case mirrorFieldWishlist:
		if seq > s.wishlistMirrored {
			s.wishlistMirrored = seq
		}
	default:
		if seq > s.cartMirrored {
			s.cartMirrored = seq
		}
	}
	s.mu.Unlock()
	return nil
}

func normalizeOptions(options map[string]string) map[string]string {
	normalized := make(map[string]string, len(options))
	for key, value := range options {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		normalized[k] = strings.TrimSpace(value)
	}
	return normalized
}
