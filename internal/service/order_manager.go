package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/repository"
	"github.com/lumenshop/storefront/internal/telemetry"
)

// statusWriteAttempts 状态写入在版本冲突后重读重试一次
const statusWriteAttempts = 2

// OrderManager 会话订单管理：订单写入严格确认，失败直接返回给调用方
type OrderManager struct {
	session  *Session
	orders   repository.OrderRepository
	profiles repository.ProfileRepository
	cart     *CartManager
	pricing  PricingRules
	timeout  time.Duration
	notifier OrderNotifier
	now      func() time.Time
}

// CheckoutInput 结账参数
type CheckoutInput struct {
	ShippingAddress models.Address
	BillingAddress  models.Address
	Payment         PaymentInput
}

// CheckoutResult 结账结果
type CheckoutResult struct {
	Order *models.Order `json:"order"`
	Cart  *CartState    `json:"cart"`
}

// NewOrderManager 创建订单管理器
func NewOrderManager(session *Session, cart *CartManager, orders repository.OrderRepository, profiles repository.ProfileRepository, pricing PricingRules, timeout time.Duration, notifier OrderNotifier) *OrderManager {
	if session == nil {
		session = NewAnonymousSession()
	}
	return &OrderManager{
		session:  session,
		orders:   orders,
		profiles: profiles,
		cart:     cart,
		pricing:  pricing,
		timeout:  timeout,
		notifier: notifier,
		now:      time.Now,
	}
}

// PlaceOrder 以传入的行快照创建订单（不读取实时购物车）
func (m *OrderManager) PlaceOrder(ctx context.Context, lines []models.CartLine, shipping, billing models.Address, payment models.PaymentDescriptor) (*models.Order, error) {
	uid := m.session.UID()
	if uid == "" {
		return nil, ErrNotAuthenticated
	}
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	items := models.CloneLines(lines)
	for _, item := range items {
		if !item.Validate() {
			return nil, ErrInvalidQuantity
		}
	}
	if !shipping.Complete() {
		return nil, ErrInvalidAddress
	}
	if billing == (models.Address{}) {
		billing = shipping
	} else if !billing.Complete() {
		return nil, ErrInvalidAddress
	}
	if !validPaymentDescriptor(payment) {
		return nil, ErrInvalidPayment
	}
	shipping = normalizeOrderAddress(shipping)
	billing = normalizeOrderAddress(billing)

	totals := m.pricing.Compute(items)
	now := m.now().UTC()
	order := &models.Order{
		UserID:          uid,
		Items:           items,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		Shipping:        totals.Shipping,
		Total:           totals.Total,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		Payment:         payment,
		Status:          constants.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	writeCtx, cancel := remoteWriteContext(ctx, m.timeout)
	defer cancel()
	if _, err := m.orders.Create(writeCtx, order); err != nil {
		logger.Ctx(ctx).Errorw("order_create_failed", "uid", uid, "error", err)
		return nil, wrapRemoteError(ctx, "create_order", err)
	}
	if err := m.profiles.AppendOrder(writeCtx, uid, order.ID); err != nil {
		logger.Ctx(ctx).Errorw("order_history_append_failed", "uid", uid, "order_id", order.ID, "error", err)
		m.discardOrder(ctx, uid, order.ID)
		return nil, wrapRemoteError(ctx, "append_order_history", err)
	}
	m.rememberOrder(order.ID)

	telemetry.RecordOrderPlaced(ctx)
	logger.Ctx(ctx).Infow("order_placed",
		"uid", uid,
		"order_id", order.ID,
		"total", order.Total.String(),
		"items", order.ItemCount(),
	)
	if m.notifier != nil {
		m.notifier.OrderPlaced(ctx, order)
	}
	return order, nil
}

// Checkout 读取购物车快照下单，成功后清空购物车
func (m *OrderManager) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if m.cart == nil {
		return nil, ErrNotAuthenticated
	}
	payment, err := NewPaymentDescriptor(input.Payment)
	if err != nil {
		return nil, err
	}
	order, err := m.PlaceOrder(ctx, m.cart.Lines(), input.ShippingAddress, input.BillingAddress, payment)
	if err != nil {
		return nil, err
	}
	state, err := m.cart.Clear(ctx)
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Order: order, Cart: state}, nil
}

// ListOrdersForIdentity 当前身份的全部订单，按创建时间倒序
func (m *OrderManager) ListOrdersForIdentity(ctx context.Context) ([]models.Order, error) {
	uid := m.session.UID()
	if uid == "" {
		return nil, ErrNotAuthenticated
	}
	readCtx, cancel := remoteReadContext(ctx, m.timeout)
	defer cancel()
	orders, err := m.orders.ListByUser(readCtx, uid)
	if err != nil {
		return nil, wrapRemoteError(ctx, "list_orders", err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// GetOrder 获取当前身份的订单
func (m *OrderManager) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	uid := m.session.UID()
	if uid == "" {
		return nil, ErrNotAuthenticated
	}
	readCtx, cancel := remoteReadContext(ctx, m.timeout)
	defer cancel()
	order, err := m.orders.GetByID(readCtx, strings.TrimSpace(orderID))
	if err != nil {
		if errors.Is(err, repository.ErrMalformedDocument) {
			return nil, ErrOrderNotFound
		}
		return nil, wrapRemoteError(ctx, "get_order", err)
	}
	if order == nil || order.UserID != uid {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus 按严格状态机变更订单状态
func (m *OrderManager) UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	if _, err := m.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	target := NormalizeOrderStatus(status)
	if !IsKnownOrderStatus(target) {
		return nil, ErrInvalidStatus
	}
	return applyOrderStatus(ctx, statusChange{
		orders:   m.orders,
		timeout:  m.timeout,
		notifier: m.notifier,
		now:      m.now,
		orderID:  strings.TrimSpace(orderID),
		target:   target,
		actor:    "customer",
		allowed:  IsTransitionAllowed,
	})
}

// Cancel 仅允许取消 pending 订单
func (m *OrderManager) Cancel(ctx context.Context, orderID string) (*models.Order, error) {
	return m.UpdateStatus(ctx, orderID, constants.OrderStatusCancelled)
}

// Reorder 把历史订单的每一行按原数量与规格重新加入购物车
func (m *OrderManager) Reorder(ctx context.Context, orderID string) (*CartState, error) {
	if m.cart == nil {
		return nil, ErrNotAuthenticated
	}
	order, err := m.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	state := m.cart.State()
	var warning *MirrorWarning
	for _, item := range order.Items {
		snapshot := models.ProductSnapshot{
			ProductID:     item.ProductID,
			Name:          item.Name,
			Brand:         item.Brand,
			Price:         item.UnitPrice,
			OriginalPrice: item.OriginalUnitPrice,
			Image:         item.Image,
		}
		state, err = m.cart.AddLine(ctx, snapshot, item.Quantity, item.Options)
		if err != nil {
			return nil, err
		}
		if state.Warning != nil {
			warning = state.Warning
		}
	}
	state.Warning = warning
	return state, nil
}

// discardOrder 订单历史写入失败时撤销已创建的订单，避免留下调用方已被告知失败的记录
func (m *OrderManager) discardOrder(ctx context.Context, uid, orderID string) {
	deleteCtx, cancel := remoteWriteContext(ctx, m.timeout)
	defer cancel()
	if err := m.orders.Delete(deleteCtx, orderID); err != nil {
		logger.Ctx(ctx).Errorw("order_discard_failed", "uid", uid, "order_id", orderID, "error", err)
		return
	}
	logger.Ctx(ctx).Warnw("order_discarded", "uid", uid, "order_id", orderID)
}

func (m *OrderManager) rememberOrder(orderID string) {
	s := m.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.profile == nil {
		return
	}
	for _, existing := range s.profile.Orders {
		if existing == orderID {
			return
		}
	}
	s.profile.Orders = append(s.profile.Orders, orderID)
}

// statusChange 一次状态写入的参数
type statusChange struct {
	orders   repository.OrderRepository
	timeout  time.Duration
	notifier OrderNotifier
	now      func() time.Time
	orderID  string
	target   string
	actor    string
	allowed  func(from, to string) bool
	extra    models.JSON
}

// applyOrderStatus 读取当前版本、校验状态流转并比较交换写入
func applyOrderStatus(ctx context.Context, change statusChange) (*models.Order, error) {
	writeCtx, cancel := remoteWriteContext(ctx, change.timeout)
	defer cancel()

	for attempt := 0; attempt < statusWriteAttempts; attempt++ {
		current, err := change.orders.GetByID(writeCtx, change.orderID)
		if err != nil {
			if errors.Is(err, repository.ErrMalformedDocument) {
				return nil, ErrOrderNotFound
			}
			return nil, wrapRemoteError(ctx, "get_order", err)
		}
		if current == nil {
			return nil, ErrOrderNotFound
		}
		if !change.allowed(current.Status, change.target) {
			return nil, ErrInvalidTransition
		}

		patch := models.JSON{
			"status":     change.target,
			"updated_at": change.now().UTC(),
		}
		for key, value := range change.extra {
			patch[key] = value
		}
		updated, err := change.orders.UpdateWithVersion(writeCtx, current.ID, current.Version, patch)
		if errors.Is(err, repository.ErrVersionConflict) {
			logger.Ctx(ctx).Debugw("order_status_version_conflict", "order_id", current.ID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, wrapRemoteError(ctx, "update_order_status", err)
		}

		logger.Ctx(ctx).Infow("order_status_updated",
			"order_id", updated.ID,
			"from", current.Status,
			"to", updated.Status,
			"actor", change.actor,
		)
		if current.Status != updated.Status {
			telemetry.RecordOrderTransition(ctx, current.Status, updated.Status, change.actor)
			if change.notifier != nil {
				change.notifier.OrderStatusChanged(ctx, updated, current.Status)
			}
		}
		return updated, nil
	}
	return nil, ErrOrderConflict
}

func normalizeOrderAddress(address models.Address) models.Address {
	address.FullName = strings.TrimSpace(address.FullName)
	address.Email = strings.ToLower(strings.TrimSpace(address.Email))
	if strings.TrimSpace(address.Country) == "" {
		address.Country = constants.DefaultCountry
	}
	address.IsDefault = false
	return address
}
