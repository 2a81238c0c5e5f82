package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/repository"
)

const defaultAdminOrderPageSize = 10

// AdminOrderListInput 管理端订单列表参数
type AdminOrderListInput struct {
	Page      int
	PageSize  int
	Status    string
	Search    string
	DateRange string // today / week / month，空为全部
}

// AdminStatusUpdate 管理端状态变更参数
type AdminStatusUpdate struct {
	Status            string
	TrackingNumber    *string
	Carrier           *string
	EstimatedDelivery *time.Time
}

// OrderAdminService 管理端订单服务
type OrderAdminService struct {
	orders   repository.OrderRepository
	policy   string
	timeout  time.Duration
	notifier OrderNotifier
	now      func() time.Time
}

// NewOrderAdminService 创建管理端订单服务
func NewOrderAdminService(orders repository.OrderRepository, policy string, timeout time.Duration, notifier OrderNotifier) *OrderAdminService {
	return &OrderAdminService{
		orders:   orders,
		policy:   NormalizeAdminStatusPolicy(policy),
		timeout:  timeout,
		notifier: notifier,
		now:      time.Now,
	}
}

// Policy 当前状态策略
func (s *OrderAdminService) Policy() string {
	return s.policy
}

// List 分页查询订单
func (s *OrderAdminService) List(ctx context.Context, input AdminOrderListInput) ([]models.Order, int64, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.PageSize <= 0 {
		input.PageSize = defaultAdminOrderPageSize
	}
	filter := repository.OrderListFilter{
		Page:     input.Page,
		PageSize: input.PageSize,
		Search:   strings.TrimSpace(input.Search),
	}
	if status := NormalizeOrderStatus(input.Status); status != "" && status != "all" {
		if !IsKnownOrderStatus(status) {
			return nil, 0, ErrInvalidStatus
		}
		filter.Status = status
	}
	if from, ok := resolveDateRangeStart(input.DateRange, s.now()); ok {
		filter.CreatedFrom = &from
	}

	readCtx, cancel := remoteReadContext(ctx, s.timeout)
	defer cancel()
	orders, total, err := s.orders.ListAdmin(readCtx, filter)
	if err != nil {
		return nil, 0, wrapRemoteError(ctx, "list_admin_orders", err)
	}
	return orders, total, nil
}

// Get 获取任意订单
func (s *OrderAdminService) Get(ctx context.Context, orderID string) (*models.Order, error) {
	readCtx, cancel := remoteReadContext(ctx, s.timeout)
	defer cancel()
	order, err := s.orders.GetByID(readCtx, strings.TrimSpace(orderID))
	if err != nil {
		if errors.Is(err, repository.ErrMalformedDocument) {
			return nil, ErrOrderNotFound
		}
		return nil, wrapRemoteError(ctx, "get_order", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus 按管理端策略变更状态，可同时写入物流信息
func (s *OrderAdminService) UpdateStatus(ctx context.Context, orderID string, input AdminStatusUpdate) (*models.Order, error) {
	target := NormalizeOrderStatus(input.Status)
	if !IsKnownOrderStatus(target) {
		return nil, ErrInvalidStatus
	}
	extra := models.JSON{}
	if input.TrackingNumber != nil {
		extra["tracking_number"] = strings.TrimSpace(*input.TrackingNumber)
	}
	if input.Carrier != nil {
		extra["carrier"] = strings.TrimSpace(*input.Carrier)
	}
	if input.EstimatedDelivery != nil {
		extra["estimated_delivery"] = input.EstimatedDelivery.UTC()
	}
	policy := s.policy
	return applyOrderStatus(ctx, statusChange{
		orders:   s.orders,
		timeout:  s.timeout,
		notifier: s.notifier,
		now:      s.now,
		orderID:  strings.TrimSpace(orderID),
		target:   target,
		actor:    "admin",
		allowed: func(from, to string) bool {
			return IsAdminTransitionAllowed(policy, from, to)
		},
		extra: extra,
	})
}

// resolveDateRangeStart today 为当天零点，week/month 为零点往前 7/30 天
func resolveDateRangeStart(dateRange string, now time.Time) (time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch strings.ToLower(strings.TrimSpace(dateRange)) {
	case constants.DateRangeToday:
		return today, true
	case constants.DateRangeWeek:
		return today.AddDate(0, 0, -7), true
	case constants.DateRangeMonth:
		return today.AddDate(0, 0, -30), true
	default:
		return time.Time{}, false
	}
}
