package service

import (
	"context"
	"time"

	"github.com/lumenshop/storefront/internal/cache"
	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	dashboardOverviewCacheKey = "dashboard:overview"
	dashboardOverviewCacheTTL = 30 * time.Second
	dashboardRecentOrderLimit = 5
)

// DashboardOverview 后台概览
type DashboardOverview struct {
	OrderCount   int64          `json:"order_count"`
	PendingCount int64          `json:"pending_count"`
	Revenue      models.Money   `json:"revenue"`
	UserCount    int64          `json:"user_count"`
	ProductCount int64          `json:"product_count"`
	RecentOrders []models.Order `json:"recent_orders"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

// DashboardService 后台概览服务
type DashboardService struct {
	orders   repository.OrderRepository
	profiles repository.ProfileRepository
	products repository.ProductRepository
	timeout  time.Duration
}

// NewDashboardService 创建概览服务
func NewDashboardService(orders repository.OrderRepository, profiles repository.ProfileRepository, products repository.ProductRepository, timeout time.Duration) *DashboardService {
	return &DashboardService{
		orders:   orders,
		profiles: profiles,
		products: products,
		timeout:  timeout,
	}
}

// Overview 汇总订单、收入（不含已取消）、用户与商品数量
func (s *DashboardService) Overview(ctx context.Context, forceRefresh bool) (*DashboardOverview, error) {
	if !forceRefresh {
		var cached DashboardOverview
		hit, cacheErr := cache.GetJSON(ctx, dashboardOverviewCacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	readCtx, cancel := remoteReadContext(ctx, s.timeout)
	defer cancel()

	orders, err := s.orders.ListAll(readCtx)
	if err != nil {
		return nil, wrapRemoteError(ctx, "dashboard_orders", err)
	}
	revenue := decimal.Zero
	var pending int64
	for _, order := range orders {
		if order.Status == constants.OrderStatusPending {
			pending++
		}
		if order.Status == constants.OrderStatusCancelled {
			continue
		}
		revenue = revenue.Add(order.Total.Decimal)
	}
	userCount, err := s.profiles.Count(readCtx)
	if err != nil {
		return nil, wrapRemoteError(ctx, "dashboard_users", err)
	}
	productCount, err := s.products.Count(readCtx)
	if err != nil {
		return nil, wrapRemoteError(ctx, "dashboard_products", err)
	}
	recent, err := s.orders.ListRecent(readCtx, dashboardRecentOrderLimit)
	if err != nil {
		return nil, wrapRemoteError(ctx, "dashboard_recent_orders", err)
	}

	overview := &DashboardOverview{
		OrderCount:   int64(len(orders)),
		PendingCount: pending,
		Revenue:      models.NewMoneyFromDecimal(revenue),
		UserCount:    userCount,
		ProductCount: productCount,
		RecentOrders: recent,
		GeneratedAt:  time.Now().UTC(),
	}
	if err := cache.SetJSON(ctx, dashboardOverviewCacheKey, overview, dashboardOverviewCacheTTL); err != nil {
		logger.Ctx(ctx).Warnw("dashboard_overview_cache_write_failed", "error", err)
	}
	return overview, nil
}
