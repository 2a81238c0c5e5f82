package service

import (
	"time"

	"github.com/lumenshop/storefront/internal/repository"
)

// ManagerFactory 按会话创建购物车与订单管理器
type ManagerFactory struct {
	profiles repository.ProfileRepository
	orders   repository.OrderRepository
	pricing  PricingRules
	timeout  time.Duration
	notifier OrderNotifier
}

// NewManagerFactory 创建管理器工厂
func NewManagerFactory(profiles repository.ProfileRepository, orders repository.OrderRepository, pricing PricingRules, timeout time.Duration, notifier OrderNotifier) *ManagerFactory {
	return &ManagerFactory{
		profiles: profiles,
		orders:   orders,
		pricing:  pricing,
		timeout:  timeout,
		notifier: notifier,
	}
}

// Pricing 当前计价规则
func (f *ManagerFactory) Pricing() PricingRules {
	return f.pricing
}

// Cart 会话购物车管理器
func (f *ManagerFactory) Cart(session *Session) *CartManager {
	return NewCartManager(session, f.profiles, f.pricing, f.timeout)
}

// Orders 会话订单管理器
func (f *ManagerFactory) Orders(session *Session) *OrderManager {
	return NewOrderManager(session, f.Cart(session), f.orders, f.profiles, f.pricing, f.timeout, f.notifier)
}
