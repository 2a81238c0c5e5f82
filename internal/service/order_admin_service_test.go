package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/models"
)

// placeTestOrder 为会话下一张单行订单
func placeTestOrder(t *testing.T, env *serviceTestEnv, session *Session, productID, price string, shipping models.Address) *models.Order {
	t.Helper()
	lines := []models.CartLine{{
		ProductID: productID,
		Name:      "Product " + productID,
		Brand:     "Lumen",
		UnitPrice: models.MustMoney(price),
		Quantity:  1,
	}}
	order, err := env.factory.Orders(session).PlaceOrder(context.Background(), lines, shipping, models.Address{}, testPayment())
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	return order
}

func TestAdminListFiltersAndSearch(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	admin := NewOrderAdminService(env.orders, constants.AdminStatusPolicyForward, 10*time.Second, env.notifier)

	alice := env.register(t, "alice@example.com")
	bob := env.register(t, "bob@example.com")
	shipping := testAddress()
	first := placeTestOrder(t, env, alice, "a", "10.00", shipping)
	placeTestOrder(t, env, alice, "b", "20.00", shipping)
	other := testAddress()
	other.FullName = "Brian Kernighan"
	other.Email = "brian@example.com"
	third := placeTestOrder(t, env, bob, "c", "30.00", other)

	if _, err := admin.UpdateStatus(ctx, first.ID, AdminStatusUpdate{Status: constants.OrderStatusProcessing}); err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	all, total, err := admin.List(ctx, AdminOrderListInput{Status: "all"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("expected 3 orders, got total=%d len=%d", total, len(all))
	}

	processing, total, err := admin.List(ctx, AdminOrderListInput{Status: "Processing"})
	if err != nil {
		t.Fatalf("list processing failed: %v", err)
	}
	if total != 1 || processing[0].ID != first.ID {
		t.Fatalf("status filter mismatch: %+v", processing)
	}

	found, total, err := admin.List(ctx, AdminOrderListInput{Search: "kernighan"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 1 || found[0].ID != third.ID {
		t.Fatalf("search by name mismatch: %+v", found)
	}
	found, _, err = admin.List(ctx, AdminOrderListInput{Search: third.ID})
	if err != nil || len(found) != 1 {
		t.Fatalf("search by id failed: %v %+v", err, found)
	}

	paged, total, err := admin.List(ctx, AdminOrderListInput{Page: 2, PageSize: 2, DateRange: constants.DateRangeMonth})
	if err != nil {
		t.Fatalf("paged list failed: %v", err)
	}
	if total != 3 || len(paged) != 1 {
		t.Fatalf("expected second page with one order, got total=%d len=%d", total, len(paged))
	}

	if _, _, err := admin.List(ctx, AdminOrderListInput{Status: "lost"}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
}

func TestResolveDateRangeStart(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	cases := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{name: "today", input: "today", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "week", input: " Week ", want: time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "month", input: "month", want: time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "all", input: "", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := resolveDateRangeStart(tc.input, now)
			if ok != tc.ok || (ok && !got.Equal(tc.want)) {
				t.Fatalf("resolveDateRangeStart(%q) = %v, %v; want %v, %v", tc.input, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestAdminStatusUpdateWithTracking(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	admin := NewOrderAdminService(env.orders, "", 10*time.Second, env.notifier)
	if admin.Policy() != constants.AdminStatusPolicyForward {
		t.Fatalf("default policy should be forward, got %s", admin.Policy())
	}
	session := env.register(t, "ship@example.com")
	order := placeTestOrder(t, env, session, "lamp", "60.00", testAddress())

	tracking := " 1Z999 "
	carrier := "UPS"
	eta := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)
	updated, err := admin.UpdateStatus(ctx, order.ID, AdminStatusUpdate{
		Status:            constants.OrderStatusShipped,
		TrackingNumber:    &tracking,
		Carrier:           &carrier,
		EstimatedDelivery: &eta,
	})
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if updated.Status != constants.OrderStatusShipped || updated.TrackingNumber == nil || *updated.TrackingNumber != "1Z999" {
		t.Fatalf("unexpected shipped order: %+v", updated)
	}
	if updated.EstimatedDelivery == nil || !updated.EstimatedDelivery.Equal(eta) {
		t.Fatalf("estimated delivery not stored: %+v", updated.EstimatedDelivery)
	}

	// 同状态仅更新物流，不触发状态通知
	carrier = "DHL"
	if _, err := admin.UpdateStatus(ctx, order.ID, AdminStatusUpdate{Status: constants.OrderStatusShipped, Carrier: &carrier}); err != nil {
		t.Fatalf("tracking-only update failed: %v", err)
	}
	changes := env.notifier.changeLog()
	if len(changes) != 1 || changes[0] != "pending->shipped" {
		t.Fatalf("unexpected notifications: %v", changes)
	}

	if _, err := admin.UpdateStatus(ctx, order.ID, AdminStatusUpdate{Status: constants.OrderStatusPending}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("forward policy should reject moving back, got %v", err)
	}
	if _, err := admin.UpdateStatus(ctx, order.ID, AdminStatusUpdate{Status: constants.OrderStatusDelivered}); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if _, err := admin.UpdateStatus(ctx, order.ID, AdminStatusUpdate{Status: constants.OrderStatusCancelled}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("delivered orders are terminal, got %v", err)
	}
	if _, err := admin.UpdateStatus(ctx, "missing", AdminStatusUpdate{Status: constants.OrderStatusShipped}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}

func TestAdminUnrestrictedPolicyAllowsRollback(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	admin := NewOrderAdminService(env.orders, "unrestricted", 10*time.Second, env.notifier)
	session := env.register(t, "rollback@example.com")
	order := placeTestOrder(t, env, session, "mug", "12.00", testAddress())

	if _, err := admin.UpdateStatus(ctx, order.ID, AdminStatusUpdate{Status: constants.OrderStatusShipped}); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	rolled, err := admin.UpdateStatus(ctx, order.ID, AdminStatusUpdate{Status: constants.OrderStatusProcessing})
	if err != nil {
		t.Fatalf("rollback should be allowed: %v", err)
	}
	if rolled.Status != constants.OrderStatusProcessing {
		t.Fatalf("unexpected status %s", rolled.Status)
	}
	if _, err := admin.UpdateStatus(ctx, order.ID, AdminStatusUpdate{Status: constants.OrderStatusCancelled}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := admin.UpdateStatus(ctx, order.ID, AdminStatusUpdate{Status: constants.OrderStatusPending}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancelled orders stay terminal, got %v", err)
	}
}

func TestDashboardOverviewExcludesCancelledRevenue(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	session := env.register(t, "dash@example.com")
	env.register(t, "dash2@example.com")
	if err := env.products.Save(ctx, &models.Product{ID: "p1", Name: "Lamp", Price: models.MustMoney("60.00"), IsActive: true}); err != nil {
		t.Fatalf("save product failed: %v", err)
	}

	kept := placeTestOrder(t, env, session, "lamp", "60.00", testAddress())
	cancelled := placeTestOrder(t, env, session, "mug", "60.00", testAddress())
	if _, err := env.factory.Orders(session).Cancel(ctx, cancelled.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	dashboard := NewDashboardService(env.orders, env.profiles, env.products, 10*time.Second)
	overview, err := dashboard.Overview(ctx, true)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if overview.OrderCount != 2 || overview.PendingCount != 1 {
		t.Fatalf("unexpected counts: %+v", overview)
	}
	if !overview.Revenue.Equal(kept.Total.Decimal) {
		t.Fatalf("revenue should only include %s, got %s", kept.Total, overview.Revenue)
	}
	if overview.UserCount != 2 || overview.ProductCount != 1 {
		t.Fatalf("unexpected user/product counts: %+v", overview)
	}
	if len(overview.RecentOrders) != 2 {
		t.Fatalf("expected recent orders, got %d", len(overview.RecentOrders))
	}
}
