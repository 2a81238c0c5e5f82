package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/provider"
	"github.com/lumenshop/storefront/internal/queue"
	"github.com/lumenshop/storefront/internal/repository"
	"github.com/lumenshop/storefront/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func TestResolveOrderReceiver(t *testing.T) {
	if got := resolveOrderReceiver(nil, nil); got != "" {
		t.Fatalf("expected empty receiver for nil order, got %q", got)
	}
	order := &models.Order{ShippingAddress: models.Address{Email: "  ship@example.com "}}
	profile := &models.Profile{Email: "profile@example.com"}
	if got := resolveOrderReceiver(order, profile); got != "ship@example.com" {
		t.Fatalf("shipping email should win, got %q", got)
	}
	order.ShippingAddress.Email = ""
	if got := resolveOrderReceiver(order, profile); got != "profile@example.com" {
		t.Fatalf("profile email fallback expected, got %q", got)
	}
}

func TestBuildOrderStatusEmailInput(t *testing.T) {
	tracking := " 1Z999 "
	carrier := "UPS"
	order := &models.Order{
		ID:             "o-1",
		Status:         constants.OrderStatusShipped,
		Total:          models.MustMoney("12.50"),
		TrackingNumber: &tracking,
		Carrier:        &carrier,
	}
	input := buildOrderStatusEmailInput(order, "")
	if input.Status != constants.OrderStatusShipped || input.TrackingNumber != "1Z999" || input.Carrier != "UPS" || input.Placed {
		t.Fatalf("unexpected input: %+v", input)
	}
	placed := buildOrderStatusEmailInput(order, constants.OrderStatusPending)
	if !placed.Placed || placed.Status != constants.OrderStatusPending {
		t.Fatalf("queued status should be used: %+v", placed)
	}
}

func TestHandleOrderStatusEmailSkipsWhenEmailDisabled(t *testing.T) {
	dsn := fmt.Sprintf("file:worker_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	store := repository.NewDocumentStore(db)
	orders := repository.NewOrderRepository(store)
	consumer := NewConsumer(&provider.Container{
		OrderRepo:    orders,
		ProfileRepo:  repository.NewProfileRepository(store),
		EmailService: service.NewEmailService(&config.EmailConfig{Enabled: false}, "Lumen"),
	})

	ctx := context.Background()
	order := &models.Order{
		UserID:          "u-1",
		Status:          constants.OrderStatusPending,
		Total:           models.MustMoney("10.00"),
		ShippingAddress: models.Address{Email: "ship@example.com"},
		CreatedAt:       time.Now().UTC(),
	}
	if _, err := orders.Create(ctx, order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	body, _ := json.Marshal(queue.OrderStatusEmailPayload{OrderID: order.ID, Status: constants.OrderStatusPending})
	if err := consumer.handleOrderStatusEmail(ctx, asynq.NewTask(queue.TaskOrderStatusEmail, body)); err != nil {
		t.Fatalf("disabled email should be skipped, got %v", err)
	}
	missing, _ := json.Marshal(queue.OrderStatusEmailPayload{OrderID: "missing"})
	if err := consumer.handleOrderStatusEmail(ctx, asynq.NewTask(queue.TaskOrderStatusEmail, missing)); err != nil {
		t.Fatalf("missing order should be skipped, got %v", err)
	}
	if err := consumer.handleOrderStatusEmail(ctx, asynq.NewTask(queue.TaskOrderStatusEmail, []byte("{"))); err == nil {
		t.Fatalf("malformed payload should fail")
	}
	if err := consumer.handlePasswordResetEmail(ctx, asynq.NewTask(queue.TaskPasswordResetEmail, []byte(`{"email":"a@example.com","token":"t"}`))); err != nil {
		t.Fatalf("disabled email should skip reset mail, got %v", err)
	}
}
