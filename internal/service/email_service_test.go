package service

import (
	"errors"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/i18n"
	"github.com/lumenshop/storefront/internal/models"
)

func TestBuildOrderStatusContent(t *testing.T) {
	tests := []struct {
		name                string
		locale              string
		input               OrderStatusEmailInput
		wantSubjectContains []string
		wantBodyContains    []string
	}{
		{
			name:                "placed_zh",
			locale:              i18n.LocaleZH,
			input:               OrderStatusEmailInput{OrderID: "ord-1", Status: "pending", Total: models.MustMoney("107.80"), Placed: true},
			wantSubjectContains: []string{"订单状态更新", "待处理"},
			wantBodyContains:    []string{"感谢下单", "ord-1", "107.80"},
		},
		{
			name:   "shipped_with_tracking_en",
			locale: "en",
			input: OrderStatusEmailInput{
				OrderID:        "ord-2",
				Status:         "shipped",
				Total:          models.MustMoney("20.00"),
				TrackingNumber: "1Z999",
				Carrier:        "UPS",
			},
			wantSubjectContains: []string{"Order status updated", "Shipped"},
			wantBodyContains:    []string{"Shipment: UPS 1Z999", "Order: ord-2"},
		},
		{
			name:                "canceled_alias_en",
			locale:              i18n.LocaleEN,
			input:               OrderStatusEmailInput{OrderID: "ord-3", Status: "canceled", Total: models.MustMoney("5.00")},
			wantSubjectContains: []string{"Cancelled"},
			wantBodyContains:    []string{"Status: Cancelled"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body := buildOrderStatusContent(tt.input, tt.locale)
			for _, want := range tt.wantSubjectContains {
				if !strings.Contains(subject, want) {
					t.Fatalf("subject %q should contain %q", subject, want)
				}
			}
			for _, want := range tt.wantBodyContains {
				if !strings.Contains(body, want) {
					t.Fatalf("body %q should contain %q", body, want)
				}
			}
		})
	}
}

func TestPasswordResetLinkTemplate(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{ResetURL: "https://shop.example/reset?token=%s"}, "Lumen")
	if got := svc.resetLink("abc"); got != "https://shop.example/reset?token=abc" {
		t.Fatalf("unexpected reset link: %s", got)
	}
	_, body := buildPasswordResetContent(svc.resetLink("abc"), 30*time.Minute, i18n.LocaleEN)
	if !strings.Contains(body, "token=abc") || !strings.Contains(body, "30 minutes") {
		t.Fatalf("unexpected reset body: %s", body)
	}
	if got := svc.withStoreName("Reset"); got != "[Lumen] Reset" {
		t.Fatalf("unexpected subject prefix: %s", got)
	}
}

func TestSendEmailGuards(t *testing.T) {
	disabled := NewEmailService(&config.EmailConfig{Enabled: false}, "")
	if err := disabled.SendPasswordResetEmail("a@example.com", "tok", i18n.LocaleEN, time.Minute); !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}
	unconfigured := NewEmailService(&config.EmailConfig{Enabled: true}, "")
	if err := unconfigured.SendPasswordResetEmail("a@example.com", "tok", i18n.LocaleEN, time.Minute); !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Fatalf("expected not configured error, got %v", err)
	}
	configured := NewEmailService(&config.EmailConfig{Enabled: true, Host: "127.0.0.1", Port: 2525, From: "shop@example.com"}, "")
	if err := configured.SendPasswordResetEmail("not-an-email", "tok", i18n.LocaleEN, time.Minute); !errors.Is(err, ErrInvalidEmailRecipient) {
		t.Fatalf("expected invalid recipient error, got %v", err)
	}
}

func TestNormalizeEmailSendError(t *testing.T) {
	if err := normalizeEmailSendError(errors.New("550 5.1.1 Recipient address rejected")); !errors.Is(err, ErrEmailRecipientRejected) {
		t.Fatalf("expected recipient rejected, got %v", err)
	}
	if err := normalizeEmailSendError(&textproto.Error{Code: 553, Msg: "mailbox name not allowed"}); !errors.Is(err, ErrEmailRecipientRejected) {
		t.Fatalf("expected 553 to be rejected, got %v", err)
	}
	raw := errors.New("connection reset")
	if err := normalizeEmailSendError(raw); !errors.Is(err, raw) {
		t.Fatalf("unexpected normalization: %v", err)
	}
}
