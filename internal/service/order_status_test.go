package service

import (
	"testing"

	"github.com/lumenshop/storefront/internal/constants"
)

func TestIsTransitionAllowedStrictMachine(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusProcessing, true},
		{constants.OrderStatusProcessing, constants.OrderStatusShipped, true},
		{constants.OrderStatusShipped, constants.OrderStatusDelivered, true},
		{constants.OrderStatusPending, constants.OrderStatusCancelled, true},
		{constants.OrderStatusPending, constants.OrderStatusShipped, false},
		{constants.OrderStatusProcessing, constants.OrderStatusCancelled, false},
		{constants.OrderStatusShipped, constants.OrderStatusProcessing, false},
		{constants.OrderStatusDelivered, constants.OrderStatusCancelled, false},
		{constants.OrderStatusCancelled, constants.OrderStatusPending, false},
		{constants.OrderStatusPending, constants.OrderStatusPending, false},
	}
	for _, tc := range cases {
		if got := IsTransitionAllowed(tc.from, tc.to); got != tc.want {
			t.Fatalf("%s -> %s want %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestIsAdminTransitionAllowedPolicies(t *testing.T) {
	forward := constants.AdminStatusPolicyForward
	unrestricted := constants.AdminStatusPolicyUnrestricted
	cases := []struct {
		policy, from, to string
		want             bool
	}{
		{forward, constants.OrderStatusPending, constants.OrderStatusShipped, true},
		{forward, constants.OrderStatusProcessing, constants.OrderStatusCancelled, true},
		{forward, constants.OrderStatusShipped, constants.OrderStatusShipped, true},
		{forward, constants.OrderStatusShipped, constants.OrderStatusPending, false},
		{forward, constants.OrderStatusDelivered, constants.OrderStatusDelivered, false},
		{unrestricted, constants.OrderStatusShipped, constants.OrderStatusPending, true},
		{unrestricted, constants.OrderStatusCancelled, constants.OrderStatusPending, false},
		{unrestricted, constants.OrderStatusDelivered, constants.OrderStatusShipped, false},
		{unrestricted, constants.OrderStatusPending, "refunded", false},
	}
	for _, tc := range cases {
		if got := IsAdminTransitionAllowed(tc.policy, tc.from, tc.to); got != tc.want {
			t.Fatalf("[%s] %s -> %s want %v, got %v", tc.policy, tc.from, tc.to, tc.want, got)
		}
	}
}

func TestNormalizeOrderStatusAndPolicy(t *testing.T) {
	if got := NormalizeOrderStatus(" Canceled "); got != constants.OrderStatusCancelled {
		t.Fatalf("canceled should normalize to cancelled, got %s", got)
	}
	if got := NormalizeAdminStatusPolicy("bogus"); got != constants.AdminStatusPolicyForward {
		t.Fatalf("unknown policy should fall back to forward, got %s", got)
	}
	if got := NormalizeAdminStatusPolicy("UNRESTRICTED"); got != constants.AdminStatusPolicyUnrestricted {
		t.Fatalf("unexpected policy: %s", got)
	}
}
