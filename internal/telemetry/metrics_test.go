package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMeterProviderExposesCounters(t *testing.T) {
	handler, shutdown, err := InitMeterProvider("storefront-test", "test")
	if err != nil {
		t.Fatalf("init meter provider failed: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	ctx := context.Background()
	RecordCartMirrorFailure(ctx, "add_line")
	RecordOrderPlaced(ctx)
	RecordOrderTransition(ctx, "pending", "cancelled", "customer")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{
		"storefront_cart_mirror_failures_total",
		"storefront_orders_placed_total",
		"storefront_orders_transitions_total",
	} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("metric %s missing from scrape output", name)
		}
	}
}
