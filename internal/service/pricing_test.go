package service

import (
	"testing"

	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/models"
)

func TestPricingTotalArithmetic(t *testing.T) {
	rules := DefaultPricingRules()
	lines := []models.CartLine{
		{ProductID: "a", UnitPrice: models.MustMoney("49.00"), Quantity: 2},
	}
	totals := rules.Compute(lines)
	if totals.Subtotal.String() != "98.00" {
		t.Fatalf("subtotal want 98.00, got %s", totals.Subtotal)
	}
	if totals.Tax.String() != "9.80" {
		t.Fatalf("tax want 9.80, got %s", totals.Tax)
	}
	if totals.Shipping.String() != "0.00" {
		t.Fatalf("shipping want 0.00, got %s", totals.Shipping)
	}
	if totals.Total.String() != "107.80" {
		t.Fatalf("total want 107.80, got %s", totals.Total)
	}
	if totals.LineCount != 2 {
		t.Fatalf("line count want 2, got %d", totals.LineCount)
	}
}

func TestPricingShippingThreshold(t *testing.T) {
	rules := DefaultPricingRules()
	cases := []struct {
		name     string
		lines    []models.CartLine
		shipping string
	}{
		{name: "empty cart pays flat fee", lines: nil, shipping: "5.99"},
		{name: "exactly threshold", lines: []models.CartLine{{ProductID: "a", UnitPrice: models.MustMoney("50.00"), Quantity: 1}}, shipping: "5.99"},
		{name: "above threshold", lines: []models.CartLine{{ProductID: "a", UnitPrice: models.MustMoney("50.01"), Quantity: 1}}, shipping: "0.00"},
		{name: "small order", lines: []models.CartLine{{ProductID: "a", UnitPrice: models.MustMoney("9.99"), Quantity: 1}}, shipping: "5.99"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totals := rules.Compute(tc.lines)
			if totals.Shipping.String() != tc.shipping {
				t.Fatalf("shipping want %s, got %s", tc.shipping, totals.Shipping)
			}
		})
	}
}

func TestPricingSmallOrderTotal(t *testing.T) {
	totals := DefaultPricingRules().Compute([]models.CartLine{
		{ProductID: "a", UnitPrice: models.MustMoney("10.00"), Quantity: 1},
		{ProductID: "b", UnitPrice: models.MustMoney("2.50"), Quantity: 2},
	})
	// 15.00 + 1.50 + 5.99
	if totals.Total.String() != "22.49" {
		t.Fatalf("total want 22.49, got %s", totals.Total)
	}
}

func TestNewPricingRulesFallsBackOnInvalidConfig(t *testing.T) {
	rules := NewPricingRules(config.OrderConfig{
		TaxRate:               "abc",
		FreeShippingThreshold: "-1",
		FlatShippingFee:       "7.50",
	})
	defaults := DefaultPricingRules()
	if !rules.TaxRate.Equal(defaults.TaxRate) {
		t.Fatalf("invalid tax rate should fall back, got %s", rules.TaxRate)
	}
	if rules.FreeShippingThreshold.String() != "50.00" {
		t.Fatalf("negative threshold should fall back, got %s", rules.FreeShippingThreshold)
	}
	if rules.FlatShippingFee.String() != "7.50" {
		t.Fatalf("flat fee want 7.50, got %s", rules.FlatShippingFee)
	}
}
