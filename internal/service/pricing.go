package service

import (
	"strings"

	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/models"

	"github.com/shopspring/decimal"
)

// PricingRules 税费与运费规则
type PricingRules struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold models.Money
	FlatShippingFee       models.Money
}

// Totals 购物车或订单的派生金额
type Totals struct {
	Subtotal  models.Money `json:"subtotal"`
	Tax       models.Money `json:"tax"`
	Shipping  models.Money `json:"shipping"`
	Total     models.Money `json:"total"`
	LineCount int          `json:"line_count"`
}

// DefaultPricingRules 默认规则：税率 10%，小计超过 50.00 免运费，否则运费 5.99
func DefaultPricingRules() PricingRules {
	return PricingRules{
		TaxRate:               decimal.RequireFromString("0.10"),
		FreeShippingThreshold: models.MustMoney("50.00"),
		FlatShippingFee:       models.MustMoney("5.99"),
	}
}

// NewPricingRules 从订单配置解析规则，非法值回退默认
func NewPricingRules(cfg config.OrderConfig) PricingRules {
	rules := DefaultPricingRules()
	if raw := strings.TrimSpace(cfg.TaxRate); raw != "" {
		if rate, err := decimal.NewFromString(raw); err == nil && !rate.IsNegative() {
			rules.TaxRate = rate
		} else {
			logger.Warnw("pricing_tax_rate_invalid", "value", raw)
		}
	}
	if raw := strings.TrimSpace(cfg.FreeShippingThreshold); raw != "" {
		if amount, err := models.ParseMoney(raw); err == nil && !amount.IsNegative() {
			rules.FreeShippingThreshold = amount
		} else {
			logger.Warnw("pricing_free_shipping_threshold_invalid", "value", raw)
		}
	}
	if raw := strings.TrimSpace(cfg.FlatShippingFee); raw != "" {
		if amount, err := models.ParseMoney(raw); err == nil && !amount.IsNegative() {
			rules.FlatShippingFee = amount
		} else {
			logger.Warnw("pricing_flat_shipping_fee_invalid", "value", raw)
		}
	}
	return rules
}

// Subtotal Σ 单价 × 数量
func (r PricingRules) Subtotal(lines []models.CartLine) models.Money {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.LineTotal().Decimal)
	}
	return models.NewMoneyFromDecimal(sum)
}

// Tax 小计 × 税率，保留两位小数
func (r PricingRules) Tax(subtotal models.Money) models.Money {
	return models.NewMoneyFromDecimal(subtotal.Decimal.Mul(r.TaxRate))
}

// Shipping 小计严格大于阈值免运费，否则收取固定运费（空购物车同样展示运费）
func (r PricingRules) Shipping(subtotal models.Money) models.Money {
	if subtotal.Decimal.GreaterThan(r.FreeShippingThreshold.Decimal) {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	return r.FlatShippingFee
}

// Compute 计算全部派生金额
func (r PricingRules) Compute(lines []models.CartLine) Totals {
	count := LineCount(lines)
	subtotal := r.Subtotal(lines)
	tax := r.Tax(subtotal)
	shipping := r.Shipping(subtotal)
	return Totals{
		Subtotal:  subtotal,
		Tax:       tax,
		Shipping:  shipping,
		Total:     subtotal.Add(tax).Add(shipping),
		LineCount: count,
	}
}

// LineCount 商品件数（数量之和）
func LineCount(lines []models.CartLine) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}
