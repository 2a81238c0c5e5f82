package service

import (
	"regexp"
	"strings"

	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/models"
)

var cardBrandPatterns = []struct {
	brand   string
	pattern *regexp.Regexp
}{
	{brand: constants.CardBrandVisa, pattern: regexp.MustCompile(`^4`)},
	{brand: constants.CardBrandMastercard, pattern: regexp.MustCompile(`^5[1-5]`)},
	{brand: constants.CardBrandAmex, pattern: regexp.MustCompile(`^3[47]`)},
	{brand: constants.CardBrandDiscover, pattern: regexp.MustCompile(`^6(011|5)`)},
}

// PaymentInput 结账提交的支付信息，卡号只用于生成脱敏描述
type PaymentInput struct {
	Method     string `json:"method"`
	CardNumber string `json:"card_number"`
}

// DetectCardBrand 根据卡号前缀识别卡组织
func DetectCardBrand(number string) string {
	digits := digitsOnly(number)
	for _, candidate := range cardBrandPatterns {
		if candidate.pattern.MatchString(digits) {
			return candidate.brand
		}
	}
	return constants.CardBrandUnknown
}

// NewPaymentDescriptor 生成脱敏支付描述，不保留完整卡号
func NewPaymentDescriptor(input PaymentInput) (models.PaymentDescriptor, error) {
	method := strings.ToLower(strings.TrimSpace(input.Method))
	switch method {
	case constants.PaymentMethodPaypal:
		return models.PaymentDescriptor{Method: method}, nil
	case constants.PaymentMethodCard, "":
		digits := digitsOnly(input.CardNumber)
		if len(digits) < 12 || len(digits) > 19 {
			return models.PaymentDescriptor{}, ErrInvalidPayment
		}
		return models.PaymentDescriptor{
			Method:    constants.PaymentMethodCard,
			CardBrand: DetectCardBrand(digits),
			Last4:     digits[len(digits)-4:],
		}, nil
	default:
		return models.PaymentDescriptor{}, ErrInvalidPayment
	}
}

func validPaymentDescriptor(payment models.PaymentDescriptor) bool {
	switch payment.Method {
	case constants.PaymentMethodPaypal:
		return true
	case constants.PaymentMethodCard:
		return len(payment.Last4) == 4 && digitsOnly(payment.Last4) == payment.Last4
	default:
		return false
	}
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
