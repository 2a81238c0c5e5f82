package service

import (
	"errors"
	"testing"

	"github.com/lumenshop/storefront/internal/constants"
)

func TestDetectCardBrand(t *testing.T) {
	cases := map[string]string{
		"4242 4242 4242 4242": constants.CardBrandVisa,
		"5555555555554444":    constants.CardBrandMastercard,
		"378282246310005":     constants.CardBrandAmex,
		"6011111111111117":    constants.CardBrandDiscover,
		"6500000000000002":    constants.CardBrandDiscover,
		"3530111333300000":    constants.CardBrandUnknown,
	}
	for number, want := range cases {
		if got := DetectCardBrand(number); got != want {
			t.Fatalf("%s want %s, got %s", number, want, got)
		}
	}
}

func TestNewPaymentDescriptorRedactsCardNumber(t *testing.T) {
	payment, err := NewPaymentDescriptor(PaymentInput{Method: "card", CardNumber: "4242-4242-4242-4242"})
	if err != nil {
		t.Fatalf("descriptor failed: %v", err)
	}
	if payment.Last4 != "4242" || payment.CardBrand != constants.CardBrandVisa || payment.Method != constants.PaymentMethodCard {
		t.Fatalf("unexpected descriptor: %+v", payment)
	}

	paypal, err := NewPaymentDescriptor(PaymentInput{Method: "PayPal"})
	if err != nil || paypal.Method != constants.PaymentMethodPaypal || paypal.Last4 != "" {
		t.Fatalf("unexpected paypal descriptor: %+v, %v", paypal, err)
	}

	if _, err := NewPaymentDescriptor(PaymentInput{Method: "card", CardNumber: "1234"}); !errors.Is(err, ErrInvalidPayment) {
		t.Fatalf("short card number should fail, got %v", err)
	}
	if _, err := NewPaymentDescriptor(PaymentInput{Method: "bitcoin"}); !errors.Is(err, ErrInvalidPayment) {
		t.Fatalf("unknown method should fail, got %v", err)
	}
}
