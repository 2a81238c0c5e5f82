package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated       = errors.New("not authenticated")
	ErrNotFound               = errors.New("not found")
	ErrOrderNotFound          = fmt.Errorf("order %w", ErrNotFound)
	ErrProfileNotFound        = fmt.Errorf("profile %w", ErrNotFound)
	ErrAddressNotFound        = fmt.Errorf("address %w", ErrNotFound)
	ErrProductNotFound        = fmt.Errorf("product %w", ErrNotFound)
	ErrInvalidTransition      = errors.New("invalid order status transition")
	ErrEmptyOrder             = errors.New("order has no line items")
	ErrDuplicateIdentity      = errors.New("identity already registered")
	ErrInvalidCredential      = errors.New("invalid credential")
	ErrWeakCredential         = errors.New("weak credential")
	ErrReauthenticationFailed = errors.New("reauthentication failed")
	ErrRemoteUnavailable      = errors.New("remote service unavailable")
	ErrProfileMissing         = errors.New("profile document missing")
	ErrInvalidEmail           = errors.New("invalid email")
	ErrInvalidQuantity        = errors.New("quantity must be between 1 and 9999")
	ErrInvalidProduct         = errors.New("invalid product snapshot")
	ErrInvalidStatus          = errors.New("unknown order status")
	ErrOrderConflict          = errors.New("order modified concurrently")
	ErrInvalidAddress         = errors.New("address incomplete")
	ErrInvalidPayment         = errors.New("invalid payment method")
	ErrInvalidResetToken      = errors.New("reset token invalid or expired")
	ErrCaptchaRequired        = errors.New("captcha required")
	ErrCaptchaInvalid         = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid   = errors.New("captcha config invalid")

	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrInvalidEmailRecipient     = errors.New("invalid email recipient")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)
