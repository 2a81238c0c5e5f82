package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmailInUse          = errors.New("email already registered")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrWeakPassword        = errors.New("weak password")
	ErrIdentityNotFound    = errors.New("identity not found")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrResetTokenInvalid   = errors.New("reset token invalid or expired")
	ErrProviderUnavailable = errors.New("auth provider unavailable")
)

// Identity 认证身份
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Token 会话令牌
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Provider 认证提供方接口
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context, uid string) error
	SendPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	Reauthenticate(ctx context.Context, uid, currentPassword string) error
	ChangePassword(ctx context.Context, uid, newPassword string) error
	UpdateDisplayName(ctx context.Context, uid, name string) error
	Lookup(ctx context.Context, uid string) (*Identity, error)
	IssueToken(ctx context.Context, identity *Identity, role string) (*Token, error)
	ParseToken(ctx context.Context, token string) (*Claims, error)
}

// ResetNotifier 重置密码通知投递
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, email, token string) error
}
