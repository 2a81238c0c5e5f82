package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/lumenshop/storefront/internal/cache"
	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ResetTokenTTL 重置密码令牌有效期
const ResetTokenTTL = 30 * time.Minute

// LocalProvider 本地认证提供方：bcrypt 密码 + HS256 会话令牌
type LocalProvider struct {
	jwtCfg   config.JWTConfig
	policy   config.PasswordPolicyConfig
	repo     repository.CredentialRepository
	notifier ResetNotifier
	now      func() time.Time
}

// NewLocalProvider 创建本地认证提供方
func NewLocalProvider(jwtCfg config.JWTConfig, policy config.PasswordPolicyConfig, repo repository.CredentialRepository, notifier ResetNotifier) *LocalProvider {
	return &LocalProvider{
		jwtCfg:   jwtCfg,
		policy:   policy,
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// SignUp 注册认证身份
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(p.policy, password); err != nil {
		return nil, err
	}
	existing, err := p.repo.GetByEmail(ctx, normalized)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	if existing != nil {
		return nil, ErrEmailInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	credential := &models.Credential{
		UID:          uuid.NewString(),
		Email:        normalized,
		PasswordHash: string(hash),
		DisplayName:  displayNameFromEmail(normalized),
	}
	if err := p.repo.Create(ctx, credential); err != nil {
		return nil, wrapUnavailable(err)
	}
	return identityOf(credential), nil
}

// SignIn 校验邮箱密码
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	credential, err := p.repo.GetByEmail(ctx, normalized)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	if credential == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := p.now()
	credential.LastLoginAt = &now
	if err := p.repo.Update(ctx, credential); err != nil {
		return nil, wrapUnavailable(err)
	}
	return identityOf(credential), nil
}

// SignOut 使该身份已签发的令牌全部失效
func (p *LocalProvider) SignOut(ctx context.Context, uid string) error {
	credential, err := p.load(ctx, uid)
	if err != nil {
		return err
	}
	credential.TokenVersion++
	if err := p.repo.Update(ctx, credential); err != nil {
		return wrapUnavailable(err)
	}
	p.cacheAuthState(ctx, credential)
	return nil
}

// SendPasswordReset 生成重置令牌并投递邮件，邮箱不存在时静默成功
func (p *LocalProvider) SendPasswordReset(ctx context.Context, email string) error {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	credential, err := p.repo.GetByEmail(ctx, normalized)
	if err != nil {
		return wrapUnavailable(err)
	}
	if credential == nil {
		logger.Infow("password_reset_unknown_email")
		return nil
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	record := &models.PasswordResetToken{
		UID:       credential.UID,
		TokenHash: hashToken(token),
		ExpiresAt: p.now().Add(ResetTokenTTL),
	}
	if err := p.repo.CreateResetToken(ctx, record); err != nil {
		return wrapUnavailable(err)
	}
	if p.notifier == nil {
		logger.Warnw("password_reset_notifier_missing", "uid", credential.UID)
		return nil
	}
	return p.notifier.NotifyPasswordReset(ctx, credential.Email, token)
}

// ConfirmPasswordReset 使用重置令牌设置新密码
func (p *LocalProvider) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrResetTokenInvalid
	}
	record, err := p.repo.GetResetToken(ctx, hashToken(token))
	if err != nil {
		return wrapUnavailable(err)
	}
	if record == nil || record.UsedAt != nil || p.now().After(record.ExpiresAt) {
		return ErrResetTokenInvalid
	}
	if err := ValidatePassword(p.policy, newPassword); err != nil {
		return err
	}
	consumed, err := p.repo.ConsumeResetToken(ctx, record.ID, p.now())
	if err != nil {
		return wrapUnavailable(err)
	}
	if !consumed {
		return ErrResetTokenInvalid
	}
	return p.ChangePassword(ctx, record.UID, newPassword)
}

// Reauthenticate 重新校验当前密码
func (p *LocalProvider) Reauthenticate(ctx context.Context, uid, currentPassword string) error {
	credential, err := p.load(ctx, uid)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// ChangePassword 设置新密码并吊销已签发令牌
func (p *LocalProvider) ChangePassword(ctx context.Context, uid, newPassword string) error {
	if err := ValidatePassword(p.policy, newPassword); err != nil {
		return err
	}
	credential, err := p.load(ctx, uid)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := p.now()
	credential.PasswordHash = string(hash)
	credential.PasswordChangedAt = &now
	credential.TokenVersion++
	if err := p.repo.Update(ctx, credential); err != nil {
		return wrapUnavailable(err)
	}
	p.cacheAuthState(ctx, credential)
	return nil
}

// UpdateDisplayName 更新展示名称
func (p *LocalProvider) UpdateDisplayName(ctx context.Context, uid, name string) error {
	credential, err := p.load(ctx, uid)
	if err != nil {
		return err
	}
	credential.DisplayName = strings.TrimSpace(name)
	if err := p.repo.Update(ctx, credential); err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

// Lookup 根据身份 ID 查询身份
func (p *LocalProvider) Lookup(ctx context.Context, uid string) (*Identity, error) {
	credential, err := p.load(ctx, uid)
	if err != nil {
		return nil, err
	}
	return identityOf(credential), nil
}

// IssueToken 签发会话令牌
func (p *LocalProvider) IssueToken(ctx context.Context, identity *Identity, role string) (*Token, error) {
	if identity == nil {
		return nil, ErrIdentityNotFound
	}
	credential, err := p.load(ctx, identity.UID)
	if err != nil {
		return nil, err
	}
	hours := p.jwtCfg.ExpireHours
	if hours <= 0 {
		hours = 168
	}
	expiresAt := p.now().Add(time.Duration(hours) * time.Hour)
	value, err := signToken(p.jwtCfg.SecretKey, newClaims(identity, role, credential.TokenVersion, expiresAt))
	if err != nil {
		return nil, err
	}
	p.cacheAuthState(ctx, credential)
	return &Token{Value: value, ExpiresAt: expiresAt}, nil
}

// ParseToken 校验令牌签名与版本
func (p *LocalProvider) ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := parseToken(p.jwtCfg.SecretKey, strings.TrimSpace(tokenString))
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if claims.UID == "" {
		return nil, ErrTokenInvalid
	}

	if cached, hit, cacheErr := cache.GetUserAuthState(ctx, claims.UID); cacheErr == nil && hit && cached != nil {
		if cached.TokenVersion != claims.TokenVersion {
			return nil, ErrTokenRevoked
		}
		return claims, nil
	}

	credential, err := p.repo.GetByUID(ctx, claims.UID)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	if credential == nil {
		return nil, ErrTokenInvalid
	}
	if credential.TokenVersion != claims.TokenVersion {
		return nil, ErrTokenRevoked
	}
	p.cacheAuthState(ctx, credential)
	return claims, nil
}

func (p *LocalProvider) load(ctx context.Context, uid string) (*models.Credential, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ErrIdentityNotFound
	}
	credential, err := p.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	if credential == nil {
		return nil, ErrIdentityNotFound
	}
	return credential, nil
}

func (p *LocalProvider) cacheAuthState(ctx context.Context, credential *models.Credential) {
	if err := cache.SetUserAuthState(ctx, cache.NewUserAuthState(credential.UID, credential.TokenVersion)); err != nil {
		logger.Warnw("auth_state_cache_write_failed", "uid", credential.UID, "error", err)
	}
}

// NormalizeEmail 校验并归一化邮箱
func NormalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

func identityOf(credential *models.Credential) *Identity {
	return &Identity{
		UID:         credential.UID,
		Email:       credential.Email,
		DisplayName: credential.DisplayName,
	}
}

func displayNameFromEmail(email string) string {
	if idx := strings.Index(email, "@"); idx > 0 {
		return email[:idx]
	}
	return email
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// wrapUnavailable 将存储层的超时与连接错误归为不可用
func wrapUnavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Join(ErrProviderUnavailable, err)
	}
	return err
}
