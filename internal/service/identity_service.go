package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumenshop/storefront/internal/auth"
	"github.com/lumenshop/storefront/internal/config"
	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/repository"

	"github.com/google/uuid"
)

// ProfileSeed 注册时写入资料文档的字段
type ProfileSeed struct {
	DisplayName string
	Phone       string
	Newsletter  bool
	Role        string
	// ProvisioningVerified 由入口在校验开通码后设置，只有此时才接受特权角色
	ProvisioningVerified bool
}

// ProfilePatch 资料可修改字段，nil 表示不修改
type ProfilePatch struct {
	DisplayName *string
	Phone       *string
	Newsletter  *bool
}

// AuthResult 登录/注册结果
type AuthResult struct {
	Session *Session        `json:"-"`
	Profile *models.Profile `json:"profile"`
	Token   *auth.Token     `json:"token"`
}

// ProfileMissingError 身份存在但资料文档缺失，携带令牌以便补建资料
type ProfileMissingError struct {
	Identity *auth.Identity
	Token    *auth.Token
}

func (e *ProfileMissingError) Error() string {
	return ErrProfileMissing.Error()
}

// Is 匹配 ErrProfileMissing
func (e *ProfileMissingError) Is(target error) bool {
	return target == ErrProfileMissing
}

// IdentityService 身份与会话服务
type IdentityService struct {
	provider auth.Provider
	profiles repository.ProfileRepository
	sessions *SessionRegistry
	policy   config.PasswordPolicyConfig
	timeout  time.Duration
	now      func() time.Time
}

// NewIdentityService 创建身份服务
func NewIdentityService(provider auth.Provider, profiles repository.ProfileRepository, sessions *SessionRegistry, policy config.PasswordPolicyConfig, timeout time.Duration) *IdentityService {
	return &IdentityService{
		provider: provider,
		profiles: profiles,
		sessions: sessions,
		policy:   policy,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Sessions 会话表
func (s *IdentityService) Sessions() *SessionRegistry {
	return s.sessions
}

// Register 注册身份并创建资料文档
func (s *IdentityService) Register(ctx context.Context, email, password string, seed ProfileSeed) (*AuthResult, error) {
	writeCtx, cancel := remoteWriteContext(ctx, s.timeout)
	defer cancel()

	identity, err := s.provider.SignUp(writeCtx, email, password)
	if err != nil {
		return nil, mapAuthError(ctx, "sign_up", err)
	}
	role := resolveSeedRole(seed)
	if role != constants.RoleCustomer {
		logger.Ctx(ctx).Infow("identity_privileged_role_provisioned", "uid", identity.UID, "role", role)
	}

	now := s.now().UTC()
	displayName := strings.TrimSpace(seed.DisplayName)
	if displayName == "" {
		displayName = identity.DisplayName
	} else if err := s.provider.UpdateDisplayName(writeCtx, identity.UID, displayName); err != nil {
		logger.Ctx(ctx).Warnw("identity_display_name_sync_failed", "uid", identity.UID, "error", err)
	}
	profile := &models.Profile{
		UID:         identity.UID,
		Email:       identity.Email,
		DisplayName: displayName,
		Role:        role,
		Phone:       strings.TrimSpace(seed.Phone),
		Newsletter:  seed.Newsletter,
		Addresses:   []models.Address{},
		Cart:        []models.CartLine{},
		Wishlist:    []models.WishlistItem{},
		Orders:      []string{},
		CreatedAt:   now,
		LastActive:  now,
	}

	token, err := s.provider.IssueToken(writeCtx, identity, role)
	if err != nil {
		return nil, mapAuthError(ctx, "issue_token", err)
	}
	if err := s.profiles.Create(writeCtx, profile); err != nil {
		logger.Ctx(ctx).Errorw("profile_create_failed", "uid", identity.UID, "error", err)
		if isRemoteUnavailable(err) {
			return nil, wrapRemoteError(ctx, "create_profile", err)
		}
		return nil, &ProfileMissingError{Identity: identity, Token: token}
	}
	logger.Ctx(ctx).Infow("identity_registered", "uid", identity.UID, "role", role)

	session := s.sessions.Attach(profile)
	return &AuthResult{Session: session, Profile: session.Profile(), Token: token}, nil
}

// Authenticate 登录并加载资料文档
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	writeCtx, cancel := remoteWriteContext(ctx, s.timeout)
	defer cancel()

	identity, err := s.provider.SignIn(writeCtx, email, password)
	if err != nil {
		return nil, mapAuthError(ctx, "sign_in", err)
	}
	profile, err := s.profiles.Get(writeCtx, identity.UID)
	if err != nil {
		return nil, wrapRemoteError(ctx, "load_profile", err)
	}
	if profile == nil {
		token, tokenErr := s.provider.IssueToken(writeCtx, identity, constants.RoleCustomer)
		if tokenErr != nil {
			return nil, mapAuthError(ctx, "issue_token", tokenErr)
		}
		logger.Ctx(ctx).Warnw("identity_profile_missing", "uid", identity.UID)
		return nil, &ProfileMissingError{Identity: identity, Token: token}
	}
	token, err := s.provider.IssueToken(writeCtx, identity, profile.Role)
	if err != nil {
		return nil, mapAuthError(ctx, "issue_token", err)
	}

	s.stampLastActive(ctx, identity.UID)
	session := s.sessions.Attach(profile)
	logger.Ctx(ctx).Infow("identity_authenticated", "uid", identity.UID)
	return &AuthResult{Session: session, Profile: session.Profile(), Token: token}, nil
}

// Deauthenticate 登出：吊销令牌并清空会话内存状态，不删除远端数据
func (s *IdentityService) Deauthenticate(ctx context.Context, session *Session) error {
	uid := session.UID()
	if uid == "" {
		return ErrNotAuthenticated
	}
	// 本地状态总是清除，提供方注销失败只向调用方报告
	s.sessions.Drop(uid)
	session.close()
	writeCtx, cancel := remoteWriteContext(ctx, s.timeout)
	defer cancel()
	if err := s.provider.SignOut(writeCtx, uid); err != nil {
		logger.Ctx(ctx).Warnw("identity_sign_out_failed", "uid", uid, "error", err)
		return mapAuthError(ctx, "sign_out", err)
	}
	logger.Ctx(ctx).Infow("identity_deauthenticated", "uid", uid)
	return nil
}

// ResolveSession 校验令牌并取得对应会话
func (s *IdentityService) ResolveSession(ctx context.Context, token string) (*Session, *auth.Claims, error) {
	readCtx, cancel := remoteReadContext(ctx, s.timeout)
	defer cancel()
	claims, err := s.provider.ParseToken(readCtx, token)
	if err != nil {
		return nil, nil, mapAuthError(ctx, "parse_token", err)
	}
	session, err := s.sessions.Open(ctx, claims.UID)
	if err != nil {
		return nil, claims, err
	}
	return session, claims, nil
}

// EnsureProfile 为缺失资料的身份补建资料文档
func (s *IdentityService) EnsureProfile(ctx context.Context, claims *auth.Claims, seed ProfileSeed) (*Session, error) {
	if claims == nil || strings.TrimSpace(claims.UID) == "" {
		return nil, ErrNotAuthenticated
	}
	writeCtx, cancel := remoteWriteContext(ctx, s.timeout)
	defer cancel()

	existing, err := s.profiles.Get(writeCtx, claims.UID)
	if err != nil {
		return nil, wrapRemoteError(ctx, "load_profile", err)
	}
	if existing != nil {
		return s.sessions.Attach(existing), nil
	}
	identity, err := s.provider.Lookup(writeCtx, claims.UID)
	if err != nil {
		return nil, mapAuthError(ctx, "lookup_identity", err)
	}
	now := s.now().UTC()
	displayName := strings.TrimSpace(seed.DisplayName)
	if displayName == "" {
		displayName = identity.DisplayName
	}
	profile := &models.Profile{
		UID:         identity.UID,
		Email:       identity.Email,
		DisplayName: displayName,
		Role:        constants.RoleCustomer,
		Phone:       strings.TrimSpace(seed.Phone),
		Newsletter:  seed.Newsletter,
		Addresses:   []models.Address{},
		Cart:        []models.CartLine{},
		Wishlist:    []models.WishlistItem{},
		Orders:      []string{},
		CreatedAt:   now,
		LastActive:  now,
	}
	if err := s.profiles.Create(writeCtx, profile); err != nil {
		return nil, wrapRemoteError(ctx, "create_profile", err)
	}
	logger.Ctx(ctx).Infow("identity_profile_recreated", "uid", identity.UID)
	return s.sessions.Attach(profile), nil
}

// UpdateProfile 合并资料字段；昵称同步到认证提供方
func (s *IdentityService) UpdateProfile(ctx context.Context, session *Session, patch ProfilePatch) (*models.Profile, error) {
	uid := session.UID()
	if uid == "" {
		return nil, ErrNotAuthenticated
	}
	changes := models.JSON{"last_active": s.now().UTC()}
	if patch.DisplayName != nil {
		changes["display_name"] = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.Phone != nil {
		changes["phone"] = strings.TrimSpace(*patch.Phone)
	}
	if patch.Newsletter != nil {
		changes["newsletter"] = *patch.Newsletter
	}

	writeCtx, cancel := remoteWriteContext(ctx, s.timeout)
	defer cancel()
	updated, err := s.profiles.Update(writeCtx, uid, changes)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, ErrProfileMissing
		}
		return nil, wrapRemoteError(ctx, "update_profile", err)
	}
	if patch.DisplayName != nil {
		if err := s.provider.UpdateDisplayName(writeCtx, uid, strings.TrimSpace(*patch.DisplayName)); err != nil {
			logger.Ctx(ctx).Warnw("identity_display_name_sync_failed", "uid", uid, "error", err)
		}
	}
	session.replaceProfile(updated)
	return session.Profile(), nil
}

// ChangeCredential 先用当前密码重新认证，再校验并更新新密码；旧令牌全部失效
func (s *IdentityService) ChangeCredential(ctx context.Context, session *Session, current, next string) (*auth.Token, error) {
	uid := session.UID()
	if uid == "" {
		return nil, ErrNotAuthenticated
	}
	writeCtx, cancel := remoteWriteContext(ctx, s.timeout)
	defer cancel()

	if err := s.provider.Reauthenticate(writeCtx, uid, current); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, ErrReauthenticationFailed
		}
		return nil, mapAuthError(ctx, "reauthenticate", err)
	}
	if err := auth.ValidatePassword(s.policy, next); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWeakCredential, err)
	}
	if err := s.provider.ChangePassword(writeCtx, uid, next); err != nil {
		return nil, mapAuthError(ctx, "change_password", err)
	}
	s.stampLastActive(ctx, uid)

	identity, err := s.provider.Lookup(writeCtx, uid)
	if err != nil {
		return nil, mapAuthError(ctx, "lookup_identity", err)
	}
	token, err := s.provider.IssueToken(writeCtx, identity, session.Role())
	if err != nil {
		return nil, mapAuthError(ctx, "issue_token", err)
	}
	logger.Ctx(ctx).Infow("identity_credential_changed", "uid", uid)
	return token, nil
}

// RequestPasswordReset 发送重置邮件；未知邮箱同样返回成功
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) error {
	writeCtx, cancel := remoteWriteContext(ctx, s.timeout)
	defer cancel()
	if err := s.provider.SendPasswordReset(writeCtx, email); err != nil {
		return mapAuthError(ctx, "send_password_reset", err)
	}
	return nil
}

// ConfirmPasswordReset 使用重置令牌设置新密码
func (s *IdentityService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := auth.ValidatePassword(s.policy, newPassword); err != nil {
		return fmt.Errorf("%w: %w", ErrWeakCredential, err)
	}
	writeCtx, cancel := remoteWriteContext(ctx, s.timeout)
	defer cancel()
	if err := s.provider.ConfirmPasswordReset(writeCtx, token, newPassword); err != nil {
		return mapAuthError(ctx, "confirm_password_reset", err)
	}
	return nil
}

// AddressInput 新增地址参数
type AddressInput struct {
	Address   models.Address
	IsDefault bool
}

// AddAddress 新增地址；首个地址或显式默认时成为唯一默认地址
func (s *IdentityService) AddAddress(ctx context.Context, session *Session, input AddressInput) (*models.Profile, error) {
	address := input.Address
	if !address.Complete() {
		return nil, ErrInvalidAddress
	}
	return s.mutateAddresses(ctx, session, "add_address", func(addresses []models.Address) ([]models.Address, error) {
		address.ID = uuid.NewString()
		address.FullName = strings.TrimSpace(address.FullName)
		if strings.TrimSpace(address.Country) == "" {
			address.Country = constants.DefaultCountry
		}
		address.IsDefault = input.IsDefault || len(addresses) == 0
		if address.IsDefault {
			for i := range addresses {
				addresses[i].IsDefault = false
			}
		}
		return append(addresses, address), nil
	})
}

// RemoveAddress 删除地址；删除默认地址时第一个剩余地址成为默认
func (s *IdentityService) RemoveAddress(ctx context.Context, session *Session, addressID string) (*models.Profile, error) {
	return s.mutateAddresses(ctx, session, "remove_address", func(addresses []models.Address) ([]models.Address, error) {
		index := findAddress(addresses, addressID)
		if index < 0 {
			return nil, ErrAddressNotFound
		}
		wasDefault := addresses[index].IsDefault
		addresses = append(addresses[:index], addresses[index+1:]...)
		if wasDefault && len(addresses) > 0 {
			addresses[0].IsDefault = true
		}
		return addresses, nil
	})
}

// SetDefaultAddress 设置默认地址
func (s *IdentityService) SetDefaultAddress(ctx context.Context, session *Session, addressID string) (*models.Profile, error) {
	return s.mutateAddresses(ctx, session, "set_default_address", func(addresses []models.Address) ([]models.Address, error) {
		index := findAddress(addresses, addressID)
		if index < 0 {
			return nil, ErrAddressNotFound
		}
		for i := range addresses {
			addresses[i].IsDefault = i == index
		}
		return addresses, nil
	})
}

// mutateAddresses 地址写入严格确认，远端成功后才刷新内存
func (s *IdentityService) mutateAddresses(ctx context.Context, session *Session, operation string, fn func([]models.Address) ([]models.Address, error)) (*models.Profile, error) {
	profile := session.Profile()
	if profile == nil {
		return nil, ErrNotAuthenticated
	}
	addresses, err := fn(append([]models.Address{}, profile.Addresses...))
	if err != nil {
		return nil, err
	}

	writeCtx, cancel := remoteWriteContext(ctx, s.timeout)
	defer cancel()
	updated, err := s.profiles.Update(writeCtx, profile.UID, models.JSON{
		"addresses":   addresses,
		"last_active": s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, ErrProfileMissing
		}
		return nil, wrapRemoteError(ctx, operation, err)
	}
	session.replaceProfile(updated)
	return session.Profile(), nil
}

// stampLastActive 尽力写入最近活跃时间，失败只记日志
func (s *IdentityService) stampLastActive(ctx context.Context, uid string) {
	writeCtx, cancel := remoteWriteContext(ctx, s.timeout)
	defer cancel()
	if _, err := s.profiles.Update(writeCtx, uid, models.JSON{"last_active": s.now().UTC()}); err != nil {
		logger.Ctx(ctx).Warnw("profile_last_active_write_failed", "uid", uid, "error", err)
	}
}

func findAddress(addresses []models.Address, addressID string) int {
	addressID = strings.TrimSpace(addressID)
	for i := range addresses {
		if addresses[i].ID == addressID {
			return i
		}
	}
	return -1
}

func resolveSeedRole(seed ProfileSeed) string {
	role := strings.ToLower(strings.TrimSpace(seed.Role))
	switch role {
	case constants.RoleAdmin, constants.RoleVendor:
		if seed.ProvisioningVerified {
			return role
		}
	}
	return constants.RoleCustomer
}
