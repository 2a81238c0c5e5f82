package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lumenshop/storefront/internal/models"

	"gorm.io/gorm"
)

// CredentialRepository 认证账号数据访问接口
type CredentialRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Credential, error)
	GetByUID(ctx context.Context, uid string) (*models.Credential, error)
	Create(ctx context.Context, credential *models.Credential) error
	Update(ctx context.Context, credential *models.Credential) error
	CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error
	GetResetToken(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error)
	ConsumeResetToken(ctx context.Context, id uint, usedAt time.Time) (bool, error)
}

// GormCredentialRepository GORM 实现
type GormCredentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository 创建账号仓库
func NewCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCredentialRepository) WithTx(tx *gorm.DB) *GormCredentialRepository {
	if tx == nil {
		return r
	}
	return &GormCredentialRepository{db: tx}
}

// GetByEmail 根据邮箱获取账号（邮箱不区分大小写）
func (r *GormCredentialRepository) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	var credential models.Credential
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("email = ?", normalized).First(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &credential, nil
}

// GetByUID 根据身份 ID 获取账号
func (r *GormCredentialRepository) GetByUID(ctx context.Context, uid string) (*models.Credential, error) {
	var credential models.Credential
	if err := r.db.WithContext(ctx).Where("uid = ?", strings.TrimSpace(uid)).First(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &credential, nil
}

// Create 创建账号
func (r *GormCredentialRepository) Create(ctx context.Context, credential *models.Credential) error {
	return r.db.WithContext(ctx).Create(credential).Error
}

// Update 更新账号
func (r *GormCredentialRepository) Update(ctx context.Context, credential *models.Credential) error {
	return r.db.WithContext(ctx).Save(credential).Error
}

// CreateResetToken 保存重置密码令牌
func (r *GormCredentialRepository) CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetResetToken 根据哈希获取重置令牌
func (r *GormCredentialRepository) GetResetToken(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

// ConsumeResetToken 标记令牌已使用，仅首次调用返回 true
func (r *GormCredentialRepository) ConsumeResetToken(ctx context.Context, id uint, usedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PasswordResetToken{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", usedAt)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
