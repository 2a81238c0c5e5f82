package models

import "time"

// Credential 认证账号表（邮箱 + 密码）
type Credential struct {
	ID                uint       `gorm:"primarykey" json:"-"`                       // 主键
	UID               string     `gorm:"uniqueIndex;size:64;not null" json:"uid"`   // 身份 ID
	Email             string     `gorm:"uniqueIndex;size:255;not null" json:"email"` // 邮箱（小写）
	PasswordHash      string     `gorm:"not null" json:"-"`                          // 密码哈希
	DisplayName       string     `gorm:"default:''" json:"display_name"`             // 昵称
	TokenVersion      uint64     `gorm:"not null;default:0" json:"-"`                // Token 版本（用于全量失效）
	PasswordChangedAt *time.Time `json:"-"`                                          // 最近修改密码时间
	LastLoginAt       *time.Time `json:"last_login_at"`                              // 最后登录时间
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt         time.Time  `json:"updated_at"`                                 // 更新时间
}

// TableName 指定表名
func (Credential) TableName() string {
	return "credentials"
}

// PasswordResetToken 重置密码令牌表
type PasswordResetToken struct {
	ID        uint       `gorm:"primarykey"`
	UID       string     `gorm:"index;size:64;not null"`        // 身份 ID
	TokenHash string     `gorm:"uniqueIndex;size:128;not null"` // 令牌 SHA-256
	ExpiresAt time.Time  `gorm:"index;not null"`                // 过期时间
	UsedAt    *time.Time                                        // 使用时间
	CreatedAt time.Time
}

// TableName 指定表名
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
