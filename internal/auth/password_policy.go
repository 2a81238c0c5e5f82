package auth

import (
	"strings"

	"github.com/lumenshop/storefront/internal/config"
)

const defaultMinPasswordLength = 6

type passwordPolicyError struct {
	key  string
	args []interface{}
}

func (e passwordPolicyError) Error() string {
	return e.key
}

func (e passwordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

// Key 返回 i18n 文案键
func (e passwordPolicyError) Key() string {
	return e.key
}

// Args 返回文案参数
func (e passwordPolicyError) Args() []interface{} {
	return e.args
}

// ValidatePassword 按策略校验密码
func ValidatePassword(policy config.PasswordPolicyConfig, password string) error {
	minLength := policy.MinLength
	if minLength <= 0 {
		minLength = defaultMinPasswordLength
	}
	if strings.TrimSpace(password) == "" || len([]rune(password)) < minLength {
		return passwordPolicyError{key: "error.password_min_length", args: []interface{}{minLength}}
	}
	return nil
}
