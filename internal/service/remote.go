package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/lumenshop/storefront/internal/auth"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/telemetry"
)

const defaultRemoteTimeout = 15 * time.Second

// remoteReadContext 读操作：跟随调用方取消，并附加超时
func remoteReadContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// remoteWriteContext 写操作：调用方离开后仍会完成，只受超时约束
func remoteWriteContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// isRemoteUnavailable 判断是否属于超时或网络不可达
func isRemoteUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, auth.ErrProviderUnavailable) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// wrapRemoteError 统一包装远端错误
func wrapRemoteError(ctx context.Context, operation string, err error) error {
	if err == nil {
		return nil
	}
	if isRemoteUnavailable(err) {
		telemetry.RecordRemoteUnavailable(ctx, operation)
		logger.Ctx(ctx).Warnw("remote_unavailable", "operation", operation, "error", err)
		return fmt.Errorf("%w: %s", ErrRemoteUnavailable, operation)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// mapAuthError 将认证提供方错误转换为服务层错误
func mapAuthError(ctx context.Context, operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrEmailInUse):
		return ErrDuplicateIdentity
	case errors.Is(err, auth.ErrWeakPassword):
		return fmt.Errorf("%w: %w", ErrWeakCredential, err)
	case errors.Is(err, auth.ErrInvalidEmail):
		return ErrInvalidEmail
	case errors.Is(err, auth.ErrInvalidCredentials):
		return ErrInvalidCredential
	case errors.Is(err, auth.ErrResetTokenInvalid):
		return ErrInvalidResetToken
	case errors.Is(err, auth.ErrIdentityNotFound):
		return ErrNotAuthenticated
	case errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, auth.ErrTokenRevoked):
		return ErrNotAuthenticated
	default:
		return wrapRemoteError(ctx, operation, err)
	}
}
