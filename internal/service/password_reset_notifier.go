package service

import (
	"context"

	"github.com/lumenshop/storefront/internal/auth"
	"github.com/lumenshop/storefront/internal/i18n"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/queue"
)

// PasswordResetNotifier 投递重置密码邮件：队列可用时异步，否则直接发送
type PasswordResetNotifier struct {
	queue *queue.Client
	email *EmailService
}

// NewPasswordResetNotifier 创建重置密码通知器
func NewPasswordResetNotifier(queueClient *queue.Client, email *EmailService) *PasswordResetNotifier {
	return &PasswordResetNotifier{queue: queueClient, email: email}
}

// NotifyPasswordReset 实现 auth.ResetNotifier
func (n *PasswordResetNotifier) NotifyPasswordReset(ctx context.Context, email, token string) error {
	if n == nil {
		return nil
	}
	if n.queue.Enabled() {
		return n.queue.EnqueuePasswordResetEmail(ctx, queue.PasswordResetEmailPayload{Email: email, Token: token})
	}
	if !n.email.Enabled() {
		logger.Ctx(ctx).Warnw("password_reset_email_skipped", "reason", "email_disabled")
		return nil
	}
	return n.email.SendPasswordResetEmail(email, token, i18n.LocaleZH, auth.ResetTokenTTL)
}
