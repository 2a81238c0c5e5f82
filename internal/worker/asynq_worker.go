package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/lumenshop/storefront/internal/auth"
	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/i18n"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/provider"
	"github.com/lumenshop/storefront/internal/queue"
	"github.com/lumenshop/storefront/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
	mux.HandleFunc(queue.TaskPasswordResetEmail, c.handlePasswordResetEmail)
}

func (c *Consumer) handleOrderStatusEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return err
	}
	if strings.TrimSpace(payload.OrderID) == "" {
		logger.Debugw("worker_order_status_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(ctx, payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_email_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_email_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}

	var profile *models.Profile
	if strings.TrimSpace(order.ShippingAddress.Email) == "" {
		profile, err = c.ProfileRepo.Get(ctx, order.UserID)
		if err != nil {
			logger.Warnw("worker_order_status_email_fetch_profile_failed", "order_id", order.ID, "uid", order.UserID, "error", err)
			return err
		}
	}
	receiverEmail := resolveOrderReceiver(order, profile)
	if receiverEmail == "" {
		logger.Debugw("worker_order_status_email_skip_empty_receiver", "order_id", order.ID)
		return nil
	}
	if c.EmailService == nil || !c.EmailService.Enabled() {
		logger.Debugw("worker_order_status_email_skip_email_disabled", "order_id", order.ID)
		return nil
	}

	input := buildOrderStatusEmailInput(order, payload.Status)
	if err := c.EmailService.SendOrderStatusEmail(receiverEmail, input, i18n.LocaleZH); err != nil {
		logger.Warnw("worker_order_status_email_send_failed",
			"order_id", order.ID,
			"receiver_email", receiverEmail,
			"status", input.Status,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handlePasswordResetEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.PasswordResetEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_password_reset_email_unmarshal_failed", "error", err)
		return err
	}
	email := strings.TrimSpace(payload.Email)
	if email == "" || strings.TrimSpace(payload.Token) == "" {
		logger.Debugw("worker_password_reset_email_skip_invalid_payload")
		return nil
	}
	if c.EmailService == nil || !c.EmailService.Enabled() {
		logger.Warnw("worker_password_reset_email_skip_email_disabled")
		return nil
	}
	if err := c.EmailService.SendPasswordResetEmail(email, payload.Token, i18n.LocaleZH, auth.ResetTokenTTL); err != nil {
		logger.Warnw("worker_password_reset_email_send_failed", "error", err)
		return err
	}
	return nil
}

// resolveOrderReceiver 收件人优先使用收货地址邮箱，其次为资料邮箱
func resolveOrderReceiver(order *models.Order, profile *models.Profile) string {
	if order == nil {
		return ""
	}
	if email := strings.TrimSpace(order.ShippingAddress.Email); email != "" {
		return email
	}
	if profile != nil {
		return strings.TrimSpace(profile.Email)
	}
	return ""
}

// buildOrderStatusEmailInput 入队时的状态优先，缺省取订单当前状态
func buildOrderStatusEmailInput(order *models.Order, status string) service.OrderStatusEmailInput {
	status = strings.TrimSpace(status)
	if status == "" {
		status = order.Status
	}
	input := service.OrderStatusEmailInput{
		OrderID: order.ID,
		Status:  status,
		Total:   order.Total,
		Placed:  status == constants.OrderStatusPending,
	}
	if order.TrackingNumber != nil {
		input.TrackingNumber = strings.TrimSpace(*order.TrackingNumber)
	}
	if order.Carrier != nil {
		input.Carrier = strings.TrimSpace(*order.Carrier)
	}
	return input
}
