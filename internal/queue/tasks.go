package queue

import (
	"encoding/json"

	"github.com/lumenshop/storefront/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusEmail 订单状态邮件通知任务
	TaskOrderStatusEmail = constants.TaskOrderStatusEmail
	// TaskPasswordResetEmail 重置密码邮件任务
	TaskPasswordResetEmail = constants.TaskPasswordResetEmail
)

// OrderStatusEmailPayload 订单状态邮件任务载荷
type OrderStatusEmailPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// PasswordResetEmailPayload 重置密码邮件任务载荷
type PasswordResetEmailPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// NewOrderStatusEmailTask 创建订单状态邮件任务
func NewOrderStatusEmailTask(payload OrderStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusEmail, body), nil
}

// NewPasswordResetEmailTask 创建重置密码邮件任务
func NewPasswordResetEmailTask(payload PasswordResetEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPasswordResetEmail, body, asynq.MaxRetry(3)), nil
}
