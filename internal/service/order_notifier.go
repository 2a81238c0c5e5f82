package service

import (
	"context"
	"time"

	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/queue"
)

// OrderNotifier 订单生命周期通知；订单已持久化，通知失败不影响结果
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
	OrderStatusChanged(ctx context.Context, order *models.Order, previous string)
}

// EventPublisher 事件总线发布接口
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// OrderEvent 订单生命周期事件
type OrderEvent struct {
	Type           string       `json:"type"`
	OrderID        string       `json:"order_id"`
	UserID         string       `json:"user_id"`
	Status         string       `json:"status"`
	PreviousStatus string       `json:"previous_status,omitempty"`
	Total          models.Money `json:"total"`
	ItemCount      int          `json:"item_count"`
	OccurredAt     time.Time    `json:"occurred_at"`
}

// OrderNotifiers 组合多个通知器
type OrderNotifiers []OrderNotifier

// OrderPlaced 依次通知
func (n OrderNotifiers) OrderPlaced(ctx context.Context, order *models.Order) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.OrderPlaced(ctx, order)
		}
	}
}

// OrderStatusChanged 依次通知
func (n OrderNotifiers) OrderStatusChanged(ctx context.Context, order *models.Order, previous string) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.OrderStatusChanged(ctx, order, previous)
		}
	}
}

// OrderEmailNotifier 通过队列投递订单状态邮件
type OrderEmailNotifier struct {
	queue *queue.Client
}

// NewOrderEmailNotifier 创建邮件通知器
func NewOrderEmailNotifier(queueClient *queue.Client) *OrderEmailNotifier {
	return &OrderEmailNotifier{queue: queueClient}
}

// OrderPlaced 下单确认邮件
func (n *OrderEmailNotifier) OrderPlaced(ctx context.Context, order *models.Order) {
	n.enqueue(ctx, order)
}

// OrderStatusChanged 状态变更邮件
func (n *OrderEmailNotifier) OrderStatusChanged(ctx context.Context, order *models.Order, _ string) {
	n.enqueue(ctx, order)
}

func (n *OrderEmailNotifier) enqueue(ctx context.Context, order *models.Order) {
	if n == nil || !n.queue.Enabled() || order == nil {
		return
	}
	if err := n.queue.EnqueueOrderStatusEmail(context.WithoutCancel(ctx), queue.OrderStatusEmailPayload{
		OrderID: order.ID,
		Status:  order.Status,
	}); err != nil {
		logger.Ctx(ctx).Warnw("order_status_email_enqueue_failed",
			"order_id", order.ID,
			"status", order.Status,
			"error", err,
		)
	}
}

// OrderEventNotifier 将订单事件发布到事件总线
type OrderEventNotifier struct {
	publisher EventPublisher
	timeout   time.Duration
}

// NewOrderEventNotifier 创建事件通知器
func NewOrderEventNotifier(publisher EventPublisher, timeout time.Duration) *OrderEventNotifier {
	return &OrderEventNotifier{publisher: publisher, timeout: timeout}
}

// OrderPlaced 发布 order.created
func (n *OrderEventNotifier) OrderPlaced(ctx context.Context, order *models.Order) {
	n.publish(ctx, newOrderEvent(constants.OrderEventCreated, order, ""))
}

// OrderStatusChanged 发布 order.status_changed
func (n *OrderEventNotifier) OrderStatusChanged(ctx context.Context, order *models.Order, previous string) {
	n.publish(ctx, newOrderEvent(constants.OrderEventStatusChanged, order, previous))
}

func (n *OrderEventNotifier) publish(ctx context.Context, event OrderEvent) {
	if n == nil || n.publisher == nil {
		return
	}
	publishCtx, cancel := remoteWriteContext(ctx, n.timeout)
	defer cancel()
	if err := n.publisher.Publish(publishCtx, event.OrderID, event); err != nil {
		logger.Ctx(ctx).Warnw("order_event_publish_failed",
			"type", event.Type,
			"order_id", event.OrderID,
			"error", err,
		)
	}
}

func newOrderEvent(eventType string, order *models.Order, previous string) OrderEvent {
	return OrderEvent{
		Type:           eventType,
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         order.Status,
		PreviousStatus: previous,
		Total:          order.Total,
		ItemCount:      order.ItemCount(),
		OccurredAt:     time.Now().UTC(),
	}
}
