package public

import (
	"github.com/lumenshop/storefront/internal/http/response"
	"github.com/lumenshop/storefront/internal/i18n"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结账请求，未提供账单地址时使用收货地址
type CheckoutRequest struct {
	ShippingAddress models.Address       `json:"shipping_address" binding:"required"`
	BillingAddress  *models.Address      `json:"billing_address"`
	Payment         service.PaymentInput `json:"payment" binding:"required"`
}

// Checkout 用当前购物车下单
func (h *Handler) Checkout(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input := service.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
		Payment:         req.Payment,
	}
	if req.BillingAddress != nil {
		input.BillingAddress = *req.BillingAddress
	}
	result, err := h.Managers.Orders(session).Checkout(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"order": result.Order,
		"cart":  cartPayload(c, result.Cart),
	})
}

// ListOrders 我的订单，按时间倒序
func (h *Handler) ListOrders(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	orders, err := h.Managers.Orders(session).ListOrdersForIdentity(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, orderViews(c, orders))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	order, err := h.Managers.Orders(session).GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, orderView(c, *order))
}

// CancelOrder 取消待处理订单
func (h *Handler) CancelOrder(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	order, err := h.Managers.Orders(session).Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, orderView(c, *order))
}

// Reorder 历史订单重新加入购物车
func (h *Handler) Reorder(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	state, err := h.Managers.Orders(session).Reorder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, cartPayload(c, state))
}

// OrderView 订单展示结构，附带本地化状态文案
type OrderView struct {
	models.Order
	StatusLabel string `json:"status_label"`
}

func orderView(c *gin.Context, order models.Order) OrderView {
	locale := i18n.ResolveLocale(c)
	return OrderView{Order: order, StatusLabel: i18n.T(locale, "order.status."+order.Status)}
}

func orderViews(c *gin.Context, orders []models.Order) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, orderView(c, order))
	}
	return views
}
