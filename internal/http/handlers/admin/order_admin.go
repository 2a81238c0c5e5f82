package admin

import (
	"strings"
	"time"

	handlershared "github.com/lumenshop/storefront/internal/http/handlers/shared"
	"github.com/lumenshop/storefront/internal/http/response"
	"github.com/lumenshop/storefront/internal/i18n"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminOrderItem 管理端订单返回
type AdminOrderItem struct {
	models.Order
	StatusLabel string `json:"status_label"`
}

// AdminUpdateOrderRequest 管理端订单变更请求
type AdminUpdateOrderRequest struct {
	Status            string     `json:"status" binding:"required"`
	TrackingNumber    *string    `json:"tracking_number"`
	Carrier           *string    `json:"carrier"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	orders, total, err := h.OrderAdminService.List(c.Request.Context(), service.AdminOrderListInput{
		Page:      page,
		PageSize:  pageSize,
		Status:    c.Query("status"),
		Search:    c.Query("search"),
		DateRange: c.Query("date_range"),
	})
	if err != nil {
		respondAdminServiceError(c, err)
		return
	}
	locale := i18n.ResolveLocale(c)
	items := make([]AdminOrderItem, 0, len(orders))
	for _, order := range orders {
		items = append(items, adminOrderItem(locale, order))
	}
	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	order, err := h.OrderAdminService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondAdminServiceError(c, err)
		return
	}
	response.Success(c, adminOrderItem(i18n.ResolveLocale(c), *order))
}

// AdminUpdateOrder 管理端更新订单状态与物流信息
func (h *Handler) AdminUpdateOrder(c *gin.Context) {
	var req AdminUpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	orderID := strings.TrimSpace(c.Param("id"))
	order, err := h.OrderAdminService.UpdateStatus(c.Request.Context(), orderID, service.AdminStatusUpdate{
		Status:            req.Status,
		TrackingNumber:    req.TrackingNumber,
		Carrier:           req.Carrier,
		EstimatedDelivery: req.EstimatedDelivery,
	})
	if err != nil {
		respondAdminServiceError(c, err)
		return
	}
	operatorUID, operatorRole := currentOperator(c)
	requestLog(c).Infow("admin_order_updated",
		"order_id", orderID,
		"status", order.Status,
		"operator_uid", operatorUID,
		"operator_role", operatorRole,
	)
	response.Success(c, adminOrderItem(i18n.ResolveLocale(c), *order))
}

func adminOrderItem(locale string, order models.Order) AdminOrderItem {
	return AdminOrderItem{Order: order, StatusLabel: i18n.T(locale, "order.status."+order.Status)}
}
