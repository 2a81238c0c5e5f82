package admin

import (
	"strconv"

	"github.com/lumenshop/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetDashboardOverview 获取后台仪表盘总览，refresh=true 时跳过缓存
func (h *Handler) GetDashboardOverview(c *gin.Context) {
	forceRefresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	data, err := h.DashboardService.Overview(c.Request.Context(), forceRefresh)
	if err != nil {
		respondAdminServiceError(c, err)
		return
	}
	response.Success(c, data)
}
