package admin

import (
	"strings"

	"github.com/lumenshop/storefront/internal/http/response"
	"github.com/lumenshop/storefront/internal/models"

	"github.com/gin-gonic/gin"
)

// AdminSaveProduct 新增或覆盖商品；路径 id 优先
func (h *Handler) AdminSaveProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if id := strings.TrimSpace(c.Param("id")); id != "" {
		product.ID = id
	}
	if err := h.CatalogService.Save(c.Request.Context(), &product); err != nil {
		respondAdminServiceError(c, err)
		return
	}
	response.Success(c, product)
}
