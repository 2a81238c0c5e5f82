package public

import (
	handlershared "github.com/lumenshop/storefront/internal/http/handlers/shared"
	"github.com/lumenshop/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListProducts 商品列表，支持分类与关键字
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	products, total, err := h.CatalogService.ListPublic(c.Request.Context(), c.Query("category"), c.Query("search"), page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.CatalogService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, product)
}
