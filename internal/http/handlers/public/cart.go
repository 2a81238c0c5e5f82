package public

import (
	"github.com/lumenshop/storefront/internal/http/response"
	"github.com/lumenshop/storefront/internal/i18n"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// CartLineRequest 购物车行请求
type CartLineRequest struct {
	ProductID string            `json:"product_id" binding:"required"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options"`
}

// WishlistRequest 心愿单请求
type WishlistRequest struct {
	ProductID string            `json:"product_id" binding:"required"`
	Options   map[string]string `json:"options"`
}

// GetCart 当前购物车与合计
func (h *Handler) GetCart(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	response.Success(c, cartPayload(c, h.Managers.Cart(session).State()))
}

// AddCartLine 加入购物车，价格以商品目录为准
func (h *Handler) AddCartLine(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req CartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	ctx := c.Request.Context()
	snapshot, err := h.CatalogService.Snapshot(ctx, req.ProductID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	state, err := h.Managers.Cart(session).AddLine(ctx, snapshot, req.Quantity, req.Options)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, cartPayload(c, state))
}

// UpdateCartLine 修改数量，数量为 0 时移除
func (h *Handler) UpdateCartLine(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req CartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	state, err := h.Managers.Cart(session).SetQuantity(c.Request.Context(), req.ProductID, req.Options, req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, cartPayload(c, state))
}

// RemoveCartLine 移除购物车行
func (h *Handler) RemoveCartLine(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req CartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	state, err := h.Managers.Cart(session).RemoveLine(c.Request.Context(), req.ProductID, req.Options)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, cartPayload(c, state))
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	state, err := h.Managers.Cart(session).Clear(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, cartPayload(c, state))
}

// GetWishlist 心愿单
func (h *Handler) GetWishlist(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	response.Success(c, gin.H{"items": h.Managers.Cart(session).Wishlist()})
}

// ToggleWishlist 加入或移出心愿单
func (h *Handler) ToggleWishlist(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req WishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	ctx := c.Request.Context()
	cart := h.Managers.Cart(session)
	var state *service.WishlistState
	var err error
	if cart.InWishlist(req.ProductID) {
		// 已下架商品也允许移出
		state, err = cart.ToggleWishlist(ctx, models.ProductSnapshot{ProductID: req.ProductID})
	} else {
		snapshot, snapErr := h.CatalogService.Snapshot(ctx, req.ProductID)
		if snapErr != nil {
			respondServiceError(c, snapErr)
			return
		}
		state, err = cart.ToggleWishlist(ctx, snapshot)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	data := gin.H{"items": state.Items, "in_wishlist": state.InWishlist, "synced": state.Warning == nil}
	if state.Warning != nil {
		data["warning"] = i18n.T(i18n.ResolveLocale(c), "error.cart_sync_failed")
	}
	response.Success(c, data)
}

// MoveWishlistToCart 心愿单商品移入购物车
func (h *Handler) MoveWishlistToCart(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req WishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	state, err := h.Managers.Cart(session).MoveToCart(c.Request.Context(), req.ProductID, req.Options)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, cartPayload(c, state))
}

func cartPayload(c *gin.Context, state *service.CartState) gin.H {
	data := gin.H{
		"lines":      state.Lines,
		"totals":     state.Totals,
		"line_count": service.LineCount(state.Lines),
		"synced":     state.Warning == nil,
	}
	if state.Warning != nil {
		data["warning"] = i18n.T(i18n.ResolveLocale(c), "error.cart_sync_failed")
	}
	return data
}
