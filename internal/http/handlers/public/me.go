package public

import (
	"github.com/lumenshop/storefront/internal/http/response"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateProfileRequest 修改资料请求，未传字段保持不变
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Phone       *string `json:"phone"`
	Newsletter  *bool   `json:"newsletter"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// AddAddressRequest 新增地址请求
type AddAddressRequest struct {
	models.Address
	MakeDefault bool `json:"make_default"`
}

// GetProfile 当前用户资料
func (h *Handler) GetProfile(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	response.Success(c, session.Profile())
}

// UpdateProfile 修改资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	profile, err := h.IdentityService.UpdateProfile(c.Request.Context(), session, service.ProfilePatch{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Newsletter:  req.Newsletter,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, profile)
}

// ChangePassword 修改密码并换发令牌
func (h *Handler) ChangePassword(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	token, err := h.IdentityService.ChangeCredential(c.Request.Context(), session, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":      token.Value,
		"expires_at": token.ExpiresAt,
	})
}

// ListAddresses 地址簿
func (h *Handler) ListAddresses(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	addresses := session.Profile().Addresses
	if addresses == nil {
		addresses = []models.Address{}
	}
	response.Success(c, addresses)
}

// AddAddress 新增地址
func (h *Handler) AddAddress(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req AddAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	profile, err := h.IdentityService.AddAddress(c.Request.Context(), session, service.AddressInput{
		Address:   req.Address,
		IsDefault: req.MakeDefault || req.Address.IsDefault,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, profile.Addresses)
}

// RemoveAddress 删除地址
func (h *Handler) RemoveAddress(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	profile, err := h.IdentityService.RemoveAddress(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, profile.Addresses)
}

// SetDefaultAddress 设为默认地址
func (h *Handler) SetDefaultAddress(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	profile, err := h.IdentityService.SetDefaultAddress(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, profile.Addresses)
}
