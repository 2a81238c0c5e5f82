package public

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/lumenshop/storefront/internal/constants"
	handlershared "github.com/lumenshop/storefront/internal/http/handlers/shared"
	"github.com/lumenshop/storefront/internal/http/response"
	"github.com/lumenshop/storefront/internal/i18n"
	"github.com/lumenshop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email            string                `json:"email" binding:"required"`
	Password         string                `json:"password" binding:"required"`
	DisplayName      string                `json:"display_name"`
	Phone            string                `json:"phone"`
	Newsletter       bool                  `json:"newsletter"`
	Role             string                `json:"role"`
	ProvisioningCode string                `json:"provisioning_code"`
	CaptchaPayload   CaptchaPayloadRequest `json:"captcha_payload"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email          string                `json:"email" binding:"required"`
	Password       string                `json:"password" binding:"required"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// EnsureProfileRequest 补建资料请求
type EnsureProfileRequest struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Newsletter  bool   `json:"newsletter"`
}

// PasswordResetRequest 申请重置密码
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// PasswordResetConfirmRequest 确认重置密码
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Register 注册账号并建立会话
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if !h.verifyCaptcha(c, constants.CaptchaSceneRegister, req.CaptchaPayload) {
		return
	}

	seed := service.ProfileSeed{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Newsletter:  req.Newsletter,
		Role:        req.Role,
	}
	if code := strings.TrimSpace(req.ProvisioningCode); code != "" {
		expected := strings.TrimSpace(h.Config.Security.ProvisioningCode)
		if expected == "" || subtle.ConstantTimeCompare([]byte(code), []byte(expected)) != 1 {
			respondError(c, response.CodeForbidden, "error.provisioning_code_invalid", nil)
			return
		}
		seed.ProvisioningVerified = true
	}

	result, err := h.IdentityService.Register(c.Request.Context(), req.Email, req.Password, seed)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	response.Success(c, authPayload(result))
}

// Login 邮箱密码登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if !h.verifyCaptcha(c, constants.CaptchaSceneLogin, req.CaptchaPayload) {
		return
	}

	result, err := h.IdentityService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	response.Success(c, authPayload(result))
}

// Logout 退出登录，保留账号下的购物车
func (h *Handler) Logout(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	if err := h.IdentityService.Deauthenticate(c.Request.Context(), session); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"signed_out": true})
}

// EnsureProfile 为资料缺失的身份补建资料
func (h *Handler) EnsureProfile(c *gin.Context) {
	claims := handlershared.ClaimsFromContext(c)
	if claims == nil {
		respondError(c, response.CodeUnauthorized, "error.not_authenticated", nil)
		return
	}
	var req EnsureProfileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	session, err := h.IdentityService.EnsureProfile(c.Request.Context(), claims, service.ProfileSeed{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Newsletter:  req.Newsletter,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"profile": session.Profile()})
}

// RequestPasswordReset 发送重置密码邮件；未注册邮箱同样返回成功
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.IdentityService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"sent": true})
}

// ConfirmPasswordReset 使用重置令牌设置新密码
func (h *Handler) ConfirmPasswordReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.IdentityService.ConfirmPasswordReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"reset": true})
}

// respondAuthError 资料缺失时返回令牌，客户端据此调用补建接口
func (h *Handler) respondAuthError(c *gin.Context, err error) {
	var missing *service.ProfileMissingError
	if errors.As(err, &missing) {
		data := gin.H{"profile_missing": true}
		if missing.Token != nil {
			data["token"] = missing.Token.Value
			data["expires_at"] = missing.Token.ExpiresAt
		}
		if missing.Identity != nil {
			handlershared.RequestLog(c).Warnw("auth_profile_missing", "uid", missing.Identity.UID)
		}
		response.ErrorWithData(c, response.CodeConflict, i18n.T(i18n.ResolveLocale(c), "error.profile_missing"), data)
		return
	}
	respondServiceError(c, err)
}

func (h *Handler) verifyCaptcha(c *gin.Context, scene string, payload CaptchaPayloadRequest) bool {
	if h.CaptchaService == nil {
		return true
	}
	if err := h.CaptchaService.Verify(scene, payload.ToServicePayload()); err != nil {
		respondServiceError(c, err)
		return false
	}
	return true
}

func authPayload(result *service.AuthResult) gin.H {
	data := gin.H{"profile": result.Profile}
	if result.Token != nil {
		data["token"] = result.Token.Value
		data["expires_at"] = result.Token.ExpiresAt
	}
	return data
}
