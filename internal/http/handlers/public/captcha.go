package public

import (
	"github.com/lumenshop/storefront/internal/constants"
	"github.com/lumenshop/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetCaptchaConfig 验证码开关
func (h *Handler) GetCaptchaConfig(c *gin.Context) {
	response.Success(c, gin.H{
		"enabled": h.CaptchaService.Enabled(),
		"scenes": gin.H{
			"login":    h.CaptchaService.IsSceneEnabled(constants.CaptchaSceneLogin),
			"register": h.CaptchaService.IsSceneEnabled(constants.CaptchaSceneRegister),
		},
	})
}

// GetImageCaptcha 生成图片验证码
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	if !h.CaptchaService.Enabled() {
		respondError(c, response.CodeBadRequest, "error.captcha_disabled", nil)
		return
	}
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, challenge)
}
