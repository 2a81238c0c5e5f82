package public

import (
	handlershared "github.com/lumenshop/storefront/internal/http/handlers/shared"
	"github.com/lumenshop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

func requireSession(c *gin.Context) (*service.Session, bool) {
	return handlershared.RequireSession(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondErrorWithMsg(c, code, msg, err)
}

// CaptchaPayloadRequest 验证码请求载荷
type CaptchaPayloadRequest = handlershared.CaptchaPayloadRequest
