package admin

import (
	"errors"

	handlershared "github.com/lumenshop/storefront/internal/http/handlers/shared"
	"github.com/lumenshop/storefront/internal/http/response"
	"github.com/lumenshop/storefront/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// respondAdminServiceError 管理端业务错误映射
func respondAdminServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(c, response.CodeNotFound, "error.order_not_found", nil)
	case errors.Is(err, service.ErrProductNotFound):
		respondError(c, response.CodeNotFound, "error.product_not_found", nil)
	case errors.Is(err, service.ErrInvalidStatus):
		respondError(c, response.CodeBadRequest, "error.invalid_status", nil)
	case errors.Is(err, service.ErrInvalidTransition):
		respondError(c, response.CodeBadRequest, "error.invalid_transition", nil)
	case errors.Is(err, service.ErrInvalidProduct):
		respondError(c, response.CodeBadRequest, "error.invalid_product", nil)
	case errors.Is(err, service.ErrOrderConflict):
		respondError(c, response.CodeConflict, "error.order_conflict", nil)
	case errors.Is(err, service.ErrRemoteUnavailable):
		respondError(c, response.CodeServiceUnavailable, "error.remote_unavailable", err)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}
