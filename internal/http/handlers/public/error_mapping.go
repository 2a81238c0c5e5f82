package public

import (
	"errors"

	"github.com/lumenshop/storefront/internal/http/response"
	"github.com/lumenshop/storefront/internal/i18n"
	"github.com/lumenshop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

// 具体的未找到错误需排在 ErrNotFound 之前。
var serviceErrorRules = []mappedHandlerError{
	{target: service.ErrNotAuthenticated, code: response.CodeUnauthorized, key: "error.not_authenticated"},
	{target: service.ErrProfileMissing, code: response.CodeConflict, key: "error.profile_missing"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrAddressNotFound, code: response.CodeNotFound, key: "error.address_not_found"},
	{target: service.ErrProfileNotFound, code: response.CodeNotFound, key: "error.profile_not_found"},
	{target: service.ErrNotFound, code: response.CodeNotFound, key: "error.not_found"},
	{target: service.ErrInvalidTransition, code: response.CodeBadRequest, key: "error.invalid_transition"},
	{target: service.ErrEmptyOrder, code: response.CodeBadRequest, key: "error.empty_order"},
	{target: service.ErrDuplicateIdentity, code: response.CodeConflict, key: "error.duplicate_identity"},
	{target: service.ErrInvalidCredential, code: response.CodeUnauthorized, key: "error.invalid_credential"},
	{target: service.ErrReauthenticationFailed, code: response.CodeUnauthorized, key: "error.reauthentication_failed"},
	{target: service.ErrRemoteUnavailable, code: response.CodeServiceUnavailable, key: "error.remote_unavailable"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, key: "error.invalid_email"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, key: "error.invalid_quantity"},
	{target: service.ErrInvalidProduct, code: response.CodeBadRequest, key: "error.invalid_product"},
	{target: service.ErrInvalidStatus, code: response.CodeBadRequest, key: "error.invalid_status"},
	{target: service.ErrOrderConflict, code: response.CodeConflict, key: "error.order_conflict"},
	{target: service.ErrInvalidAddress, code: response.CodeBadRequest, key: "error.invalid_address"},
	{target: service.ErrInvalidPayment, code: response.CodeBadRequest, key: "error.invalid_payment"},
	{target: service.ErrInvalidResetToken, code: response.CodeBadRequest, key: "error.invalid_reset_token"},
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, key: "error.captcha_required"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, key: "error.captcha_invalid"},
	{target: service.ErrCaptchaConfigInvalid, code: response.CodeInternal, key: "error.captcha_config_invalid"},
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			// 远程不可用与配置错误需要留痕
			var logged error
			if rule.code >= response.CodeInternal {
				logged = err
			}
			respondError(c, rule.code, rule.key, logged)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

// respondServiceError 按统一规则输出业务错误；密码策略错误带参数文案
func respondServiceError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrWeakCredential) {
		var policyErr interface {
			Key() string
			Args() []interface{}
		}
		if errors.As(err, &policyErr) {
			msg := i18n.Sprintf(i18n.ResolveLocale(c), policyErr.Key(), policyErr.Args()...)
			respondErrorWithMsg(c, response.CodeBadRequest, msg, nil)
			return
		}
		respondError(c, response.CodeBadRequest, "error.weak_credential", nil)
		return
	}
	respondWithMappedError(c, err, serviceErrorRules, response.CodeInternal, "error.internal")
}
