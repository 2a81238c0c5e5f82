package router

import (
	"errors"
	"strings"
	"time"

	"github.com/lumenshop/storefront/internal/authz"
	"github.com/lumenshop/storefront/internal/config"
	handlershared "github.com/lumenshop/storefront/internal/http/handlers/shared"
	"github.com/lumenshop/storefront/internal/http/response"
	"github.com/lumenshop/storefront/internal/i18n"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = response.RequestIDKey
const requestIDHeader = "X-Request-ID"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	return cors.New(buildCORSConfig(cfg))
}

func buildCORSConfig(cfg config.CORSConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		ExposeHeaders:    []string{requestIDHeader},
	}
	if len(corsCfg.AllowMethods) == 0 {
		corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(corsCfg.AllowHeaders) == 0 {
		corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept-Language", "Authorization", requestIDHeader}
	}
	if cfg.MaxAge > 0 {
		corsCfg.MaxAge = time.Duration(cfg.MaxAge) * time.Second
	}

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	wildcard := len(cfg.AllowedOrigins) == 0
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			wildcard = true
			continue
		}
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	switch {
	case wildcard && cfg.AllowCredentials:
		// 携带凭证时不能返回 *，改为回显请求来源
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	case wildcard:
		corsCfg.AllowAllOrigins = true
	default:
		corsCfg.AllowOrigins = origins
	}
	return corsCfg
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if uid, ok := c.Get(handlershared.ContextKeyUID); ok {
			fields = append(fields, "uid", uid)
		}
		if len(c.Errors) > 0 {
			sugar.Errorw("http_request", append(fields, "errors", c.Errors.String())...)
			return
		}
		sugar.Infow("http_request", fields...)
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// bearerToken 读取 Authorization: Bearer 令牌
func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(c.GetHeader("Authorization")), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func abortWithKey(c *gin.Context, code int, key string) {
	response.Error(c, code, i18n.T(i18n.ResolveLocale(c), key))
	c.Abort()
}

// SessionAuthMiddleware 校验令牌并把会话写入上下文；资料缺失时拒绝
func SessionAuthMiddleware(identity *service.IdentityService) gin.HandlerFunc {
	return sessionAuth(identity, false)
}

// ClaimsAuthMiddleware 只校验令牌，允许资料缺失的身份通过（用于补建资料）
func ClaimsAuthMiddleware(identity *service.IdentityService) gin.HandlerFunc {
	return sessionAuth(identity, true)
}

func sessionAuth(identity *service.IdentityService, allowMissingProfile bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok || identity == nil {
			abortWithKey(c, response.CodeUnauthorized, "error.unauthorized")
			return
		}
		session, claims, err := identity.ResolveSession(c.Request.Context(), token)
		switch {
		case err == nil:
			handlershared.SetSession(c, session, claims)
			c.Next()
		case errors.Is(err, service.ErrProfileMissing) && allowMissingProfile && claims != nil:
			c.Set(handlershared.ContextKeyClaims, claims)
			c.Set(handlershared.ContextKeyUID, claims.UID)
			c.Next()
		case errors.Is(err, service.ErrProfileMissing):
			abortWithKey(c, response.CodeConflict, "error.profile_missing")
		case errors.Is(err, service.ErrRemoteUnavailable):
			handlershared.RequestLog(c).Warnw("session_resolve_unavailable", "error", err)
			abortWithKey(c, response.CodeServiceUnavailable, "error.remote_unavailable")
		default:
			abortWithKey(c, response.CodeUnauthorized, "error.not_authenticated")
		}
	}
}

// AdminRBACMiddleware 管理端 RBAC 鉴权中间件，按资料角色校验路由权限
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := handlershared.SessionFromContext(c)
		if session == nil || !session.Authenticated() {
			abortWithKey(c, response.CodeUnauthorized, "error.unauthorized")
			return
		}
		if authzService == nil {
			handlershared.RequestLog(c).Errorw("admin_rbac_service_unavailable")
			abortWithKey(c, response.CodeForbidden, "error.forbidden")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}
		role := session.Role()
		allowed, err := authzService.EnforceRole(role, resource, c.Request.Method)
		if err != nil {
			handlershared.RequestLog(c).Errorw("admin_rbac_enforce_failed",
				"uid", session.UID(),
				"role", role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortWithKey(c, response.CodeForbidden, "error.forbidden")
			return
		}
		if !allowed {
			handlershared.RequestLog(c).Warnw("admin_rbac_permission_denied",
				"uid", session.UID(),
				"role", role,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			abortWithKey(c, response.CodeForbidden, "error.forbidden")
			return
		}
		c.Next()
	}
}

func getRequestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}
