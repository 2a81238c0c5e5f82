package shared

import (
	"github.com/lumenshop/storefront/internal/auth"
	"github.com/lumenshop/storefront/internal/http/response"
	"github.com/lumenshop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// 认证中间件写入上下文的键。
const (
	ContextKeySession = "session"
	ContextKeyClaims  = "claims"
	ContextKeyUID     = "uid"
	ContextKeyRole    = "role"
)

// SetSession 写入会话与令牌声明。
func SetSession(c *gin.Context, session *service.Session, claims *auth.Claims) {
	c.Set(ContextKeySession, session)
	if claims != nil {
		c.Set(ContextKeyClaims, claims)
	}
	if session != nil {
		c.Set(ContextKeyUID, session.UID())
		c.Set(ContextKeyRole, session.Role())
	}
}

// SessionFromContext 读取会话，不存在时返回 nil。
func SessionFromContext(c *gin.Context) *service.Session {
	value, exists := c.Get(ContextKeySession)
	if !exists {
		return nil
	}
	session, _ := value.(*service.Session)
	return session
}

// ClaimsFromContext 读取令牌声明，不存在时返回 nil。
func ClaimsFromContext(c *gin.Context) *auth.Claims {
	value, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, _ := value.(*auth.Claims)
	return claims
}

// RequireSession 读取已认证会话，否则直接返回 401。
func RequireSession(c *gin.Context) (*service.Session, bool) {
	session := SessionFromContext(c)
	if session == nil || !session.Authenticated() {
		RespondError(c, response.CodeUnauthorized, "error.not_authenticated", nil)
		return nil, false
	}
	return session, true
}
