package admin

import (
	handlershared "github.com/lumenshop/storefront/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// currentOperator 当前操作人 uid 与角色，仅用于日志
func currentOperator(c *gin.Context) (string, string) {
	session := handlershared.SessionFromContext(c)
	if session == nil {
		return "", ""
	}
	return session.UID(), session.Role()
}
