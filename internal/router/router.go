package router

import (
	"net/http"
	"sort"
	"strings"

	"github.com/lumenshop/storefront/internal/authz"
	"github.com/lumenshop/storefront/internal/cache"
	"github.com/lumenshop/storefront/internal/config"
	adminhandlers "github.com/lumenshop/storefront/internal/http/handlers/admin"
	publichandlers "github.com/lumenshop/storefront/internal/http/handlers/public"
	"github.com/lumenshop/storefront/internal/http/response"
	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由；metrics 为空时不暴露 /metrics
func SetupRouter(cfg *config.Config, c *provider.Container, metrics http.Handler) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "lumen"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        redisPrefix + ":rate:login",
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}
	resetRule := loginRule
	resetRule.Prefix = redisPrefix + ":rate:password_reset"

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	sessionAuth := SessionAuthMiddleware(c.IdentityService)

	apiV1 := r.Group("/api/v1")
	{
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.ListProducts)
			public.GET("/products/:id", publicHandler.GetProduct)
			public.GET("/captcha/config", publicHandler.GetCaptchaConfig)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
		}

		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", publicHandler.Register)
			authGroup.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
			authGroup.POST("/password/reset", RateLimitMiddleware(redisClient, resetRule, KeyByIPAndJSONField("email")), publicHandler.RequestPasswordReset)
			authGroup.POST("/password/reset/confirm", publicHandler.ConfirmPasswordReset)
			authGroup.POST("/profile/ensure", ClaimsAuthMiddleware(c.IdentityService), publicHandler.EnsureProfile)
			authGroup.POST("/logout", sessionAuth, publicHandler.Logout)
		}

		user := apiV1.Group("")
		user.Use(sessionAuth)
		{
			user.GET("/me", publicHandler.GetProfile)
			user.PATCH("/me", publicHandler.UpdateProfile)
			user.POST("/me/password", publicHandler.ChangePassword)
			user.GET("/me/addresses", publicHandler.ListAddresses)
			user.POST("/me/addresses", publicHandler.AddAddress)
			user.DELETE("/me/addresses/:id", publicHandler.RemoveAddress)
			user.POST("/me/addresses/:id/default", publicHandler.SetDefaultAddress)

			user.GET("/cart", publicHandler.GetCart)
			user.DELETE("/cart", publicHandler.ClearCart)
			user.POST("/cart/lines", publicHandler.AddCartLine)
			user.PATCH("/cart/lines", publicHandler.UpdateCartLine)
			user.DELETE("/cart/lines", publicHandler.RemoveCartLine)

			user.GET("/wishlist", publicHandler.GetWishlist)
			user.POST("/wishlist/toggle", publicHandler.ToggleWishlist)
			user.POST("/wishlist/move-to-cart", publicHandler.MoveWishlistToCart)

			user.POST("/orders", publicHandler.Checkout)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)
			user.POST("/orders/:id/reorder", publicHandler.Reorder)
		}

		admin := apiV1.Group("/admin")
		admin.Use(sessionAuth, AdminRBACMiddleware(c.AuthzService))
		{
			admin.GET("/orders", adminHandler.AdminListOrders)
			admin.GET("/orders/:id", adminHandler.AdminGetOrder)
			admin.PATCH("/orders/:id", adminHandler.AdminUpdateOrder)
			admin.GET("/dashboard/overview", adminHandler.GetDashboardOverview)

			admin.POST("/products", adminHandler.AdminSaveProduct)
			admin.PUT("/products/:id", adminHandler.AdminSaveProduct)

			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			admin.GET("/authz/permissions", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 列出可授权的管理端路由
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}
	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))
	for _, route := range routes {
		method := strings.ToUpper(strings.TrimSpace(route.Method))
		if method == "" || method == http.MethodOptions || method == http.MethodHead {
			continue
		}
		if !strings.HasPrefix(route.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(route.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     permissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Module != items[j].Module {
			return items[i].Module < items[j].Module
		}
		if items[i].Object != items[j].Object {
			return items[i].Object < items[j].Object
		}
		return items[i].Method < items[j].Method
	})
	return items
}

// permissionModule /admin/orders/:id -> orders
func permissionModule(object string) string {
	segments := strings.Split(strings.Trim(object, "/"), "/")
	if len(segments) >= 2 && segments[0] == "admin" {
		return segments[1]
	}
	if segments[0] == "" {
		return "system"
	}
	return segments[0]
}
