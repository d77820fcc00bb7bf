package router

import (
	"github.com/wuyi-mall/internal/cache"
	adminhandlers "github.com/wuyi-mall/internal/http/handlers/admin"
	merchanthandlers "github.com/wuyi-mall/internal/http/handlers/merchant"
	publichandlers "github.com/wuyi-mall/internal/http/handlers/public"
	"github.com/wuyi-mall/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter 装配路由与中间件
func SetupRouter(c *provider.Container) *gin.Engine {
	cfg := c.Config
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(zap.L()))
	r.Use(CORSMiddleware(cfg.CORS))

	publicHandler := publichandlers.New(c)
	merchantHandler := merchanthandlers.New(c)
	adminHandler := adminhandlers.New(c)

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	// 无需登录的接口
	auth := api.Group("/auth")
	{
		auth.POST("/register", publicHandler.Register)
		auth.POST("/login",
			RateLimitMiddleware(cache.Client(), RateLimitRule{
				Prefix:        "ratelimit:login",
				WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
				MaxRequests:   cfg.Security.LoginRateLimit.MaxRequests,
				Message:       "登录尝试过于频繁",
			}, KeyByIPAndJSONField("username")),
			publicHandler.Login,
		)
		auth.GET("/captcha", publicHandler.GetImageCaptcha)
	}

	api.GET("/products/:id", publicHandler.GetProduct)
	api.GET("/products/:id/comments", publicHandler.ListProductComments)
	api.GET("/products/:id/comments/stats", publicHandler.GetProductCommentStats)
	api.GET("/shops/:shop_id/products", publicHandler.ListShopProducts)
	api.GET("/shops/:shop_id/activities", publicHandler.ListShopActivities)
	api.GET("/shops/:shop_id/coupons", publicHandler.ListShopCoupons)

	// 支付渠道异步回调，由签名验证保证安全
	callback := api.Group("/pay/callback")
	{
		callback.POST("/alipay", publicHandler.AlipayCallback)
		callback.POST("/wechat", publicHandler.WechatCallback)
		callback.POST("/credit-card", publicHandler.CreditCardCallback)
	}

	// 登录后接口，JWT 鉴权 + RBAC 授权
	authed := api.Group("")
	authed.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
	authed.Use(RBACMiddleware(c.AuthzService))
	{
		authed.GET("/profile", publicHandler.GetProfile)
		authed.PUT("/profile/password", publicHandler.ChangePassword)

		authed.GET("/cart", publicHandler.GetCart)
		authed.POST("/cart", publicHandler.AddCartItem)
		authed.PUT("/cart/:id", publicHandler.UpdateCartItem)
		authed.DELETE("/cart/:id", publicHandler.RemoveCartItem)

		authed.POST("/orders", publicHandler.CreateOrder)
		authed.GET("/orders", publicHandler.ListOrders)
		authed.GET("/orders/:id", publicHandler.GetOrder)
		authed.POST("/orders/:id/operate", publicHandler.OperateOrder)
		authed.GET("/orders/:id/logs", publicHandler.GetOrderLogs)
		authed.POST("/orders/:id/pay", publicHandler.InitiatePay)

		authed.POST("/coupons/:id/claim", publicHandler.ClaimCoupon)
		authed.GET("/coupons/mine", publicHandler.ListMyCoupons)

		authed.GET("/payments/:id", publicHandler.GetPaymentRecord)

		authed.POST("/comments", publicHandler.PublishComment)
		authed.GET("/comments/mine", publicHandler.ListMyComments)

		merchant := authed.Group("/merchant")
		{
			merchant.POST("/products", merchantHandler.CreateProduct)
			merchant.GET("/products", merchantHandler.ListProducts)
			merchant.PUT("/products/:id", merchantHandler.UpdateProduct)
			merchant.PUT("/products/:id/status", merchantHandler.UpdateProductStatus)
			merchant.POST("/products/:id/restock", merchantHandler.RestockProduct)

			merchant.GET("/orders", merchantHandler.ListOrders)
			merchant.GET("/orders/:id", merchantHandler.GetOrder)
			merchant.POST("/orders/:id/operate", merchantHandler.OperateOrder)

			merchant.POST("/coupons", merchantHandler.PublishCoupon)
			merchant.GET("/coupons", merchantHandler.ListCoupons)
			merchant.PUT("/coupons/:id/offline", merchantHandler.OfflineCoupon)

			merchant.POST("/activities", merchantHandler.PublishActivity)
			merchant.GET("/activities", merchantHandler.ListActivities)
			merchant.PUT("/activities/:id/offline", merchantHandler.OfflineActivity)

			merchant.GET("/comments", merchantHandler.ListComments)
		}

		admin := authed.Group("/admin")
		{
			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.POST("/orders/:id/operate", adminHandler.OperateOrder)
			admin.GET("/orders/:id/logs", adminHandler.GetOrderLogs)

			admin.GET("/payments", adminHandler.ListPayments)
			admin.GET("/payments/:id", adminHandler.GetPayment)

			admin.POST("/payment-channels", adminHandler.UpsertPaymentChannel)
			admin.GET("/payment-channels", adminHandler.ListPaymentChannels)
		}
	}

	return r
}
