// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storelink/storelink-backend/internal/config"
	"github.com/storelink/storelink-backend/internal/handlers"
	"github.com/storelink/storelink-backend/internal/middleware"
	"github.com/storelink/storelink-backend/internal/services"
	"github.com/storelink/storelink-backend/internal/utils"
)

// Services bundles everything the router and the background jobs share.
type Services struct {
	Settings      *services.SettingsService
	Notifications *services.NotificationService
	Wallet        *services.WalletService
	Audit         *services.AuditService
	Orders        *services.OrderService
	Payouts       *services.PayoutService
	LevelSync     *services.LevelSyncService
}

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, *Services) {
	// Initialize services
	settingsService := services.NewSettingsService(db)
	notificationService := services.NewNotificationService(db, cfg)
	auditService := services.NewAuditService(db)
	walletService := services.NewWalletService(db)
	storageService, _ := services.NewStorageService(cfg)

	authService := services.NewAuthService(db, cfg)
	productService := services.NewProductService(db, auditService)
	storefrontService := services.NewStorefrontService(db)
	orderService := services.NewOrderService(db, settingsService, walletService, auditService, notificationService)
	payoutService := services.NewPayoutService(db, cfg, settingsService, walletService, auditService, notificationService)
	kycService := services.NewKYCService(db, storageService, auditService, notificationService)
	adminService := services.NewAdminService(db, walletService, auditService, notificationService)
	paymentService := services.NewPaymentService(db, cfg, orderService)
	levelSyncService := services.NewLevelSyncService(db, settingsService, notificationService)
	geoGate := services.NewGeoGateService(services.NewHTTPGeoProvider(cfg.Geo), settingsService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, storageService)
	storefrontHandler := handlers.NewStorefrontHandler(storefrontService)
	orderHandler := handlers.NewOrderHandler(orderService)
	walletHandler := handlers.NewWalletHandler(walletService, payoutService)
	kycHandler := handlers.NewKYCHandler(kycService)
	publicHandler := handlers.NewPublicHandler(storefrontService, paymentService, geoGate)
	adminHandler := handlers.NewAdminHandler(adminService, payoutService, settingsService, walletService, auditService, levelSyncService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.RequestAuditMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Catalog routes (affiliates browse, admins manage under /admin)
		products := v1.Group("/products")
		products.Use(middleware.OptionalAuth())
		{
			products.GET("", productHandler.List)
			products.GET("/categories", productHandler.Categories)
			products.GET("/:id", productHandler.Get)
		}

		// Affiliate storefront management
		storefront := v1.Group("/storefront")
		storefront.Use(middleware.AuthRequired())
		{
			storefront.GET("/listings", storefrontHandler.ListListings)
			storefront.POST("/listings", storefrontHandler.CreateListing)
			storefront.PUT("/listings/:id", storefrontHandler.UpdateListing)
			storefront.DELETE("/listings/:id", storefrontHandler.DeleteListing)
		}

		// Affiliate orders
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.GET("", orderHandler.ListMine)
			orders.POST("", orderHandler.Create)
			orders.GET("/level-progress", orderHandler.LevelProgress)
			orders.GET("/:id", orderHandler.Get)
			orders.POST("/:id/confirm-payment", orderHandler.ConfirmPayment)
		}

		// Wallet and payouts
		wallet := v1.Group("/wallet")
		wallet.Use(middleware.AuthRequired())
		{
			wallet.GET("", walletHandler.Balance)
			wallet.GET("/transactions", walletHandler.History)
			wallet.GET("/payouts", walletHandler.ListPayouts)
			wallet.POST("/payouts", walletHandler.RequestPayout)
		}

		// KYC
		kyc := v1.Group("/kyc")
		kyc.Use(middleware.AuthRequired())
		{
			kyc.GET("", kycHandler.MySubmissions)
			kyc.POST("", middleware.UploadRateLimit(), kycHandler.Submit)
		}

		// Public buyer surface
		shops := v1.Group("/shops")
		{
			shops.GET("/:slug", storefrontHandler.PublicStorefront)
			shops.POST("/:slug/checkout", middleware.CheckoutRateLimit(), publicHandler.Checkout)
		}
		v1.POST("/checkout/confirm", middleware.CheckoutRateLimit(), publicHandler.ConfirmCheckout)

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)

			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.POST("/users/:id/approve", adminHandler.ApproveUser)
			admin.POST("/users/:id/disable", adminHandler.DisableUser)
			admin.POST("/users/:id/wallet-adjustment", adminHandler.AdjustWallet)
			admin.PUT("/users/:id/commission-override", adminHandler.SetCommissionOverride)

			admin.POST("/products", productHandler.Create)
			admin.PUT("/products/:id", productHandler.Update)
			admin.DELETE("/products/:id", productHandler.Deactivate)
			admin.POST("/products/images", middleware.UploadRateLimit(), productHandler.UploadImage)

			admin.GET("/orders", orderHandler.AdminList)
			admin.PATCH("/orders/:id/status", orderHandler.AdminTransition)

			admin.GET("/payouts", adminHandler.ListPayouts)
			admin.POST("/payouts/run", adminHandler.RunAutoPayouts)
			admin.POST("/payouts/:id/approve", adminHandler.ApprovePayout)
			admin.POST("/payouts/:id/reject", adminHandler.RejectPayout)
			admin.POST("/payouts/:id/mark-paid", adminHandler.MarkPayoutPaid)

			admin.GET("/kyc", kycHandler.AdminList)
			admin.GET("/kyc/:id/document", kycHandler.AdminDocumentURL)
			admin.POST("/kyc/:id/review", kycHandler.AdminReview)

			admin.POST("/levels/sync", adminHandler.RunLevelSync)

			admin.GET("/settings", adminHandler.ListSettings)
			admin.PUT("/settings/:key", adminHandler.UpdateSetting)

			admin.GET("/audit-logs", adminHandler.ListAuditLogs)
		}
	}

	return r, &Services{
		Settings:      settingsService,
		Notifications: notificationService,
		Wallet:        walletService,
		Audit:         auditService,
		Orders:        orderService,
		Payouts:       payoutService,
		LevelSync:     levelSyncService,
	}
}
