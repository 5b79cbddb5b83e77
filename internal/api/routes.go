package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradebridge-backend/internal/core"
	"tradebridge-backend/internal/db"
	"tradebridge-backend/internal/identity"
	"tradebridge-backend/internal/middleware"
	"tradebridge-backend/internal/models"
)

// SetupRoutes wires all routes under /api/v1 plus the health check. Global
// middleware (logging, recovery, CORS) is applied to the router before this
// is called, in main.go.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	tokens identity.Tokens,
	roleService core.RoleService,
	registrationService core.RegistrationService,
	profileService core.ProfileService,
	productService core.ProductService,
	quoteService core.QuoteService,
	billingService core.BillingService,
) {
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		logger.Fatal("Firebase Auth client is not initialized; routes cannot be secured")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient, roleService, logger)

	authHandler := NewAuthHandler(registrationService, roleService, tokens, logger)
	userHandler := NewUserHandler(profileService, logger)
	productHandler := NewProductHandler(productService, logger)
	quoteHandler := NewQuoteHandler(quoteService, logger)
	billingHandler := NewBillingHandler(billingService, logger)

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/admin-login", authHandler.AdminLogin)
			authGroup.POST("/action", authHandler.HandleActionCode)
			authGroup.POST("/password-reset", authHandler.RequestPasswordReset)

			// The waiting page polls these with the fresh (unverified) token.
			authGroup.GET("/verification-status", authMW.VerifyToken(), authHandler.VerificationStatus)
			authGroup.POST("/resend-verification", authMW.VerifyToken(), authHandler.ResendVerification)
		}

		usersGroup := apiV1.Group("/users", authMW.VerifyToken())
		{
			usersGroup.GET("/me", userHandler.GetMe)
			usersGroup.PATCH("/me", userHandler.UpdateMe)

			savedGroup := usersGroup.Group("/me/saved-sellers", authMW.RequireRole(models.RoleBuyer))
			{
				savedGroup.POST("/:sellerId", userHandler.SaveSeller)
				savedGroup.DELETE("/:sellerId", userHandler.UnsaveSeller)
			}
		}

		productsGroup := apiV1.Group("/products")
		{
			// Catalog reads are public.
			productsGroup.GET("", productHandler.List)

			sellerOnly := authMW.RequireRole(models.RoleSeller)
			productsGroup.GET("/mine", authMW.VerifyToken(), sellerOnly, productHandler.ListMine)
			productsGroup.POST("", authMW.VerifyToken(), sellerOnly, productHandler.Create)
			productsGroup.PATCH("/:id", authMW.VerifyToken(), sellerOnly, productHandler.Update)
			productsGroup.DELETE("/:id", authMW.VerifyToken(), sellerOnly, productHandler.Delete)
			productsGroup.GET("/:id", productHandler.GetByID)
		}

		quotesGroup := apiV1.Group("/quotes")
		{
			// Anyone may request a quote; only the target seller may read it.
			quotesGroup.POST("", quoteHandler.Create)

			sellerOnly := authMW.RequireRole(models.RoleSeller)
			quotesGroup.GET("", authMW.VerifyToken(), sellerOnly, quoteHandler.ListMine)
			quotesGroup.GET("/:id", authMW.VerifyToken(), sellerOnly, quoteHandler.GetByID)
		}

		billingGroup := apiV1.Group("/billing")
		{
			sessionRoles := authMW.RequireRole(models.RoleSeller, models.RoleBuyer)
			billingGroup.POST("/create-checkout-session", authMW.VerifyToken(), sessionRoles, billingHandler.CreateCheckoutSession)
			billingGroup.POST("/create-portal-session", authMW.VerifyToken(), sessionRoles, billingHandler.CreatePortalSession)

			// The processor authenticates via signature, not bearer token.
			billingGroup.POST("/webhooks/stripe", billingHandler.HandleWebhook)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	logger.Info("API routes configured under /api/v1")
}
