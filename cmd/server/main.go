package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"tradebridge-backend/internal/api"
	"tradebridge-backend/internal/cache"
	"tradebridge-backend/internal/config"
	"tradebridge-backend/internal/core"
	"tradebridge-backend/internal/db"
	"tradebridge-backend/internal/events"
	"tradebridge-backend/internal/identity"
	"tradebridge-backend/internal/middleware"
	"tradebridge-backend/pkg/mailer"
)

func main() {
	// --- Logger ---
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// --- Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("failed to load configuration", zap.Error(err))
	}

	// --- Firebase Admin SDK (Firestore + Auth) ---
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()
	if err := db.InitFirebase(initCtx, appConfig); err != nil {
		zapLogger.Fatal("failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	firestoreClient := db.GetFirestoreClient()
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firestoreClient == nil || firebaseAuthClient == nil {
		zapLogger.Fatal("Firebase clients are nil after initialization")
	}

	// --- Optional infrastructure: role cache and event publisher ---
	var roleCache cache.RoleCache = cache.NopRoleCache{}
	if appConfig.RedisAddr != "" {
		rc, err := cache.NewRedisRoleCache(initCtx, appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB, time.Hour)
		if err != nil {
			zapLogger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		roleCache = rc
		zapLogger.Info("role cache enabled", zap.String("addr", appConfig.RedisAddr))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if appConfig.RabbitURL != "" {
		pub, err := events.NewRabbitPublisher(appConfig.RabbitURL, appConfig.RabbitExchange)
		if err != nil {
			zapLogger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub
		zapLogger.Info("lifecycle event publisher enabled", zap.String("exchange", appConfig.RabbitExchange))
	}

	var verificationMailer core.VerificationMailer
	if appConfig.SMTPHost != "" {
		m, err := mailer.New(appConfig.SMTPHost, appConfig.SMTPPort, appConfig.SMTPUser, appConfig.SMTPPass, appConfig.SMTPSender)
		if err != nil {
			zapLogger.Fatal("failed to configure mailer", zap.Error(err))
		}
		verificationMailer = m
	}

	// --- Repositories ---
	sellerRepo := db.NewFirestoreSellerRepository(firestoreClient)
	buyerRepo := db.NewFirestoreBuyerRepository(firestoreClient)
	adminRepo := db.NewFirestoreAdminRepository(firestoreClient)
	productRepo := db.NewFirestoreProductRepository(firestoreClient)
	quoteRepo := db.NewFirestoreQuoteRepository(firestoreClient)

	// --- Identity surfaces ---
	identityAdmin := identity.NewFirebaseAdmin(firebaseAuthClient)
	tokens := identity.NewRESTClient(appConfig.FirebaseWebAPIKey)

	// --- Core services ---
	roleService := core.NewRoleService(sellerRepo, buyerRepo, adminRepo, roleCache, zapLogger)
	registrationService := core.NewRegistrationService(
		identityAdmin, sellerRepo, buyerRepo, roleService,
		verificationMailer, publisher, zapLogger, appConfig.ReaperMaxAge(),
	)
	profileService := core.NewProfileService(sellerRepo, buyerRepo, adminRepo, roleService)
	productService := core.NewProductService(productRepo, sellerRepo, zapLogger)
	quoteService := core.NewQuoteService(quoteRepo, sellerRepo, productRepo, zapLogger)
	billingService := core.NewBillingService(core.BillingConfig{
		SecretKey:     appConfig.StripeSecretKey,
		WebhookSecret: appConfig.StripeWebhookSecret,
		SellerPriceID: appConfig.StripeSellerPriceID,
		BuyerPriceID:  appConfig.StripeBuyerPriceID,
		PortalReturn:  appConfig.ClientURL,
	}, sellerRepo, buyerRepo, roleService, publisher, zapLogger)
	reaperService := core.NewReaperService(
		identityAdmin, sellerRepo, buyerRepo, roleService, publisher, zapLogger,
		appConfig.AdminAllowlistEmails(), appConfig.ReaperMaxAge(),
	)

	// --- Scheduled reaper ---
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(appConfig.ReaperSchedule, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := reaperService.Run(runCtx); err != nil {
			zapLogger.Error("scheduled reaper run failed", zap.Error(err))
		}
	}); err != nil {
		zapLogger.Fatal("invalid reaper schedule", zap.String("schedule", appConfig.ReaperSchedule), zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()
	zapLogger.Info("reaper scheduled", zap.String("schedule", appConfig.ReaperSchedule))

	// --- HTTP engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))

	api.SetupRoutes(
		router,
		zapLogger,
		tokens,
		roleService,
		registrationService,
		profileService,
		productService,
		quoteService,
		billingService,
	)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Port),
		Handler: router,
	}

	go func() {
		zapLogger.Info("starting HTTP server", zap.String("addr", httpServer.Addr), zap.String("ginMode", gin.Mode()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("forced shutdown", zap.Error(err))
	}
	zapLogger.Info("server exited")
}
