// Command reaper runs one pass of the unverified-account cleanup and exits.
// Intended for cron-style environments where the in-process scheduler of
// cmd/server is not wanted.
package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"tradebridge-backend/internal/cache"
	"tradebridge-backend/internal/config"
	"tradebridge-backend/internal/core"
	"tradebridge-backend/internal/db"
	"tradebridge-backend/internal/events"
	"tradebridge-backend/internal/identity"
)

func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := db.InitFirebase(ctx, appConfig); err != nil {
		zapLogger.Fatal("failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	firestoreClient := db.GetFirestoreClient()
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firestoreClient == nil || firebaseAuthClient == nil {
		zapLogger.Fatal("Firebase clients are nil after initialization")
	}

	var roleCache cache.RoleCache = cache.NopRoleCache{}
	if appConfig.RedisAddr != "" {
		rc, err := cache.NewRedisRoleCache(ctx, appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB, time.Hour)
		if err != nil {
			zapLogger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		roleCache = rc
	}

	var publisher events.Publisher = events.NopPublisher{}
	if appConfig.RabbitURL != "" {
		pub, err := events.NewRabbitPublisher(appConfig.RabbitURL, appConfig.RabbitExchange)
		if err != nil {
			zapLogger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub
	}

	sellerRepo := db.NewFirestoreSellerRepository(firestoreClient)
	buyerRepo := db.NewFirestoreBuyerRepository(firestoreClient)
	adminRepo := db.NewFirestoreAdminRepository(firestoreClient)

	roleService := core.NewRoleService(sellerRepo, buyerRepo, adminRepo, roleCache, zapLogger)
	reaper := core.NewReaperService(
		identity.NewFirebaseAdmin(firebaseAuthClient),
		sellerRepo, buyerRepo, roleService, publisher, zapLogger,
		appConfig.AdminAllowlistEmails(), appConfig.ReaperMaxAge(),
	)

	summary, err := reaper.Run(ctx)
	if err != nil {
		zapLogger.Fatal("reaper run failed", zap.Error(err))
	}
	zapLogger.Info("reaper run complete",
		zap.Int("scanned", summary.Scanned),
		zap.Int("matched", summary.Matched),
		zap.Int("deleted", summary.Deleted),
		zap.Int("failures", summary.Failures),
	)
}
