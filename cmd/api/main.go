package main

import (
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/events"
	"storefront/internal/handler"
	infraCart "storefront/internal/infra/cartstore"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/server"
	"storefront/internal/usecase"
)

func main() {
	// .envは無ければ無いで構わない
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	// DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.ProductVariant{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.AuditLog{},
	); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	// Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	auditLogRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	// カートはDBバックエンド（ゲストもユーザーも同じストア）
	cartStore := infraCart.NewGormStore(txManager)

	catalog := pricing.NewCatalogLookup(productRepo)

	// イベント発行。AMQP_URLが無ければNop。
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(events.Config{URL: cfg.AMQPURL})
		if err != nil {
			logger.Fatal("amqp connect failed", zap.Error(err))
		}
		defer client.Close()
		publisher = client
	}

	provider := payment.NewDevProvider()

	// Usecase生成
	cartUC := usecase.NewCartUsecase(cartStore, catalog, cfg.TaxRate, logger)
	orderUC := usecase.NewOrderUsecase(txManager, cartStore, catalog, userRepo, provider, publisher, cfg.TaxRate, logger)
	paymentUC := usecase.NewPaymentUsecase(txManager, logger)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, cartUC, logger)
	productUC := usecase.NewProductUsecase(productRepo, logger)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, logger)
	adminProductUC := usecase.NewAdminProductUsecase(productRepo, auditLogRepo, logger)
	adminAuditUC := usecase.NewAdminAuditLogUsecase(auditLogRepo, logger)

	// Handler生成
	h := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminProduct: handler.NewAdminProductHandler(adminProductUC),
		AdminAudit:   handler.NewAdminAuditLogHandler(adminAuditUC),
		Webhook:      handler.NewWebhookHandler(paymentUC),
	}

	// Server起動
	addr := cfg.Port
	if addr == "" {
		addr = "8080"
	}
	if addr[0] != ':' {
		addr = ":" + addr
	}

	if err := server.Start(addr, cfg, h, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.Config) *zap.Logger {
	if cfg.IsDev() {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return l
	}
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}
