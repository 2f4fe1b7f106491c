package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"
)

// 開発用のシードデータ投入。SKUキーのupsertなので何度流してもよい。
func main() {
	count := flag.Int("count", 30, "number of products to seed")
	seed := flag.Uint64("seed", 1, "random seed (fixed for reproducible data)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

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

	faker := gofakeit.New(*seed)

	productRepo := infraRepo.NewProductGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	auditLogRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	adminProductUC := usecase.NewAdminProductUsecase(productRepo, auditLogRepo, logger)

	ctx := context.Background()

	adminID, err := seedAdmin(ctx, userRepo, logger)
	if err != nil {
		logger.Fatal("admin seed failed", zap.Error(err))
	}

	for i := 0; i < *count; i++ {
		in := fakeProduct(faker, i)
		if _, err := adminProductUC.Upsert(ctx, adminID, in); err != nil {
			logger.Fatal("product seed failed", zap.String("sku", in.SKU), zap.Error(err))
		}
	}

	logger.Info("seed done", zap.Int("products", *count))
}

func fakeProduct(faker *gofakeit.Faker, i int) usecase.UpsertProductInput {
	base := decimal.NewFromFloat(faker.Price(5, 500)).Round(2)

	in := usecase.UpsertProductInput{
		SKU:         fmt.Sprintf("SKU-%04d", i+1),
		Name:        faker.ProductName(),
		Description: faker.ProductDescription(),
		Price:       base,
		// 一部は非公開にしておく（公開一覧のフィルタ確認用）
		IsActive: i%7 != 0,
	}

	// 半分くらいはバリアント付き
	if i%2 == 0 {
		for j, size := range []string{"S", "M", "L"} {
			v := usecase.UpsertVariantInput{
				SKU:      fmt.Sprintf("%s-%s", in.SKU, size),
				Name:     fmt.Sprintf("Size %s", size),
				IsActive: true,
			}
			// Lだけ価格上乗せ
			if j == 2 {
				p := base.Add(decimal.NewFromInt(5)).Round(2)
				v.Price = &p
			}
			in.Variants = append(in.Variants, v)
		}
	}

	return in
}

func seedAdmin(ctx context.Context, users repo.UserRepository, logger *zap.Logger) (int64, error) {
	const email = "admin@example.com"

	if existing, err := users.FindByEmail(ctx, email); err == nil {
		return existing.ID, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin_password"), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	admin := &model.User{
		Email:        email,
		Name:         "Admin",
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			existing, ferr := users.FindByEmail(ctx, email)
			if ferr != nil {
				return 0, ferr
			}
			return existing.ID, nil
		}
		return 0, err
	}

	logger.Info("admin user created", zap.String("email", email))
	return admin.ID, nil
}
