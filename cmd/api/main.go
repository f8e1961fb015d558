package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rvmaher/dermatouch-backend/internal/config"
	"github.com/rvmaher/dermatouch-backend/internal/domain/model"
	"github.com/rvmaher/dermatouch-backend/internal/handler"
	"github.com/rvmaher/dermatouch-backend/internal/infra/db"
	infraRepo "github.com/rvmaher/dermatouch-backend/internal/infra/repository"
	"github.com/rvmaher/dermatouch-backend/internal/infra/upload"
	"github.com/rvmaher/dermatouch-backend/internal/server"
	"github.com/rvmaher/dermatouch-backend/internal/usecase"
)

func main() {
	// .envは無くてもいい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	gormDB, err := db.Connect()
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Category{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	dashboardRepo := infraRepo.NewDashboardGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//画像アップロード（未設定なら無効のまま起動）
	var uploader upload.ImageUploader
	if cfg.CloudinaryEnabled() {
		u, err := upload.NewCloudinaryUploader(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
		uploader = u
	} else {
		log.Println("cloudinary is not configured, uploads disabled")
	}

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo)
	productUC := usecase.NewProductUsecase(productRepo, categoryRepo, inventoryRepo, auditRepo)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(txManager, cfg.DefaultCountry)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, auditRepo)
	userUC := usecase.NewUserUsecase(userRepo)
	dashboardUC := usecase.NewDashboardUsecase(dashboardRepo)

	e := server.New(cfg, gormDB, server.Handlers{
		Auth:          handler.NewAuthHandler(authUC),
		Product:       handler.NewProductHandler(productUC),
		Category:      handler.NewCategoryHandler(categoryUC),
		Order:         handler.NewOrderHandler(orderUC),
		AdminProduct:  handler.NewAdminProductHandler(productUC),
		AdminCategory: handler.NewAdminCategoryHandler(categoryUC),
		AdminOrder:    handler.NewAdminOrderHandler(adminOrderUC),
		AdminUser:     handler.NewAdminUserHandler(userUC),
		Dashboard:     handler.NewDashboardHandler(dashboardUC),
		Upload:        handler.NewUploadHandler(uploader),
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	//SIGINT/SIGTERMで綺麗に止める
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
