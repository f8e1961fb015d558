package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/rvmaher/dermatouch-backend/internal/config"
	"github.com/rvmaher/dermatouch-backend/internal/domain/model"
	"github.com/rvmaher/dermatouch-backend/internal/infra/db"
)

// 開発用の初期データ投入。何度流しても二重にならない（upsert相当）。
func main() {
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

	if err := seedUsers(gormDB, cfg.BcryptCost); err != nil {
		log.Fatalf("seed users: %v", err)
	}

	categoryIDs, err := seedCategories(gormDB)
	if err != nil {
		log.Fatalf("seed categories: %v", err)
	}

	if err := seedProducts(gormDB, categoryIDs); err != nil {
		log.Fatalf("seed products: %v", err)
	}

	log.Println("seeding completed")
	log.Println("admin: admin@dermatouch.com / admin123")
	log.Println("user:  user@dermatouch.com / user123")
}

func seedUsers(gormDB *gorm.DB, bcryptCost int) error {
	users := []struct {
		email    string
		password string
		role     model.Role
	}{
		{"admin@dermatouch.com", "admin123", model.RoleAdmin},
		{"user@dermatouch.com", "user123", model.RoleUser},
	}

	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcryptCost)
		if err != nil {
			return err
		}
		user := model.User{
			Email:        u.email,
			PasswordHash: string(hash),
			Role:         u.role,
			IsActive:     true,
		}
		if err := gormDB.Where(model.User{Email: u.email}).FirstOrCreate(&user).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedCategories(gormDB *gorm.DB) (map[string]int64, error) {
	categories := []model.Category{
		{
			Name:        "Skincare",
			Description: "Premium skincare products for all skin types",
			Image:       "https://images.unsplash.com/photo-1556228578-8c89e6adf883?w=400",
		},
		{
			Name:        "Sunscreen",
			Description: "Sun protection products with SPF",
			Image:       "https://images.unsplash.com/photo-1571019613454-1cb2f99b2d8b?w=400",
		},
		{
			Name:        "Anti-Aging",
			Description: "Advanced anti-aging solutions",
			Image:       "https://images.unsplash.com/photo-1570194065650-d99fb4bedf0a?w=400",
		},
		{
			Name:        "Moisturizers",
			Description: "Hydrating creams and lotions",
			Image:       "https://images.unsplash.com/photo-1556228453-efd6c1ff04f6?w=400",
		},
	}

	ids := make(map[string]int64, len(categories))
	for _, c := range categories {
		cat := c
		if err := gormDB.Where(model.Category{Name: c.Name}).FirstOrCreate(&cat).Error; err != nil {
			return nil, err
		}
		ids[cat.Name] = cat.ID
	}
	return ids, nil
}

func seedProducts(gormDB *gorm.DB, categoryIDs map[string]int64) error {
	products := []struct {
		title       string
		description string
		price       string
		image       string
		sku         string
		stock       int64
		category    string
	}{
		{"Vitamin C Serum", "Brightening vitamin C serum with antioxidants", "2499.99",
			"https://images.unsplash.com/photo-1556228578-8c89e6adf883?w=400", "VIT-C-001", 50, "Skincare"},
		{"SPF 50 Sunscreen", "Broad spectrum sun protection", "1299.99",
			"https://images.unsplash.com/photo-1571019613454-1cb2f99b2d8b?w=400", "SUN-50-001", 75, "Sunscreen"},
		{"Retinol Night Cream", "Anti-aging night cream with retinol", "3499.99",
			"https://images.unsplash.com/photo-1570194065650-d99fb4bedf0a?w=400", "RET-NC-001", 30, "Anti-Aging"},
		{"Hyaluronic Acid Moisturizer", "Deep hydrating moisturizer", "1899.99",
			"https://images.unsplash.com/photo-1556228453-efd6c1ff04f6?w=400", "HYA-MOI-001", 60, "Moisturizers"},
		{"Niacinamide Serum", "Pore minimizing serum with niacinamide", "1799.99",
			"https://images.unsplash.com/photo-1556228578-8c89e6adf883?w=400", "NIA-SER-001", 45, "Skincare"},
		{"Gentle Face Cleanser", "Mild cleanser for sensitive skin", "999.99",
			"https://images.unsplash.com/photo-1556228578-8c89e6adf883?w=400", "GEN-CLE-001", 80, "Skincare"},
	}

	for _, p := range products {
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			return err
		}
		sku := p.sku
		product := model.Product{
			Title:       p.title,
			Description: p.description,
			Price:       price,
			Image:       p.image,
			SKU:         &sku,
			Stock:       p.stock,
			IsActive:    true,
			CategoryID:  categoryIDs[p.category],
		}
		if err := gormDB.Where("sku = ?", p.sku).FirstOrCreate(&product).Error; err != nil {
			return err
		}
	}
	return nil
}
