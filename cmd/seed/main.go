package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"alpha-clothing/internal/config"
	"alpha-clothing/internal/database"
	"alpha-clothing/internal/domain"
	"alpha-clothing/internal/logger"
	"alpha-clothing/internal/repository"
	"alpha-clothing/internal/service"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "admin@alphaclothing.com"
	adminPassword = "admin123"
)

var allSizes = []domain.Size{domain.SizeS, domain.SizeM, domain.SizeL, domain.SizeXL}

type sampleProduct struct {
	name        string
	description string
	price       string
	imageURL    string
	category    domain.Category
	stock       int
}

var sampleProducts = []sampleProduct{
	{"Classic White T-Shirt", "Comfortable cotton t-shirt perfect for everyday wear. Soft fabric with a relaxed fit.", "19.99", "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=400", domain.CategoryMen, 50},
	{"Denim Jacket", "Classic blue denim jacket with vintage wash. Perfect for layering over any outfit.", "79.99", "https://images.unsplash.com/photo-1544022613-e87ca75a784a?w=400", domain.CategoryMen, 30},
	{"Slim Fit Jeans", "Dark wash slim fit jeans made from premium denim.", "59.99", "https://images.unsplash.com/photo-1541099649105-f69ad21f3246?w=400", domain.CategoryMen, 40},
	{"Cotton Hoodie", "Soft cotton hoodie with kangaroo pocket.", "49.99", "https://images.unsplash.com/photo-1556821840-3a63f95609a4?w=400", domain.CategoryMen, 35},
	{"Leather Jacket", "Genuine leather jacket with classic biker style.", "199.99", "https://images.unsplash.com/photo-1551028719-00167b16eac5?w=400", domain.CategoryMen, 15},
	{"Floral Summer Dress", "Floral print dress in a light and airy fabric.", "39.99", "https://images.unsplash.com/photo-1515372039744-b8f02a3ae446?w=400", domain.CategoryWomen, 40},
	{"High-Waisted Jeans", "High-waisted jeans made from stretch denim.", "54.99", "https://images.unsplash.com/photo-1541099649105-f69ad21f3246?w=400", domain.CategoryWomen, 35},
	{"Knit Sweater", "Cozy knit sweater in soft pink.", "49.99", "https://images.unsplash.com/photo-1556821840-3a63f95609a4?w=400", domain.CategoryWomen, 25},
	{"Midi Skirt", "Midi skirt in navy blue.", "34.99", "https://images.unsplash.com/photo-1515372039744-b8f02a3ae446?w=400", domain.CategoryWomen, 20},
	{"Kids Graphic Tee", "Colorful graphic tee made from soft organic cotton.", "14.99", "https://images.unsplash.com/photo-1519238263530-99bdd11df2ea?w=400", domain.CategoryKids, 60},
	{"Kids Rain Jacket", "Waterproof rain jacket with a hood and reflective trim.", "39.99", "https://images.unsplash.com/photo-1503944583220-79d8926ad5e2?w=400", domain.CategoryKids, 25},
	{"Kids Joggers", "Stretchy joggers with an elastic waistband.", "24.99", "https://images.unsplash.com/photo-1522771930-78848d9293e8?w=400", domain.CategoryKids, 45},
}

func main() {
	reset := flag.Bool("reset", false, "delete existing products, carts and orders before seeding")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	db := dbService.DB()
	defer db.Close()

	if err := database.RunMigrations(db, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if *reset {
		if _, err := db.ExecContext(ctx, `TRUNCATE orders, carts, products CASCADE`); err != nil {
			log.Fatal("Failed to reset catalog", zap.Error(err))
		}
		log.Info("Existing catalog, carts and orders removed")
	}

	products := repository.NewProductRepository(db)
	now := time.Now().UTC()
	for _, sample := range sampleProducts {
		product := &domain.Product{
			ID:          uuid.New(),
			Name:        sample.name,
			Description: sample.description,
			Price:       decimal.RequireFromString(sample.price),
			ImageURL:    sample.imageURL,
			Category:    sample.category,
			Sizes:       allSizes,
			Stock:       sample.stock,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := products.Create(ctx, product); err != nil {
			log.Fatal("Failed to create product", zap.String("name", sample.name), zap.Error(err))
		}
	}
	log.Info("Sample products created", zap.Int("count", len(sampleProducts)))

	if err := ensureAdmin(ctx, repository.NewUserRepository(db), now); err != nil {
		log.Fatal("Failed to create admin user", zap.Error(err))
	}
	log.Info("Admin user ready", zap.String("email", adminEmail))
}

func ensureAdmin(ctx context.Context, users repository.UserRepository, now time.Time) error {
	_, err := users.FindByEmail(ctx, adminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), service.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return users.Create(ctx, &domain.User{
		ID:           uuid.New(),
		Name:         "Admin User",
		Email:        adminEmail,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}
