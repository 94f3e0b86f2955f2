package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jooba/internal/handlers"
	"jooba/internal/identity"
	"jooba/internal/middleware"
	"jooba/internal/services"
	"jooba/internal/store"
	"jooba/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("STORE_DRIVER", "memory")
	viper.SetDefault("DATABASE_DSN", "jooba.db")
	viper.SetDefault("AUTH_PROVIDER", "local")
	viper.SetDefault("JWT_SECRET", "dev-secret-change-me")
	viper.SetDefault("TOKEN_TTL_HOURS", 24)
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("RABBITMQ_CONSUMER", true)
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")

	// --- Document store ---
	st, err := newStore()
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	// --- Identity provider ---
	provider, err := newIdentityProvider(st)
	if err != nil {
		log.Fatalf("Failed to initialize identity provider: %v", err)
	}

	// --- Optional product events publisher ---
	var events *rabbitmq.Client
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		events, err = rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer events.Close()

		if viper.GetBool("RABBITMQ_CONSUMER") {
			if err := events.ConsumeProductEvents(rabbitmq.LogProductEvent); err != nil {
				log.Printf("Failed to start product events consumer: %v", err)
			}
		}
	} else {
		log.Println("RABBITMQ_URL not set, product events disabled")
	}

	// --- Services ---
	authService := services.NewAuthService(provider, st)
	productService := services.NewProductService(st, events)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(logger.New())

	authGuard := middleware.AuthRequired(provider)
	authHandler.RegisterRoutes(app)
	productHandler.RegisterRoutes(app, authGuard)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start HTTP server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// newStore picks the document store driver from configuration.
func newStore() (store.Store, error) {
	driver := viper.GetString("STORE_DRIVER")
	switch driver {
	case "firebase":
		baseURL := viper.GetString("FIREBASE_DATABASE_URL")
		log.Printf("Using Firebase Realtime Database at %s", baseURL)
		return store.NewFirebaseStore(baseURL, nil), nil
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(viper.GetString("DATABASE_DSN")), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		return store.NewGormStore(db)
	case "postgres":
		db, err := gorm.Open(postgres.Open(viper.GetString("DATABASE_DSN")), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		return store.NewGormStore(db)
	default:
		log.Printf("Using in-memory store (driver %q); data will not survive restarts", driver)
		return store.NewMemoryStore(), nil
	}
}

// newIdentityProvider picks the identity backend from configuration.
func newIdentityProvider(st store.Store) (identity.Provider, error) {
	if viper.GetString("AUTH_PROVIDER") == "firebase" {
		return identity.NewFirebaseProvider(
			viper.GetString("FIREBASE_API_KEY"),
			viper.GetString("FIREBASE_PROJECT_ID"),
			nil,
		), nil
	}
	ttl := time.Duration(viper.GetInt("TOKEN_TTL_HOURS")) * time.Hour
	return identity.NewLocalProvider(st, viper.GetString("JWT_SECRET"), ttl), nil
}
