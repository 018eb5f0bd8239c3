package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fkhayef/splitledger/docs"
	"github.com/fkhayef/splitledger/internal/config"
	"github.com/fkhayef/splitledger/internal/database"
	"github.com/fkhayef/splitledger/internal/expense"
	expensesplit "github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/friend"
	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/internal/notification"
	"github.com/fkhayef/splitledger/internal/settlement"
	"github.com/fkhayef/splitledger/internal/user"
	"github.com/fkhayef/splitledger/pkg/logging"
	mw "github.com/fkhayef/splitledger/pkg/middleware"
)

// @title        splitledger API
// @version      1.0
// @description  Shared expenses, split allocation and debt settlement for groups
// @BasePath     /api/v1
func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load configuration
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel)
	if envErr != nil {
		logger.Info("No .env file found, using environment variables")
	}

	ctx := context.Background()

	// Initialize database connection
	db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to database successfully")

	if err := database.Migrate(ctx, db, logger); err != nil {
		logger.Error("Failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// Split Strategy Factory (Factory Pattern)
	splitFactory := expensesplit.NewSplitStrategyFactory()

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo, logger)
	userHandler := user.NewHandler(userService)

	// Group feature
	groupRepo := group.NewRepository(db)
	groupService := group.NewService(groupRepo, logger)
	groupHandler := group.NewHandler(groupService)

	// Friend feature
	friendRepo := friend.NewRepository(db)
	friendService := friend.NewService(friendRepo, logger)
	friendHandler := friend.NewHandler(friendService)

	// Notification feature, fed by expense activity
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo, groupService)
	notificationHandler := notification.NewHandler(notificationService)

	// Expense feature (with split factory injected)
	expenseRepo := expense.NewRepository(db)
	expenseService := expense.NewService(expenseRepo, groupService, splitFactory, notificationService, logger)
	expenseHandler := expense.NewHandler(expenseService)

	// Settlement feature, recorded through the expense service
	settlementService := settlement.NewService(expenseService, groupService, logger)
	settlementHandler := settlement.NewHandler(settlementService)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", mw.UserIDHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Swagger documentation
	docs.SwaggerInfo.Host = "localhost:" + cfg.Port
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RequireUser)

		// Mount feature routers
		r.Mount("/users", userHandler.Routes())
		r.Mount("/groups", groupHandler.Routes())
		r.Mount("/friends", friendHandler.Routes())
		r.Mount("/expenses", expenseHandler.Routes())
		r.Mount("/settlements", settlementHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
}
