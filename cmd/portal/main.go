package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"rockford-panel/internal/auth"
	"rockford-panel/internal/config"
	"rockford-panel/internal/database"
	"rockford-panel/internal/handlers"
	"rockford-panel/internal/identity"
	"rockford-panel/internal/services"
	"rockford-panel/internal/session"
	"rockford-panel/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to blob storage
	blobStore, err := storage.NewBlobStore(
		context.Background(),
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.UseSSL,
		cfg.Storage.PublicBaseURL,
	)
	if err != nil {
		log.Fatalf("Failed to connect to blob storage: %v", err)
	}

	// Identity provider and services
	provider := identity.NewProvider(database.GetDB())
	accountService := services.NewAccountService(database.GetDB(), provider)
	proposalService := services.NewProposalService(database.GetDB())
	credentialResolver := services.NewCredentialResolver(database.GetDB(), provider)
	binder := storage.NewBinder(blobStore)

	// Session manager
	sessions := session.NewManager(provider, accountService, provider.Events())
	defer sessions.Close()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(credentialResolver, accountService, provider, sessions)
	proposalHandler := handlers.NewProposalHandler(proposalService, binder)
	adminHandler := handlers.NewAdminHandler(accountService)

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Authenticated /auth routes
	authProtected := router.Group("/auth")
	authProtected.Use(handlers.SessionMiddleware(sessions))
	{
		authProtected.POST("/logout", authHandler.Logout)
		authProtected.GET("/me", authHandler.Me)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(handlers.SessionMiddleware(sessions))
	{
		api.GET("/proposals", proposalHandler.ListPublic)
		api.GET("/proposals/mine", proposalHandler.ListMine)
		api.POST("/proposals", proposalHandler.Create)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(handlers.SessionMiddleware(sessions))
	admin.Use(handlers.RequireAdministrator())
	{
		admin.GET("/proposals/pending", proposalHandler.ListPending)
		admin.POST("/proposals/:id/advance", proposalHandler.Advance)

		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users/:id/promote", adminHandler.PromoteUser)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
