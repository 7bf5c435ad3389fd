package main

import (
	"log"
	"os"

	_ "github.com/sitpune2021/truecart-mv-pharma-sub001/api/swagger" // swagger docs
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/database"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/handler"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/middleware"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/repository"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/service"
	"github.com/sitpune2021/truecart-mv-pharma-sub001/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Pharma Marketplace Admin API
// @version         1.0
// @description     Multi-vendor pharma marketplace back office: approval workflow, inventory ledger, catalog reference data.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "postgres")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if err := database.Seed(db); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	jwtSecret := service.JWTSecret()

	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repository -> Service -> Handler
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	vendorRepo := repository.NewVendorRepository(db)

	middleware.InitPermissionMiddleware(roleRepo)

	userService := service.NewUserService(userRepo, auditRepo, txManager, jwtSecret)
	roleService := service.NewRoleService(roleRepo)
	auditService := service.NewAuditService(auditRepo)
	approvalService := service.NewApprovalService(approvalRepo, notificationRepo, userRepo, auditRepo, txManager, wsHub)
	notificationService := service.NewNotificationService(notificationRepo)
	inventoryService := service.NewInventoryService(inventoryRepo, vendorRepo, auditRepo, txManager, wsHub)
	catalogService := service.NewCatalogService(catalogRepo, vendorRepo)
	vendorService := service.NewVendorService(vendorRepo, inventoryRepo)

	// Catalog entity types flow through the approval workflow.
	catalogService.RegisterKinds(approvalService)

	userHandler := handler.NewUserHandler(userService, jwtSecret)
	roleHandler := handler.NewRoleHandler(roleService)
	auditHandler := handler.NewAuditHandler(auditService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	vendorHandler := handler.NewVendorHandler(vendorService)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, jwtSecret)
	})

	public := router.Group("")
	userHandler.RegisterPublicRoutes(public)

	protected := router.Group("", middleware.Authenticate(jwtSecret))
	userHandler.RegisterRoutes(protected)
	roleHandler.RegisterRoutes(protected)
	auditHandler.RegisterRoutes(protected)
	approvalHandler.RegisterRoutes(protected)
	notificationHandler.RegisterRoutes(protected)
	inventoryHandler.RegisterRoutes(protected)
	catalogHandler.RegisterRoutes(protected)
	vendorHandler.RegisterRoutes(protected)

	port := envOr("PORT", "8080")
	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
