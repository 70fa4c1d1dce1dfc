package router

import (
	"time"

	"github.com/jusondac/factory-app/internal/config"
	"github.com/jusondac/factory-app/internal/handler"
	"github.com/jusondac/factory-app/internal/middleware"
	"github.com/jusondac/factory-app/internal/model"
	"github.com/jusondac/factory-app/internal/repository"
	"github.com/jusondac/factory-app/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	batchRepo := repository.NewUnitBatchRepository(db)
	prepareRepo := repository.NewPrepareRepository(db)
	produceRepo := repository.NewProduceRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	machineRepo := repository.NewMachineRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	clock := service.NewClock()
	ids := service.NewIDGenerator(batchRepo, prepareRepo, produceRepo, packageRepo)

	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo)
	prepareSvc := service.NewPrepareService(prepareRepo, batchRepo, productRepo, ids, clock)
	checkingSvc := service.NewCheckingService(prepareRepo, batchRepo, produceRepo, ids, clock)
	machineSvc := service.NewMachineService(machineRepo, produceRepo, packageRepo, batchRepo)
	checklistSvc := service.NewChecklistService(produceRepo, packageRepo)
	produceSvc := service.NewProduceService(produceRepo, packageRepo, batchRepo, machineRepo, ids, clock)
	packageSvc := service.NewPackageService(packageRepo, machineRepo)
	batchSvc := service.NewBatchService(batchRepo, prepareRepo, produceRepo, packageRepo, productRepo, machineRepo, ids, clock)
	reportSvc := service.NewReportService(batchRepo, rdb, time.Duration(cfg.ReportCacheTTLMinutes)*time.Minute)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	batchesH := handler.NewBatchesHandler(batchSvc)
	preparesH := handler.NewPreparesHandler(prepareSvc, checkingSvc)
	producesH := handler.NewProducesHandler(produceSvc, machineSvc, checklistSvc)
	packagesH := handler.NewPackagesHandler(packageSvc, machineSvc, checklistSvc)
	machinesH := handler.NewMachinesHandler(machineSvc)
	reportsH := handler.NewReportsHandler(reportSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes. RequireRole is a coarse gate; the service layer
	// re-checks the fine-grained capability on every transition.
	admin := middleware.RequireRole(model.RoleManager, model.RoleHead)
	planners := middleware.RequireRole(model.RoleSupervisor, model.RoleManager, model.RoleHead)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.LoadUser(userRepo))
	{
		users := v1.Group("/users", admin)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
		}

		// Products — everyone reads the catalog, managers write
		v1.GET("/products", productsH.List)
		v1.GET("/products/:id", productsH.Get)
		products := v1.Group("/products", admin)
		{
			products.POST("", productsH.Create)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Delete)
		}

		// Machines — everyone reads, managers write
		v1.GET("/machines", machinesH.List)
		v1.GET("/machines/:id", machinesH.Get)
		machines := v1.Group("/machines", admin)
		{
			machines.POST("", machinesH.Create)
			machines.PUT("/:id", machinesH.Update)
			machines.DELETE("/:id", machinesH.Delete)
		}

		batches := v1.Group("/batches")
		{
			batches.POST("", planners, batchesH.Create)
			batches.GET("", batchesH.List)
			batches.GET("/:id", batchesH.Get)
			batches.POST("/:id/move-to-prepare", planners, batchesH.MoveToPrepare)
			batches.POST("/:id/move-to-production", planners, batchesH.MoveToProduction)
			batches.POST("/:id/move-to-package", planners, batchesH.MoveToPackage)
			batches.POST("/:id/undo", planners, batchesH.Undo)
			batches.DELETE("/:id", admin, batchesH.Delete)
		}

		prepares := v1.Group("/prepares")
		{
			prepares.POST("", planners, preparesH.Create)
			prepares.GET("", preparesH.List)
			prepares.GET("/:id", preparesH.Get)
			prepares.POST("/:id/start-checking", preparesH.StartChecking)
			prepares.POST("/:id/cancel", preparesH.CancelChecking)
			prepares.PATCH("/:id/ingredients/:ingredient_id", preparesH.ToggleIngredient)
			prepares.POST("/:id/complete", preparesH.CompleteChecking)
		}

		produces := v1.Group("/produces")
		{
			produces.GET("", producesH.List)
			produces.GET("/:id", producesH.Get)
			produces.POST("/:id/machine", producesH.SelectMachine)
			produces.GET("/:id/checklist", producesH.GetChecklist)
			produces.POST("/:id/checklist", producesH.SubmitChecklist)
			produces.POST("/:id/start", producesH.Start)
			produces.POST("/:id/complete", producesH.Complete)
		}

		packages := v1.Group("/packages")
		{
			packages.GET("", packagesH.List)
			packages.GET("/:id", packagesH.Get)
			packages.POST("/:id/machine", packagesH.SelectMachine)
			packages.GET("/:id/checklist", packagesH.GetChecklist)
			packages.POST("/:id/checklist", packagesH.SubmitChecklist)
			packages.POST("/:id/start", packagesH.Start)
			packages.POST("/:id/complete", packagesH.Complete)
			packages.PATCH("/:id/waste", packagesH.UpdateWaste)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("", reportsH.Get)
			reports.GET("/pdf", reportsH.ExportPDF)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
