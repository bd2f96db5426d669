package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"printify_dev_v1_202608/internal/controller"
	"printify_dev_v1_202608/internal/model"
	"printify_dev_v1_202608/internal/repository"
	"printify_dev_v1_202608/internal/router"
	"printify_dev_v1_202608/internal/service"
	"printify_dev_v1_202608/internal/storage"
	"printify_dev_v1_202608/internal/task"
	"printify_dev_v1_202608/pkg/database"
	"printify_dev_v1_202608/pkg/printify"
	"printify_dev_v1_202608/pkg/shopify"
)

func main() {
	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	initTasks(deps)

	// 4. 初始化路由
	r := gin.Default()
	router.InitRoutes(r,
		deps.Controllers.Printify,
		deps.Controllers.Design,
		deps.Controllers.Persona,
		deps.Controllers.Shopify,
	)

	// 5. 启动服务
	startServer(r, deps)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Store       *storage.JSONStore
	Repos       *Repositories
	Services    *Services
	Controllers *Controllers
	CatalogTask *task.CatalogSyncTask
}

// Repositories 仓库集合
type Repositories struct {
	ProductCache repository.ProductCacheRepository
	AiCallLog    repository.AICallLogRepository
}

// Services 服务集合
type Services struct {
	Catalog   *service.CatalogService
	Duplicate *service.DuplicateService
	Design    *service.DesignService
	Persona   *service.PersonaService
	AI        *service.AIService
	Storage   *service.StorageService
	Mockup    *service.MockupService
}

// Controllers 控制器集合
type Controllers struct {
	Printify *controller.PrintifyController
	Design   *controller.DesignController
	Persona  *controller.PersonaController
	Shopify  *controller.ShopifyController
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_DSN",
		"host=localhost user=postgres password=postgres dbname=pod_studio port=5432 sslmode=disable")

	return database.InitDB(dsn,
		// 供应商商品缓存
		&model.ProductCache{},
		// AI 调用流水
		&model.AICallLog{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		ProductCache: repository.NewProductCacheRepository(db),
		AiCallLog:    repository.NewAICallLogRepository(db),
	}

	// -------- 本地 JSON 集合 --------
	store, err := storage.NewJSONStore(getEnv("DATA_DIR", "./data"))
	if err != nil {
		log.Fatalf("JSON 存储初始化失败: %v", err)
	}

	// -------- 外部客户端 --------
	printifyClient := printify.NewClient(&printify.Config{
		APIToken: getEnv("PRINTIFY_API_TOKEN", ""),
		ShopID:   getEnv("PRINTIFY_SHOP_ID", ""),
	})
	shopifyClient := shopify.NewClient(&shopify.Config{
		StoreDomain: getEnv("SHOPIFY_STORE_DOMAIN", ""),
		AccessToken: getEnv("SHOPIFY_ACCESS_TOKEN", ""),
	})

	// -------- 存储 & AI 服务 --------
	storageSvc := initStorageService()
	aiSvc := service.NewAIService(&service.AIConfig{
		ApiKey: getEnv("GEMINI_API_KEY", ""),
	}, storageSvc, repos.AiCallLog)

	mockupSvc, err := service.NewMockupService(getEnv("MOCKUP_OUTPUT_DIR", "./data/mockups"))
	if err != nil {
		log.Fatalf("样机服务初始化失败: %v", err)
	}

	// -------- 业务服务 --------
	services := &Services{
		AI:      aiSvc,
		Storage: storageSvc,
		Mockup:  mockupSvc,
	}
	services.Catalog = service.NewCatalogService(
		printifyClient, printifyClient, repos.ProductCache, store,
		getEnv("SHOPIFY_STORE_URL", ""),
	)
	services.Duplicate = service.NewDuplicateService(printifyClient)
	services.Design = service.NewDesignService(store)
	services.Persona = service.NewPersonaService(store)

	// -------- Controller 层 --------
	controllers := &Controllers{
		Printify: controller.NewPrintifyController(printifyClient, services.Catalog, services.Duplicate),
		Design: controller.NewDesignController(
			services.Design, services.Persona, aiSvc, mockupSvc, services.Catalog,
		),
		Persona: controller.NewPersonaController(services.Persona),
		Shopify: controller.NewShopifyController(shopifyClient),
	}

	return &Dependencies{
		DB:          db,
		Store:       store,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// initStorageService 初始化存储服务
func initStorageService() *service.StorageService {
	storageSvc, err := service.NewStorageService(&service.StorageConfig{
		Provider:  getEnv("STORAGE_PROVIDER", "local"),
		Bucket:    getEnv("AWS_BUCKET", ""),
		Region:    getEnv("AWS_REGION", ""),
		AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		CDNDomain: getEnv("AWS_CDN_DOMAIN", ""),
		BasePath:  getEnv("STORAGE_BASE_PATH", "pod-studio"),
	})
	if err != nil {
		log.Printf("警告: 存储服务初始化失败: %v", err)
		return nil
	}
	return storageSvc
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) {
	// 目录刷新
	catalogTask := task.NewCatalogSyncTask(deps.Services.Catalog)
	catalogTask.Start()
	deps.CatalogTask = catalogTask

	log.Println("定时任务已启动")
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine, deps *Dependencies) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 先停后台任务，再关 HTTP
	if deps.CatalogTask != nil {
		deps.CatalogTask.Stop()
	}

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
