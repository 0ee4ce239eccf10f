package main

import (
	"log"

	_ "secondhand_market/docs"
	_ "secondhand_market/internal/domain/common"
	_ "secondhand_market/internal/domain/negotiation"
	_ "secondhand_market/internal/domain/order"
	_ "secondhand_market/internal/domain/product"
	"secondhand_market/internal/pkg/config"
	"secondhand_market/internal/pkg/middleware"
	"secondhand_market/internal/pkg/notify"
	"secondhand_market/internal/pkg/push"
	"secondhand_market/internal/pkg/registry"
	"secondhand_market/internal/pkg/uploader"
	"secondhand_market/pkg/cache"
	"secondhand_market/pkg/database"
	"secondhand_market/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title 二手电子产品交易平台 API
// @version 1.0
// @description 议价审核到订单履约的交易后端
// @BasePath /
func main() {
	config.LoadConfig()

	logger.InitLogger(config.GlobalConfig.App.Debug)
	defer logger.Sync()

	db := database.InitDatabase()
	redisClient := database.InitRedis()

	// 推送和 OSS 属于可选依赖，未配置时降级为日志输出/禁用上传
	if err := push.InitPushService(); err != nil {
		log.Printf("Push service disabled: %v", err)
	}
	if err := uploader.InitUploader(); err != nil {
		log.Printf("Uploader disabled: %v", err)
	}

	notifier := notify.NewDispatcher(4, 1024)
	notifier.Start()

	gin.SetMode(config.GlobalConfig.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.RateLimitMiddleware())
	r.Use(middleware.MetricsMiddleware())

	ctx := &registry.ModuleContext{
		DB:       db,
		Redis:    redisClient,
		Cache:    cache.NewRedisCache(redisClient),
		Notifier: notifier,
		Router:   r,
	}
	if err := registry.InitModules(ctx); err != nil {
		log.Fatalf("Failed to init modules: %v", err)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := config.GlobalConfig.Server.Port
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
