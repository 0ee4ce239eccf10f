package common

import (
	commonHandler "secondhand_market/internal/pkg/common"
	"secondhand_market/internal/pkg/middleware"
	"secondhand_market/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CommonModule 通用功能模块
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	setupRoutes(ctx.Router)
	return nil
}

func setupRoutes(r *gin.Engine) {
	r.GET("/health", commonHandler.Health)

	// 商品图片上传
	r.POST("/upload", middleware.AuthMiddleware(), commonHandler.UploadFile)
}
