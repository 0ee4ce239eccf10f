package product

import (
	"secondhand_market/internal/domain/product/handler"
	"secondhand_market/internal/domain/product/repository"
	"secondhand_market/internal/domain/product/service"
	"secondhand_market/internal/pkg/middleware"
	"secondhand_market/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// ProductModule 商品模块
type ProductModule struct{}

func init() {
	registry.Register(&ProductModule{})
}

func (m *ProductModule) Name() string {
	return "product"
}

func (m *ProductModule) Priority() int {
	return 10
}

func (m *ProductModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewProductRepository(ctx.DB)
	svc := service.NewProductService(repo, ctx.Cache)
	h := handler.NewProductHandler(svc)

	setupRoutes(ctx.Router, h)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.ProductHandler) {
	g := r.Group("/products")

	// 公开接口
	g.GET("", h.ListProducts)
	g.GET("/:id", h.GetProduct)

	// 需要鉴权的接口
	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.POST("", h.CreateListing)
		auth.PUT("/:id", h.UpdateListing)
		auth.POST("/:id/availability", h.SetAvailability)
	}
}
