package order

import (
	negotiationRepo "secondhand_market/internal/domain/negotiation/repository"
	"secondhand_market/internal/domain/order/handler"
	"secondhand_market/internal/domain/order/repository"
	"secondhand_market/internal/domain/order/service"
	productRepo "secondhand_market/internal/domain/product/repository"
	"secondhand_market/internal/pkg/middleware"
	"secondhand_market/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// OrderModule 订单模块
type OrderModule struct{}

func init() {
	registry.Register(&OrderModule{})
}

func (m *OrderModule) Name() string {
	return "order"
}

func (m *OrderModule) Priority() int {
	// 依赖商品与议价，最后初始化
	return 30
}

func (m *OrderModule) Init(ctx *registry.ModuleContext) error {
	nRepo := negotiationRepo.NewNegotiationRepository(ctx.DB)
	pRepo := productRepo.NewProductRepository(ctx.DB)
	oRepo := repository.NewOrderRepository(ctx.DB, nRepo)

	oService := service.NewOrderService(oRepo, pRepo, nRepo, ctx.Notifier)
	oHandler := handler.NewOrderHandler(oService)

	setupRoutes(ctx.Router, oHandler)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.OrderHandler) {
	g := r.Group("/orders")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("", h.Create)
		g.GET("/my", h.ListMine)
		g.GET("/sales", h.ListSales)
		g.GET("/:id", h.GetByID)
		g.GET("/:id/history", h.History)
		g.POST("/:id/status", h.Transition)
		g.POST("/:id/cancel", h.Cancel)
	}
}
