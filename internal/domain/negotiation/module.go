package negotiation

import (
	"secondhand_market/internal/domain/negotiation/handler"
	"secondhand_market/internal/domain/negotiation/repository"
	"secondhand_market/internal/domain/negotiation/service"
	productRepo "secondhand_market/internal/domain/product/repository"
	"secondhand_market/internal/pkg/middleware"
	"secondhand_market/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// NegotiationModule 议价模块
type NegotiationModule struct{}

func init() {
	registry.Register(&NegotiationModule{})
}

func (m *NegotiationModule) Name() string {
	return "negotiation"
}

func (m *NegotiationModule) Priority() int {
	// 依赖商品模块的数据，晚于 product 初始化
	return 20
}

func (m *NegotiationModule) Init(ctx *registry.ModuleContext) error {
	nRepo := repository.NewNegotiationRepository(ctx.DB)
	pRepo := productRepo.NewProductRepository(ctx.DB)

	nService := service.NewNegotiationService(nRepo, pRepo, ctx.Cache, ctx.Notifier)
	nHandler := handler.NewNegotiationHandler(nService)

	setupRoutes(ctx.Router, nHandler)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.NegotiationHandler) {
	g := r.Group("/negotiations")
	g.Use(middleware.AuthMiddleware())
	{
		g.POST("", h.Create)
		g.GET("/my", h.ListMine)
		g.GET("/eligibility", h.CheckEligibility)

		// 管理员审核接口
		admin := g.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/pending", h.ListPending)
			admin.POST("/:id/approve", h.Approve)
			admin.POST("/:id/reject", h.Reject)
		}

		g.GET("/:id", h.GetByID)
		g.POST("/:id/cancel", h.Cancel)
	}
}
