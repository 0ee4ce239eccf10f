package handler

import (
	"net/http"
	"strconv"

	"secondhand_market/internal/domain/order/service"
	"secondhand_market/pkg/response"
	"secondhand_market/pkg/utils"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

type CreateOrderInput struct {
	ProductID     string  `json:"productId" binding:"required,uuid"`
	NegotiationID *string `json:"negotiationId" binding:"omitempty,uuid"`
	PaymentMethod string  `json:"paymentMethod" binding:"required,oneof=transfer cod"`
	DeliveryType  string  `json:"deliveryType" binding:"omitempty,oneof=meetup shipping"`
}

// Create 下单
// @Summary 下单（可携带已通过的议价）
// @Tags Order
// @Accept json
// @Produce json
// @Param input body CreateOrderInput true "Order Info"
// @Success 201 {object} response.Response{data=model.Order}
// @Failure 409 {object} response.Response "商品已售出或议价已被使用"
// @Router /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	buyerID := getUserIDFromContext(c)
	order, err := h.service.Create(buyerID, service.CreateInput{
		ProductID:     input.ProductID,
		NegotiationID: input.NegotiationID,
		PaymentMethod: input.PaymentMethod,
		DeliveryType:  input.DeliveryType,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Created(c, order)
}

// ListMine 我买到的订单
// @Summary 我买到的订单
// @Tags Order
// @Produce json
// @Router /orders/my [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	page, limit := getPagination(c)
	buyerID := getUserIDFromContext(c)

	list, total, err := h.service.ListMine(buyerID, page, limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"items": list, "total": total})
}

// ListSales 我卖出的订单
// @Summary 我卖出的订单
// @Tags Order
// @Produce json
// @Router /orders/sales [get]
func (h *OrderHandler) ListSales(c *gin.Context) {
	page, limit := getPagination(c)
	sellerID := getUserIDFromContext(c)

	list, total, err := h.service.ListSales(sellerID, page, limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"items": list, "total": total})
}

// GetByID 订单详情
// @Summary 订单详情（买卖双方或管理员）
// @Tags Order
// @Produce json
// @Param id path string true "Order ID"
// @Router /orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	actorID := getUserIDFromContext(c)
	order, err := h.service.GetByID(actorID, isAdmin(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, order)
}

type TransitionInput struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note" binding:"max=200"`
}

// Transition 推进订单状态
// @Summary 推进订单状态
// @Tags Order
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param input body TransitionInput true "Target Status"
// @Failure 422 {object} response.Response "非法流转"
// @Router /orders/{id}/status [post]
func (h *OrderHandler) Transition(c *gin.Context) {
	var input TransitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	actorID := getUserIDFromContext(c)
	order, err := h.service.Transition(actorID, isAdmin(c), c.Param("id"), input.Status, input.Note)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, order)
}

type CancelOrderInput struct {
	Reason string `json:"reason" binding:"required,max=200"`
}

// Cancel 取消订单
// @Summary 买家取消订单（仅限下单确认阶段）
// @Tags Order
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param input body CancelOrderInput true "Cancel Reason"
// @Router /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	var input CancelOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	buyerID := getUserIDFromContext(c)
	if err := h.service.Cancel(c.Param("id"), buyerID, input.Reason); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, nil)
}

// History 订单状态流水
// @Summary 订单状态流水
// @Tags Order
// @Produce json
// @Param id path string true "Order ID"
// @Router /orders/{id}/history [get]
func (h *OrderHandler) History(c *gin.Context) {
	actorID := getUserIDFromContext(c)
	logs, err := h.service.History(actorID, isAdmin(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, logs)
}

func getUserIDFromContext(c *gin.Context) string {
	val, _ := c.Get("userID")
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func isAdmin(c *gin.Context) bool {
	role, _ := c.Get("role")
	roleInt, ok := role.(int)
	return ok && roleInt == utils.RoleAdmin
}

func getPagination(c *gin.Context) (page, limit int) {
	page = 1
	limit = 20
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		limit = v
	}
	return page, limit
}
