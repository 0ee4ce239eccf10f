package handler

import (
	"net/http"
	"strconv"

	"secondhand_market/internal/domain/negotiation/service"
	"secondhand_market/pkg/response"
	"secondhand_market/pkg/utils"

	"github.com/gin-gonic/gin"
)

type NegotiationHandler struct {
	service service.NegotiationService
}

func NewNegotiationHandler(s service.NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{service: s}
}

type CreateNegotiationInput struct {
	ProductID  string `json:"productId" binding:"required,uuid"`
	OfferPrice int64  `json:"offerPrice" binding:"required,gt=0"`
	Note       string `json:"note" binding:"max=200"`
}

// Create 发起议价
// @Summary 发起议价
// @Tags Negotiation
// @Accept json
// @Produce json
// @Param input body CreateNegotiationInput true "Negotiation Info"
// @Success 201 {object} response.Response{data=model.Negotiation}
// @Failure 409 {object} response.Response "已有进行中的议价，data 附带已存在的议价ID"
// @Router /negotiations [post]
func (h *NegotiationHandler) Create(c *gin.Context) {
	var input CreateNegotiationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	buyerID := getUserIDFromContext(c)
	n, err := h.service.Create(buyerID, service.CreateInput{
		ProductID:  input.ProductID,
		OfferPrice: input.OfferPrice,
		Note:       input.Note,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Created(c, n)
}

// CheckEligibility 议价资格查询
// @Summary 议价资格查询（驱动前端按钮状态）
// @Tags Negotiation
// @Produce json
// @Param product_id query string true "Product ID"
// @Success 200 {object} response.Response{data=model.Eligibility}
// @Router /negotiations/eligibility [get]
func (h *NegotiationHandler) CheckEligibility(c *gin.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "product_id is required")
		return
	}

	buyerID := getUserIDFromContext(c)
	elig, err := h.service.CheckEligibility(buyerID, productID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, elig)
}

// ListMine 我的议价列表
// @Summary 我的议价列表
// @Tags Negotiation
// @Produce json
// @Router /negotiations/my [get]
func (h *NegotiationHandler) ListMine(c *gin.Context) {
	page, limit := getPagination(c)
	buyerID := getUserIDFromContext(c)

	list, total, err := h.service.ListMine(buyerID, page, limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"items": list, "total": total})
}

// GetByID 议价详情
// @Summary 议价详情（买家本人或管理员）
// @Tags Negotiation
// @Produce json
// @Param id path string true "Negotiation ID"
// @Router /negotiations/{id} [get]
func (h *NegotiationHandler) GetByID(c *gin.Context) {
	actorID := getUserIDFromContext(c)
	n, err := h.service.GetByID(actorID, isAdmin(c), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, n)
}

// ListPending 待审核议价队列
// @Summary 待审核议价队列（管理员）
// @Tags Negotiation
// @Produce json
// @Router /negotiations/pending [get]
func (h *NegotiationHandler) ListPending(c *gin.Context) {
	page, limit := getPagination(c)

	list, total, err := h.service.ListPending(page, limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"items": list, "total": total})
}

type ApproveInput struct {
	FinalPrice *int64 `json:"finalPrice"` // 为空则按买家出价成交
	AdminNote  string `json:"adminNote" binding:"max=200"`
}

// Approve 审核通过
// @Summary 审核通过议价（管理员）
// @Tags Negotiation
// @Accept json
// @Produce json
// @Param id path string true "Negotiation ID"
// @Param input body ApproveInput true "Approve Info"
// @Router /negotiations/{id}/approve [post]
func (h *NegotiationHandler) Approve(c *gin.Context) {
	var input ApproveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	n, err := h.service.Approve(c.Param("id"), input.FinalPrice, input.AdminNote)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, n)
}

type RejectInput struct {
	Reason string `json:"reason" binding:"required,max=200"`
}

// Reject 驳回议价
// @Summary 驳回议价（管理员）
// @Tags Negotiation
// @Accept json
// @Produce json
// @Param id path string true "Negotiation ID"
// @Param input body RejectInput true "Reject Info"
// @Router /negotiations/{id}/reject [post]
func (h *NegotiationHandler) Reject(c *gin.Context) {
	var input RejectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	n, err := h.service.Reject(c.Param("id"), input.Reason)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, n)
}

// Cancel 撤回议价
// @Summary 买家撤回自己的议价
// @Tags Negotiation
// @Produce json
// @Param id path string true "Negotiation ID"
// @Router /negotiations/{id}/cancel [post]
func (h *NegotiationHandler) Cancel(c *gin.Context) {
	buyerID := getUserIDFromContext(c)
	if err := h.service.Cancel(c.Param("id"), buyerID); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, nil)
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
