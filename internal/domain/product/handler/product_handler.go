package handler

import (
	"net/http"

	"secondhand_market/internal/domain/negotiation/pricing"
	"secondhand_market/internal/domain/product/model"
	"secondhand_market/internal/domain/product/service"
	"secondhand_market/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

type ListingInput struct {
	Title              string   `json:"title" binding:"required,max=255"`
	Description        string   `json:"description"`
	Category           string   `json:"category" binding:"required"`
	Condition          string   `json:"condition" binding:"required,oneof=like_new good fair"`
	ImageURLs          []string `json:"imageUrls"`
	SellingPrice       int64    `json:"sellingPrice" binding:"required,gt=0"`
	Negotiable         bool     `json:"negotiable"`
	MinNegotiablePrice *int64   `json:"minNegotiablePrice"`
}

func (in *ListingInput) toServiceInput() service.ListingInput {
	return service.ListingInput{
		Title:              in.Title,
		Description:        in.Description,
		Category:           in.Category,
		Condition:          in.Condition,
		ImageURLs:          in.ImageURLs,
		SellingPrice:       in.SellingPrice,
		Negotiable:         in.Negotiable,
		MinNegotiablePrice: in.MinNegotiablePrice,
	}
}

// CreateListing 上架商品
// @Summary 上架商品
// @Tags Product
// @Accept json
// @Produce json
// @Param input body ListingInput true "Listing Info"
// @Success 201 {object} response.Response{data=model.Product}
// @Router /products [post]
func (h *ProductHandler) CreateListing(c *gin.Context) {
	var input ListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	sellerID := getUserIDFromContext(c)
	product, err := h.service.CreateListing(sellerID, input.toServiceInput())
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Created(c, product)
}

// ListProducts 商品列表
// @Summary 商品列表（关键字/分类/价格区间筛选）
// @Tags Product
// @Produce json
// @Success 200 {object} response.Response{data=[]model.Product}
// @Router /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var filter model.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	products, total, err := h.service.ListProducts(filter)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"items": products,
		"total": total,
	})
}

// GetProduct 商品详情
// @Summary 商品详情（可议价商品附带出价区间）
// @Tags Product
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.Response{data=model.Product}
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.service.GetProduct(c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	resp := gin.H{"product": product}
	if product.Negotiable {
		// 出价区间仅用于前端即时提示，服务端下单/议价时会重新校验
		resp["offerRange"] = pricing.OfferRange(product.SellingPrice, product.MinNegotiablePrice)
	}

	response.Success(c, resp)
}

// UpdateListing 编辑商品
// @Summary 编辑商品（仅卖家本人）
// @Tags Product
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param input body ListingInput true "Listing Info"
// @Success 200 {object} response.Response{data=model.Product}
// @Router /products/{id} [put]
func (h *ProductHandler) UpdateListing(c *gin.Context) {
	var input ListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	sellerID := getUserIDFromContext(c)
	product, err := h.service.UpdateListing(sellerID, c.Param("id"), input.toServiceInput())
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, product)
}

type AvailabilityInput struct {
	Available bool `json:"available"`
}

// SetAvailability 上/下架
// @Summary 商品上/下架（仅卖家本人）
// @Tags Product
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Router /products/{id}/availability [post]
func (h *ProductHandler) SetAvailability(c *gin.Context) {
	var input AvailabilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	sellerID := getUserIDFromContext(c)
	if err := h.service.SetAvailability(sellerID, c.Param("id"), input.Available); err != nil {
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
