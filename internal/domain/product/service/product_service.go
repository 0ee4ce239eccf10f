package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"secondhand_market/internal/domain/product/model"
	"secondhand_market/internal/domain/product/repository"
	"secondhand_market/internal/pkg/config"
	"secondhand_market/pkg/apperr"
	"secondhand_market/pkg/cache"
	"secondhand_market/pkg/response"

	"gorm.io/gorm"
)

type ProductService interface {
	CreateListing(sellerID string, in ListingInput) (*model.Product, error)
	GetProduct(id string) (*model.Product, error)
	ListProducts(filter model.Filter) ([]model.Product, int64, error)
	UpdateListing(sellerID, id string, in ListingInput) (*model.Product, error)
	SetAvailability(sellerID, id string, available bool) error
}

// ListingInput 商品上架/编辑入参
type ListingInput struct {
	Title              string
	Description        string
	Category           string
	Condition          string
	ImageURLs          []string
	SellingPrice       int64
	Negotiable         bool
	MinNegotiablePrice *int64
}

type productService struct {
	repo  repository.ProductRepository
	cache cache.CacheService
}

func NewProductService(repo repository.ProductRepository, c cache.CacheService) ProductService {
	return &productService{repo: repo, cache: c}
}

func (in *ListingInput) validate() error {
	if in.SellingPrice <= 0 {
		return apperr.Validation(response.ErrInvalidParam, "售价必须大于 0")
	}
	if in.MinNegotiablePrice != nil {
		// 最低可议价必须在 (0, 售价] 区间内
		if *in.MinNegotiablePrice <= 0 || *in.MinNegotiablePrice > in.SellingPrice {
			return apperr.Validation(response.ErrInvalidMinPrice, "最低可议价必须大于 0 且不超过售价")
		}
	}
	return nil
}

func (s *productService) CreateListing(sellerID string, in ListingInput) (*model.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	imagesJSON, _ := json.Marshal(in.ImageURLs)

	product := &model.Product{
		SellerID:           sellerID,
		Title:              in.Title,
		Description:        in.Description,
		Category:           in.Category,
		Condition:          in.Condition,
		ImageURLs:          imagesJSON,
		SellingPrice:       in.SellingPrice,
		Negotiable:         in.Negotiable,
		MinNegotiablePrice: in.MinNegotiablePrice,
		Status:             model.StatusAvailable,
	}

	if err := s.repo.Create(product); err != nil {
		return nil, apperr.Internal(response.ErrServerInternal, "创建商品失败", err)
	}
	return product, nil
}

// GetProduct 商品详情（短 TTL 缓存，仅用于展示；核心写路径直查数据库）
func (s *productService) GetProduct(id string) (*model.Product, error) {
	ctx := context.Background()
	key := fmt.Sprintf("product:%s", id)

	var cached model.Product
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	product, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(response.ErrProductNotFound, "商品不存在")
		}
		return nil, apperr.Internal(response.ErrServerInternal, "查询商品失败", err)
	}

	ttl := time.Duration(config.GlobalConfig.Negotiation.CacheTTLSeconds) * time.Second
	_ = s.cache.Set(ctx, key, product, ttl)

	return product, nil
}

func (s *productService) ListProducts(filter model.Filter) ([]model.Product, int64, error) {
	page, limit := filter.Page, filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit
	return s.repo.GetList(filter, offset, limit)
}

func (s *productService) UpdateListing(sellerID, id string, in ListingInput) (*model.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	product, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(response.ErrProductNotFound, "商品不存在")
		}
		return nil, apperr.Internal(response.ErrServerInternal, "查询商品失败", err)
	}

	if product.SellerID != sellerID {
		return nil, apperr.Auth(response.ErrNotProductSeller, "只有卖家本人可以编辑商品")
	}
	if product.Status == model.StatusSold {
		return nil, apperr.State(response.ErrProductUnavailable, "商品已售出，不能编辑")
	}

	imagesJSON, _ := json.Marshal(in.ImageURLs)

	product.Title = in.Title
	product.Description = in.Description
	product.Category = in.Category
	product.Condition = in.Condition
	product.ImageURLs = imagesJSON
	product.SellingPrice = in.SellingPrice
	product.Negotiable = in.Negotiable
	product.MinNegotiablePrice = in.MinNegotiablePrice

	if err := s.repo.Update(product); err != nil {
		return nil, apperr.Internal(response.ErrServerInternal, "更新商品失败", err)
	}

	s.invalidate(id)
	return product, nil
}

// SetAvailability 卖家上/下架
func (s *productService) SetAvailability(sellerID, id string, available bool) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(response.ErrProductNotFound, "商品不存在")
		}
		return apperr.Internal(response.ErrServerInternal, "查询商品失败", err)
	}
	if product.SellerID != sellerID {
		return apperr.Auth(response.ErrNotProductSeller, "只有卖家本人可以操作")
	}

	from, to := model.StatusAvailable, model.StatusUnavailable
	if available {
		from, to = model.StatusUnavailable, model.StatusAvailable
	}

	ok, err := s.repo.SetStatus(id, from, to)
	if err != nil {
		return apperr.Internal(response.ErrServerInternal, "更新商品状态失败", err)
	}
	if !ok {
		// 已售出或状态已被其他操作改变
		return apperr.State(response.ErrProductUnavailable, "商品当前状态不允许该操作")
	}

	s.invalidate(id)
	return nil
}

func (s *productService) invalidate(id string) {
	_ = s.cache.Delete(context.Background(), fmt.Sprintf("product:%s", id))
}
