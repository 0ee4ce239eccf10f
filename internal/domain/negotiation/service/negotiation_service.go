package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"secondhand_market/internal/domain/negotiation/model"
	"secondhand_market/internal/domain/negotiation/pricing"
	"secondhand_market/internal/domain/negotiation/repository"
	productModel "secondhand_market/internal/domain/product/model"
	productRepo "secondhand_market/internal/domain/product/repository"
	"secondhand_market/internal/pkg/config"
	"secondhand_market/internal/pkg/notify"
	"secondhand_market/pkg/apperr"
	"secondhand_market/pkg/cache"
	"secondhand_market/pkg/logger"
	"secondhand_market/pkg/metrics"
	"secondhand_market/pkg/response"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type NegotiationService interface {
	Create(buyerID string, in CreateInput) (*model.Negotiation, error)
	CheckEligibility(buyerID, productID string) (*model.Eligibility, error)
	GetByID(actorID string, isAdmin bool, id string) (*model.Negotiation, error)
	ListMine(buyerID string, page, limit int) ([]model.Negotiation, int64, error)
	ListPending(page, limit int) ([]model.Negotiation, int64, error)
	Approve(id string, finalPrice *int64, adminNote string) (*model.Negotiation, error)
	Reject(id string, reason string) (*model.Negotiation, error)
	Cancel(id, buyerID string) error
}

// CreateInput 买家发起议价
type CreateInput struct {
	ProductID  string
	OfferPrice int64
	Note       string
}

type negotiationService struct {
	repo     repository.NegotiationRepository
	products productRepo.ProductRepository
	cache    cache.CacheService
	notifier *notify.Dispatcher
}

func NewNegotiationService(
	repo repository.NegotiationRepository,
	products productRepo.ProductRepository,
	c cache.CacheService,
	notifier *notify.Dispatcher,
) NegotiationService {
	return &negotiationService{repo: repo, products: products, cache: c, notifier: notifier}
}

// expireStale 惰性过期：把超过有效期的 pending 议价批量置为 expired
// 读/写路径进入前调用，替代后台定时任务
func (s *negotiationService) expireStale() {
	window := time.Duration(config.GlobalConfig.Negotiation.ExpireHours) * time.Hour
	cutoff := time.Now().Add(-window)

	n, err := s.repo.ExpireBefore(cutoff)
	if err != nil {
		if logger.Log != nil {
			logger.Log.Warn("failed to expire stale negotiations", zap.Error(err))
		}
		return
	}
	if n > 0 {
		metrics.NegotiationReviewed.WithLabelValues("expired").Add(float64(n))
	}
}

// loadProduct 写路径的权威商品读取，绕过缓存直查数据库
func (s *negotiationService) loadProduct(productID string) (*productModel.Product, error) {
	product, err := s.products.GetByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(response.ErrProductNotFound, "商品不存在")
		}
		return nil, apperr.Internal(response.ErrServerInternal, "查询商品失败", err)
	}
	return product, nil
}

func (s *negotiationService) Create(buyerID string, in CreateInput) (*model.Negotiation, error) {
	s.expireStale()

	product, err := s.loadProduct(in.ProductID)
	if err != nil {
		return nil, err
	}

	// 前置校验：商品可售、可议价、买家不是卖家本人
	if product.Status != productModel.StatusAvailable {
		return nil, apperr.Conflict(response.ErrProductUnavailable, "商品当前不可购买")
	}
	if !product.Negotiable {
		return nil, apperr.Validation(response.ErrProductNotNegotiable, "该商品不支持议价")
	}
	if product.SellerID == buyerID {
		return nil, apperr.Validation(response.ErrOwnProduct, "不能对自己的商品议价")
	}

	// 出价区间校验（权威检查，不信任客户端的区间提示）
	if err := pricing.ValidateOffer(product.SellingPrice, product.MinNegotiablePrice, in.OfferPrice); err != nil {
		switch {
		case errors.Is(err, pricing.ErrBelowMinimum):
			r := pricing.OfferRange(product.SellingPrice, product.MinNegotiablePrice)
			return nil, apperr.Validation(response.ErrOfferOutOfRange, fmt.Sprintf("出价不能低于 %d", r.Min))
		case errors.Is(err, pricing.ErrNotBelowSelling):
			return nil, apperr.Validation(response.ErrOfferOutOfRange, "出价必须低于商品售价")
		default:
			return nil, apperr.Validation(response.ErrOfferOutOfRange, "出价金额无效")
		}
	}

	n := &model.Negotiation{
		ProductID:  in.ProductID,
		BuyerID:    buyerID,
		OfferPrice: in.OfferPrice,
		Status:     model.StatusPending,
		Note:       in.Note,
	}

	// 直接插入，"同一买家同一商品唯一进行中"由部分唯一索引兜底
	// 先查后插在并发下有竞态窗口，这里不依赖前置查询
	if err := s.repo.Create(n); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateConflict(in.ProductID, buyerID)
		}
		return nil, apperr.Internal(response.ErrServerInternal, "创建议价失败", err)
	}

	s.invalidateEligibility(in.ProductID, buyerID)
	metrics.NegotiationCreated.Inc()

	// 通知卖家，失败不影响主流程
	s.notifier.Dispatch(notify.Event{
		RecipientID: product.SellerID,
		Kind:        notify.KindNegotiationCreated,
		Title:       "收到新的议价",
		Body:        fmt.Sprintf("买家对「%s」出价 %d", product.Title, in.OfferPrice),
		DeepLink:    "/negotiations/" + n.ID,
	})

	return n, nil
}

// duplicateConflict 唯一索引冲突后补查已存在的议价，给客户端跳转用的ID
func (s *negotiationService) duplicateConflict(productID, buyerID string) error {
	existing, err := s.repo.FindActive(productID, buyerID)
	if err != nil {
		// 竞争窗口内对方议价可能刚好又终态了，按通用冲突处理
		return apperr.Conflict(response.ErrNegotiationExists, "您已有进行中的议价")
	}
	return apperr.ConflictData(response.ErrNegotiationExists, "您已有进行中的议价",
		map[string]string{"existingNegotiationId": existing.ID})
}

func (s *negotiationService) CheckEligibility(buyerID, productID string) (*model.Eligibility, error) {
	s.expireStale()

	// 资格查询允许秒级过期的缓存，仅驱动 UI 状态，写路径不信任它
	ctx := context.Background()
	key := fmt.Sprintf("eligibility:%s:%s", productID, buyerID)

	var cached model.Eligibility
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	elig, err := s.computeEligibility(buyerID, productID)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(config.GlobalConfig.Negotiation.CacheTTLSeconds) * time.Second
	_ = s.cache.Set(ctx, key, elig, ttl)

	return elig, nil
}

func (s *negotiationService) computeEligibility(buyerID, productID string) (*model.Eligibility, error) {
	product, err := s.loadProduct(productID)
	if err != nil {
		return nil, err
	}

	if product.Status != productModel.StatusAvailable {
		return &model.Eligibility{Eligible: false, Reason: "product_unavailable"}, nil
	}
	if !product.Negotiable {
		return &model.Eligibility{Eligible: false, Reason: "not_negotiable"}, nil
	}
	if product.SellerID == buyerID {
		return &model.Eligibility{Eligible: false, Reason: "own_product"}, nil
	}

	existing, err := s.repo.FindActive(productID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.Eligibility{Eligible: true}, nil
		}
		return nil, apperr.Internal(response.ErrServerInternal, "查询议价失败", err)
	}

	return &model.Eligibility{
		Eligible:              false,
		Reason:                "active_negotiation_exists",
		ExistingNegotiationID: existing.ID,
	}, nil
}

func (s *negotiationService) GetByID(actorID string, isAdmin bool, id string) (*model.Negotiation, error) {
	n, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(response.ErrNegotiationNotFound, "议价不存在")
		}
		return nil, apperr.Internal(response.ErrServerInternal, "查询议价失败", err)
	}

	if !isAdmin && n.BuyerID != actorID {
		return nil, apperr.Auth(response.ErrNoPermission, "无权查看该议价")
	}
	return n, nil
}

func (s *negotiationService) ListMine(buyerID string, page, limit int) ([]model.Negotiation, int64, error) {
	offset, limit := normalizePage(page, limit)
	return s.repo.ListByBuyer(buyerID, offset, limit)
}

func (s *negotiationService) ListPending(page, limit int) ([]model.Negotiation, int64, error) {
	s.expireStale()
	offset, limit := normalizePage(page, limit)
	return s.repo.ListByStatus(model.StatusPending, offset, limit)
}

// Approve 审核通过（管理员）
// finalPrice 为空时默认按买家出价成交
func (s *negotiationService) Approve(id string, finalPrice *int64, adminNote string) (*model.Negotiation, error) {
	n, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(response.ErrNegotiationNotFound, "议价不存在")
		}
		return nil, apperr.Internal(response.ErrServerInternal, "查询议价失败", err)
	}

	price := n.OfferPrice
	if finalPrice != nil {
		if *finalPrice <= 0 {
			return nil, apperr.Validation(response.ErrOfferOutOfRange, "成交价必须大于 0")
		}
		price = *finalPrice
	}

	ok, err := s.repo.Approve(id, price, adminNote)
	if err != nil {
		return nil, apperr.Internal(response.ErrServerInternal, "审核议价失败", err)
	}
	if !ok {
		// 非 pending：已审核过、已过期或已撤回
		return nil, apperr.State(response.ErrNegotiationNotPending, "议价当前状态不允许审核")
	}

	s.invalidateEligibility(n.ProductID, n.BuyerID)
	metrics.NegotiationReviewed.WithLabelValues("approved").Inc()

	s.notifier.Dispatch(notify.Event{
		RecipientID: n.BuyerID,
		Kind:        notify.KindNegotiationApproved,
		Title:       "议价审核通过",
		Body:        fmt.Sprintf("您的出价已通过，成交价 %d，快去下单吧", price),
		DeepLink:    "/negotiations/" + n.ID,
	})

	return s.repo.GetByID(id)
}

// Reject 驳回（管理员）
func (s *negotiationService) Reject(id string, reason string) (*model.Negotiation, error) {
	n, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(response.ErrNegotiationNotFound, "议价不存在")
		}
		return nil, apperr.Internal(response.ErrServerInternal, "查询议价失败", err)
	}

	ok, err := s.repo.Reject(id, reason)
	if err != nil {
		return nil, apperr.Internal(response.ErrServerInternal, "驳回议价失败", err)
	}
	if !ok {
		return nil, apperr.State(response.ErrNegotiationNotPending, "议价当前状态不允许驳回")
	}

	s.invalidateEligibility(n.ProductID, n.BuyerID)
	metrics.NegotiationReviewed.WithLabelValues("rejected").Inc()

	s.notifier.Dispatch(notify.Event{
		RecipientID: n.BuyerID,
		Kind:        notify.KindNegotiationRejected,
		Title:       "议价未通过",
		Body:        "很遗憾，您的出价未被接受：" + reason,
		DeepLink:    "/negotiations/" + n.ID,
	})

	return s.repo.GetByID(id)
}

// Cancel 买家撤回自己的 pending 议价，落库为 rejected + 系统原因
func (s *negotiationService) Cancel(id, buyerID string) error {
	n, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(response.ErrNegotiationNotFound, "议价不存在")
		}
		return apperr.Internal(response.ErrServerInternal, "查询议价失败", err)
	}

	if n.BuyerID != buyerID {
		return apperr.Auth(response.ErrNoPermission, "只能撤回自己的议价")
	}

	ok, err := s.repo.Reject(id, model.CancelReason)
	if err != nil {
		return apperr.Internal(response.ErrServerInternal, "撤回议价失败", err)
	}
	if !ok {
		return apperr.State(response.ErrNegotiationNotPending, "议价当前状态不允许撤回")
	}

	s.invalidateEligibility(n.ProductID, n.BuyerID)
	metrics.NegotiationReviewed.WithLabelValues("cancelled").Inc()
	return nil
}

func (s *negotiationService) invalidateEligibility(productID, buyerID string) {
	_ = s.cache.Delete(context.Background(), fmt.Sprintf("eligibility:%s:%s", productID, buyerID))
}

func normalizePage(page, limit int) (offset, normalizedLimit int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return (page - 1) * limit, limit
}
