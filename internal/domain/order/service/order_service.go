package service

import (
	"errors"
	"fmt"
	"time"

	negotiationModel "secondhand_market/internal/domain/negotiation/model"
	negotiationRepo "secondhand_market/internal/domain/negotiation/repository"
	"secondhand_market/internal/domain/order/model"
	"secondhand_market/internal/domain/order/repository"
	productModel "secondhand_market/internal/domain/product/model"
	productRepo "secondhand_market/internal/domain/product/repository"
	"secondhand_market/internal/pkg/notify"
	"secondhand_market/pkg/apperr"
	"secondhand_market/pkg/metrics"
	"secondhand_market/pkg/response"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderService interface {
	Create(buyerID string, in CreateInput) (*model.Order, error)
	GetByID(actorID string, isAdmin bool, id string) (*model.Order, error)
	ListMine(buyerID string, page, limit int) ([]model.Order, int64, error)
	ListSales(sellerID string, page, limit int) ([]model.Order, int64, error)
	Transition(actorID string, isAdmin bool, orderID, to, note string) (*model.Order, error)
	Cancel(orderID, buyerID, reason string) error
	History(actorID string, isAdmin bool, orderID string) ([]model.OrderStatusLog, error)
}

// CreateInput 买家下单
// 成交价由服务端根据议价/售价决定，不接受客户端价格
type CreateInput struct {
	ProductID     string
	NegotiationID *string
	PaymentMethod string
	DeliveryType  string
}

type orderService struct {
	repo         repository.OrderRepository
	products     productRepo.ProductRepository
	negotiations negotiationRepo.NegotiationRepository
	notifier     *notify.Dispatcher
}

func NewOrderService(
	repo repository.OrderRepository,
	products productRepo.ProductRepository,
	negotiations negotiationRepo.NegotiationRepository,
	notifier *notify.Dispatcher,
) OrderService {
	return &orderService{repo: repo, products: products, negotiations: negotiations, notifier: notifier}
}

func (s *orderService) Create(buyerID string, in CreateInput) (*model.Order, error) {
	// 1. 权威商品读取（直查数据库，不走缓存）
	product, err := s.products.GetByID(in.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(response.ErrProductNotFound, "商品不存在")
		}
		return nil, apperr.Internal(response.ErrServerInternal, "查询商品失败", err)
	}
	if product.Status != productModel.StatusAvailable {
		return nil, apperr.Conflict(response.ErrProductUnavailable, "商品已售出或已下架")
	}
	if product.SellerID == buyerID {
		return nil, apperr.Validation(response.ErrOwnProduct, "不能购买自己的商品")
	}

	// 2. 议价校验 + 成交价计算
	finalPrice := product.SellingPrice
	if in.NegotiationID != nil {
		n, err := s.negotiations.GetByID(*in.NegotiationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound(response.ErrNegotiationNotFound, "议价不存在")
			}
			return nil, apperr.Internal(response.ErrServerInternal, "查询议价失败", err)
		}

		if n.BuyerID != buyerID {
			return nil, apperr.Auth(response.ErrNoPermission, "只能使用自己的议价下单")
		}
		if n.ProductID != in.ProductID {
			return nil, apperr.Validation(response.ErrNegotiationMismatch, "议价与商品不匹配")
		}
		if n.Used {
			return nil, apperr.Conflict(response.ErrNegotiationUsed, "议价已被使用")
		}
		if n.Status != negotiationModel.StatusApproved {
			return nil, apperr.State(response.ErrNegotiationNotApproved, "议价尚未审核通过")
		}

		// 锁定议价时的成交价，下单后商品改价不影响订单
		finalPrice = n.DealPrice()
	}

	// 3. 配送方式默认值：当面交易类支付默认 meetup
	deliveryType := in.DeliveryType
	if deliveryType == "" {
		if in.PaymentMethod == model.PaymentMethodCOD {
			deliveryType = model.DeliveryMeetup
		} else {
			deliveryType = model.DeliveryShipping
		}
	}

	order := &model.Order{
		OrderNo:       generateOrderNo(),
		ProductID:     in.ProductID,
		BuyerID:       buyerID,
		SellerID:      product.SellerID,
		NegotiationID: in.NegotiationID,
		FinalPrice:    finalPrice,
		PaymentMethod: in.PaymentMethod,
		DeliveryType:  deliveryType,
		Status:        model.StatusCreated,
		PaymentStatus: model.PaymentStatusUnpaid,
	}

	// 4. 原子创建：订单插入 + 议价消费 + 商品置为已售在同一事务内
	if err := s.repo.CreateOrder(order); err != nil {
		switch {
		case errors.Is(err, negotiationRepo.ErrAlreadyConsumed):
			// 并发抢单输掉的一方
			metrics.NegotiationConsumeConflicts.Inc()
			return nil, apperr.Conflict(response.ErrNegotiationUsed, "议价已被使用")
		case errors.Is(err, repository.ErrProductNotSellable):
			return nil, apperr.Conflict(response.ErrProductUnavailable, "商品已售出或已下架")
		default:
			return nil, apperr.Internal(response.ErrServerInternal, "创建订单失败", err)
		}
	}

	metrics.OrderCreated.WithLabelValues(order.PaymentMethod).Inc()

	// 通知卖家，失败不回滚订单
	s.notifier.Dispatch(notify.Event{
		RecipientID: product.SellerID,
		Kind:        notify.KindOrderCreated,
		Title:       "您有新订单",
		Body:        fmt.Sprintf("「%s」已被下单，成交价 %d", product.Title, finalPrice),
		DeepLink:    "/orders/" + order.ID,
	})

	return order, nil
}

func (s *orderService) GetByID(actorID string, isAdmin bool, id string) (*model.Order, error) {
	order, err := s.loadOrder(id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !isParticipant(order, actorID) {
		return nil, apperr.Auth(response.ErrNotOrderParticipant, "无权查看该订单")
	}
	return order, nil
}

func (s *orderService) ListMine(buyerID string, page, limit int) ([]model.Order, int64, error) {
	offset, limit := normalizePage(page, limit)
	return s.repo.ListByBuyer(buyerID, offset, limit)
}

func (s *orderService) ListSales(sellerID string, page, limit int) ([]model.Order, int64, error) {
	offset, limit := normalizePage(page, limit)
	return s.repo.ListBySeller(sellerID, offset, limit)
}

// Transition 推进订单状态
// 只允许沿状态序向前流转；到达 paid 及之后的状态自动落 payment_status
func (s *orderService) Transition(actorID string, isAdmin bool, orderID, to, note string) (*model.Order, error) {
	if !model.IsValidStatus(to) || to == model.StatusCancelled {
		// 取消有独立入口和窗口规则
		return nil, apperr.Validation(response.ErrInvalidTransition, "非法的目标状态")
	}

	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !isParticipant(order, actorID) {
		return nil, apperr.Auth(response.ErrNotOrderParticipant, "无权操作该订单")
	}

	if !model.CanTransition(order.Status, to) {
		return nil, apperr.State(response.ErrInvalidTransition,
			fmt.Sprintf("订单不能从 %s 流转到 %s", order.Status, to))
	}

	markPaid := model.ReachesPaid(to) && order.PaymentStatus != model.PaymentStatusPaid

	if err := s.repo.UpdateStatus(orderID, order.Status, to, note, markPaid); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			// 读取和更新之间被并发修改，让客户端刷新后重试
			return nil, apperr.State(response.ErrInvalidTransition, "订单状态已变化，请刷新后重试")
		}
		return nil, apperr.Internal(response.ErrServerInternal, "更新订单状态失败", err)
	}

	metrics.OrderTransitions.WithLabelValues(to).Inc()
	s.notifyStatusChange(order, actorID, to)

	return s.loadOrder(orderID)
}

// Cancel 买家取消订单，只在可取消窗口内有效
func (s *orderService) Cancel(orderID, buyerID, reason string) error {
	order, err := s.loadOrder(orderID)
	if err != nil {
		return err
	}
	if order.BuyerID != buyerID {
		return apperr.Auth(response.ErrNotOrderParticipant, "只有买家本人可以取消订单")
	}

	if !model.IsCancellable(order.Status) {
		return apperr.State(response.ErrOrderNotCancellable, "订单当前状态不允许取消")
	}

	if err := s.repo.Cancel(order, order.Status, reason); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return apperr.State(response.ErrOrderNotCancellable, "订单状态已变化，请刷新后重试")
		}
		return apperr.Internal(response.ErrServerInternal, "取消订单失败", err)
	}

	metrics.OrderTransitions.WithLabelValues(model.StatusCancelled).Inc()

	s.notifier.Dispatch(notify.Event{
		RecipientID: order.SellerID,
		Kind:        notify.KindOrderStatusChanged,
		Title:       "订单已取消",
		Body:        "买家取消了订单：" + reason,
		DeepLink:    "/orders/" + order.ID,
	})

	return nil
}

func (s *orderService) History(actorID string, isAdmin bool, orderID string) ([]model.OrderStatusLog, error) {
	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !isParticipant(order, actorID) {
		return nil, apperr.Auth(response.ErrNotOrderParticipant, "无权查看该订单")
	}
	logs, err := s.repo.ListLogs(orderID)
	if err != nil {
		return nil, apperr.Internal(response.ErrServerInternal, "查询订单流水失败", err)
	}
	return logs, nil
}

func (s *orderService) loadOrder(id string) (*model.Order, error) {
	order, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(response.ErrOrderNotFound, "订单不存在")
		}
		return nil, apperr.Internal(response.ErrServerInternal, "查询订单失败", err)
	}
	return order, nil
}

// notifyStatusChange 通知交易对手方
func (s *orderService) notifyStatusChange(order *model.Order, actorID, to string) {
	recipient := order.SellerID
	if actorID == order.SellerID {
		recipient = order.BuyerID
	}

	s.notifier.Dispatch(notify.Event{
		RecipientID: recipient,
		Kind:        notify.KindOrderStatusChanged,
		Title:       "订单状态更新",
		Body:        fmt.Sprintf("订单 %s 已进入 %s 状态", order.OrderNo, to),
		DeepLink:    "/orders/" + order.ID,
	})
}

func isParticipant(order *model.Order, actorID string) bool {
	return order.BuyerID == actorID || order.SellerID == actorID
}

// generateOrderNo 订单号：时间戳 + UUID 片段
func generateOrderNo() string {
	return fmt.Sprintf("%s%s", time.Now().Format("20060102150405"), uuid.New().String()[:8])
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
