package repository

import (
	"errors"
	"time"

	negotiationRepo "secondhand_market/internal/domain/negotiation/repository"
	"secondhand_market/internal/domain/order/model"
	productModel "secondhand_market/internal/domain/product/model"

	"gorm.io/gorm"
)

var (
	// ErrProductNotSellable 商品已被抢先下单或下架
	ErrProductNotSellable = errors.New("product is no longer sellable")
	// ErrStatusChanged 条件更新未命中，订单状态已被并发修改
	ErrStatusChanged = errors.New("order status changed concurrently")
)

type OrderRepository interface {
	// CreateOrder 单事务完成：商品置为已售 + 消费议价 + 插入订单 + 写初始流水
	// 任何一步失败整体回滚，不会出现"订单已建而议价未消费"的中间态
	CreateOrder(order *model.Order) error
	GetByID(id string) (*model.Order, error)
	ListByBuyer(buyerID string, offset, limit int) ([]model.Order, int64, error)
	ListBySeller(sellerID string, offset, limit int) ([]model.Order, int64, error)
	// UpdateStatus 条件更新 WHERE status = expected，同一事务追加流水
	UpdateStatus(orderID, expected, to, note string, markPaid bool) error
	// Cancel 取消订单并释放商品，expected 同样做并发守卫
	Cancel(order *model.Order, expected, reason string) error
	ListLogs(orderID string) ([]model.OrderStatusLog, error)
}

type orderRepository struct {
	db           *gorm.DB
	negotiations negotiationRepo.NegotiationRepository
}

func NewOrderRepository(db *gorm.DB, negotiations negotiationRepo.NegotiationRepository) OrderRepository {
	return &orderRepository{db: db, negotiations: negotiations}
}

func (r *orderRepository) CreateOrder(order *model.Order) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 1. 商品置为已售，条件命中才算抢到（二手商品单件，天然防止重复下单）
		result := tx.Model(&productModel.Product{}).
			Where("id = ? AND status = ?", order.ProductID, productModel.StatusAvailable).
			UpdateColumn("status", productModel.StatusSold)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProductNotSellable
		}

		// 2. 消费议价：approved 且未消费才能命中，并发抢单只有一个成功
		if order.NegotiationID != nil {
			if err := r.negotiations.Consume(tx, *order.NegotiationID); err != nil {
				return err
			}
		}

		// 3. 插入订单
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		// 4. 初始状态流水
		log := &model.OrderStatusLog{
			OrderID:  order.ID,
			ToStatus: order.Status,
			Note:     "订单创建",
		}
		return tx.Create(log).Error
	})
}

func (r *orderRepository) GetByID(id string) (*model.Order, error) {
	var order model.Order
	if err := r.db.First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByBuyer(buyerID string, offset, limit int) ([]model.Order, int64, error) {
	return r.list("buyer_id = ?", buyerID, offset, limit)
}

func (r *orderRepository) ListBySeller(sellerID string, offset, limit int) ([]model.Order, int64, error) {
	return r.list("seller_id = ?", sellerID, offset, limit)
}

func (r *orderRepository) list(cond, id string, offset, limit int) ([]model.Order, int64, error) {
	query := r.db.Model(&model.Order{}).Where(cond, id)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []model.Order
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, total, err
}

func (r *orderRepository) UpdateStatus(orderID, expected, to, note string, markPaid bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		}
		if markPaid {
			now := time.Now()
			updates["payment_status"] = model.PaymentStatusPaid
			updates["paid_at"] = now
		}

		result := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", orderID, expected).
			UpdateColumns(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStatusChanged
		}

		log := &model.OrderStatusLog{
			OrderID:  orderID,
			ToStatus: to,
			Note:     note,
		}
		return tx.Create(log).Error
	})
}

func (r *orderRepository) Cancel(order *model.Order, expected, reason string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", order.ID, expected).
			UpdateColumns(map[string]interface{}{
				"status":        model.StatusCancelled,
				"cancel_reason": reason,
				"updated_at":    time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStatusChanged
		}

		// 释放商品重新上架；若商品已被卖家下架则保持原状
		if err := tx.Model(&productModel.Product{}).
			Where("id = ? AND status = ?", order.ProductID, productModel.StatusSold).
			UpdateColumn("status", productModel.StatusAvailable).Error; err != nil {
			return err
		}

		log := &model.OrderStatusLog{
			OrderID:  order.ID,
			ToStatus: model.StatusCancelled,
			Note:     reason,
		}
		return tx.Create(log).Error
	})
}

func (r *orderRepository) ListLogs(orderID string) ([]model.OrderStatusLog, error) {
	var logs []model.OrderStatusLog
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&logs).Error
	return logs, err
}
