package repository

import (
	"errors"
	"time"

	"secondhand_market/internal/domain/negotiation/model"

	"gorm.io/gorm"
)

// ErrAlreadyConsumed 议价已被其他订单消费
var ErrAlreadyConsumed = errors.New("negotiation already consumed")

type NegotiationRepository interface {
	// Create 插入 pending 议价；活跃议价重复时返回 gorm.ErrDuplicatedKey
	Create(n *model.Negotiation) error
	GetByID(id string) (*model.Negotiation, error)
	// FindActive 查找买家在该商品上进行中（pending/approved）的议价
	FindActive(productID, buyerID string) (*model.Negotiation, error)
	ListByBuyer(buyerID string, offset, limit int) ([]model.Negotiation, int64, error)
	ListByStatus(status string, offset, limit int) ([]model.Negotiation, int64, error)
	// Approve 条件更新：仅 pending 可审核通过，返回是否命中
	Approve(id string, finalPrice int64, adminNote string) (bool, error)
	// Reject 条件更新：仅 pending 可驳回（买家撤回也走这里），返回是否命中
	Reject(id string, reason string) (bool, error)
	// ExpireBefore 批量过期截止时间之前创建的 pending 议价，返回过期条数
	ExpireBefore(cutoff time.Time) (int64, error)
	// Consume 在 tx 内消费已批准的议价，exactly-once 的核心守卫
	Consume(tx *gorm.DB, id string) error
}

type negotiationRepository struct {
	db *gorm.DB
}

func NewNegotiationRepository(db *gorm.DB) NegotiationRepository {
	return &negotiationRepository{db: db}
}

func (r *negotiationRepository) Create(n *model.Negotiation) error {
	return r.db.Create(n).Error
}

func (r *negotiationRepository) GetByID(id string) (*model.Negotiation, error) {
	var n model.Negotiation
	if err := r.db.First(&n, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *negotiationRepository) FindActive(productID, buyerID string) (*model.Negotiation, error) {
	var n model.Negotiation
	err := r.db.
		Where("product_id = ? AND buyer_id = ? AND status IN ?",
			productID, buyerID, []string{model.StatusPending, model.StatusApproved}).
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *negotiationRepository) ListByBuyer(buyerID string, offset, limit int) ([]model.Negotiation, int64, error) {
	query := r.db.Model(&model.Negotiation{}).Where("buyer_id = ?", buyerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Negotiation
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *negotiationRepository) ListByStatus(status string, offset, limit int) ([]model.Negotiation, int64, error) {
	query := r.db.Model(&model.Negotiation{}).Where("status = ?", status)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Negotiation
	err := query.Order("created_at ASC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

// Approve 乐观更新：WHERE status = 'pending' 保证只有一次审核生效
func (r *negotiationRepository) Approve(id string, finalPrice int64, adminNote string) (bool, error) {
	result := r.db.Model(&model.Negotiation{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		UpdateColumns(map[string]interface{}{
			"status":      model.StatusApproved,
			"final_price": finalPrice,
			"admin_note":  adminNote,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *negotiationRepository) Reject(id string, reason string) (bool, error) {
	result := r.db.Model(&model.Negotiation{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		UpdateColumns(map[string]interface{}{
			"status":        model.StatusRejected,
			"reject_reason": reason,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *negotiationRepository) ExpireBefore(cutoff time.Time) (int64, error) {
	result := r.db.Model(&model.Negotiation{}).
		Where("status = ? AND created_at < ?", model.StatusPending, cutoff).
		UpdateColumns(map[string]interface{}{
			"status":     model.StatusExpired,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// Consume 条件更新 approved 且未消费的议价为已消费
// 订单创建事务内调用；两个并发订单抢同一条议价时只有一个能命中
func (r *negotiationRepository) Consume(tx *gorm.DB, id string) error {
	result := tx.Model(&model.Negotiation{}).
		Where("id = ? AND status = ? AND used = ?", id, model.StatusApproved, false).
		UpdateColumns(map[string]interface{}{
			"status":     model.StatusUsed,
			"used":       true,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyConsumed
	}
	return nil
}
