package model

import (
	baseModel "secondhand_market/pkg/model"
)

// Negotiation 议价单
// 同一买家对同一商品最多存在一条进行中（pending/approved）的议价，
// 由 migrations 里的部分唯一索引 uniq_active_negotiation 兜底
type Negotiation struct {
	baseModel.BaseModel
	ProductID    string `gorm:"type:uuid;index;not null" json:"productId"`
	BuyerID      string `gorm:"type:uuid;index;not null" json:"buyerId"`
	OfferPrice   int64  `gorm:"not null" json:"offerPrice"`
	FinalPrice   *int64 `json:"finalPrice,omitempty"` // 审核通过时确定的成交价
	Status       string `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Used         bool   `gorm:"not null;default:false" json:"used"` // 是否已被订单消费，只允许 false -> true 一次
	Note         string `gorm:"type:varchar(200)" json:"note,omitempty"`
	AdminNote    string `gorm:"type:varchar(200)" json:"adminNote,omitempty"`
	RejectReason string `gorm:"type:varchar(200)" json:"rejectReason,omitempty"`
}

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected" // 终态
	StatusExpired  = "expired"  // 终态
	StatusUsed     = "used"     // 终态：已被订单消费
)

// CancelReason 买家主动撤回时的系统填充原因
const CancelReason = "买家主动撤回"

// IsTerminal 是否终态
func (n *Negotiation) IsTerminal() bool {
	return n.Status == StatusRejected || n.Status == StatusExpired || n.Status == StatusUsed
}

// DealPrice 成交价：审核时未单独议定则取出价
func (n *Negotiation) DealPrice() int64 {
	if n.FinalPrice != nil {
		return *n.FinalPrice
	}
	return n.OfferPrice
}

// Eligibility 议价资格查询结果
type Eligibility struct {
	Eligible              bool   `json:"eligible"`
	Reason                string `json:"reason,omitempty"`
	ExistingNegotiationID string `json:"existingNegotiationId,omitempty"`
}
