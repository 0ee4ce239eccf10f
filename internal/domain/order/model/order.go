package model

import (
	"time"

	baseModel "secondhand_market/pkg/model"
)

// Order 订单
// FinalPrice 来自议价成交价或商品售价，创建后不再变动
type Order struct {
	baseModel.BaseModel
	OrderNo       string     `gorm:"unique;not null" json:"orderNo"`
	ProductID     string     `gorm:"type:uuid;index;not null" json:"productId"`
	BuyerID       string     `gorm:"type:uuid;index;not null" json:"buyerId"`
	SellerID      string     `gorm:"type:uuid;index;not null" json:"sellerId"`
	NegotiationID *string    `gorm:"type:uuid" json:"negotiationId,omitempty"`
	FinalPrice    int64      `gorm:"not null" json:"finalPrice"`
	PaymentMethod string     `gorm:"type:varchar(20);not null" json:"paymentMethod"` // transfer, cod
	DeliveryType  string     `gorm:"type:varchar(20);not null" json:"deliveryType"`  // meetup, shipping
	Status        string     `gorm:"type:varchar(20);default:'created'" json:"status"`
	PaymentStatus string     `gorm:"type:varchar(20);default:'unpaid'" json:"paymentStatus"`
	CancelReason  string     `gorm:"type:varchar(200)" json:"cancelReason,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

const (
	PaymentMethodTransfer = "transfer"
	PaymentMethodCOD      = "cod" // 当面交易/货到付款

	DeliveryMeetup   = "meetup"
	DeliveryShipping = "shipping"

	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// OrderStatusLog 订单状态流水，只追加不修改
// 只由订单仓储在状态变更事务内写入，客户端不能直接创建
type OrderStatusLog struct {
	baseModel.BaseModel
	OrderID  string `gorm:"type:uuid;index;not null" json:"orderId"`
	ToStatus string `gorm:"type:varchar(20);not null" json:"toStatus"`
	Note     string `gorm:"type:varchar(200)" json:"note,omitempty"`
}
