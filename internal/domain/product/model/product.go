package model

import (
	"encoding/json"

	baseModel "secondhand_market/pkg/model"
)

// Product 二手商品
// 价格一律使用最小货币单位（分），避免浮点误差
type Product struct {
	baseModel.BaseModel
	SellerID           string          `gorm:"type:uuid;index;not null" json:"sellerId"`
	Title              string          `gorm:"type:varchar(255);not null" json:"title"`
	Description        string          `gorm:"type:text" json:"description"`
	Category           string          `gorm:"type:varchar(50);index" json:"category"`  // phone, laptop, camera...
	Condition          string          `gorm:"type:varchar(20)" json:"condition"`       // like_new, good, fair
	ImageURLs          json.RawMessage `gorm:"type:jsonb" json:"imageUrls"`
	SellingPrice       int64           `gorm:"not null" json:"sellingPrice"`
	Negotiable         bool            `gorm:"not null;default:false" json:"negotiable"`
	MinNegotiablePrice *int64          `json:"minNegotiablePrice,omitempty"` // 卖家指定的最低可议价，必须 <= SellingPrice
	Status             string          `gorm:"type:varchar(20);default:'available';index" json:"status"`
}

const (
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable" // 卖家下架
	StatusSold        = "sold"
)

// Filter 商品列表筛选条件
type Filter struct {
	Keyword  string `form:"keyword"`
	Category string `form:"category"`
	MinPrice int64  `form:"min_price"`
	MaxPrice int64  `form:"max_price"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}
