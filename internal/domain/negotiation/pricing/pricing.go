package pricing

import "errors"

// 默认最低出价为售价的 70%（向下取整）
// 整数比例运算，价格单位是分，不引入浮点
const (
	floorNumerator   = 7
	floorDenominator = 10
)

// 出价校验失败原因
var (
	ErrNotPositive     = errors.New("offer price must be a positive amount")
	ErrBelowMinimum    = errors.New("offer price below minimum negotiable price")
	ErrNotBelowSelling = errors.New("offer price must be strictly below selling price")
)

// Range 可接受的出价区间
// Min 为闭端点，Max 为开端点（出价必须严格低于售价）
type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// OfferRange 计算商品的可出价区间
// 卖家设置了最低可议价时以卖家设置为准，否则取售价的 70%
func OfferRange(sellingPrice int64, minNegotiable *int64) Range {
	min := sellingPrice * floorNumerator / floorDenominator
	if minNegotiable != nil {
		min = *minNegotiable
	}
	return Range{Min: min, Max: sellingPrice}
}

// ValidateOffer 校验出价是否落在可接受区间内
// 纯函数：客户端可用同样规则做即时提示，但服务端下单/议价前必须重新执行本校验
func ValidateOffer(sellingPrice int64, minNegotiable *int64, offer int64) error {
	if offer <= 0 {
		return ErrNotPositive
	}

	r := OfferRange(sellingPrice, minNegotiable)
	if offer < r.Min {
		return ErrBelowMinimum
	}
	if offer >= r.Max {
		return ErrNotBelowSelling
	}
	return nil
}
