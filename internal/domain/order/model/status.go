package model

// 订单状态，按流转顺序排列
// 历史上存在两套状态词表，这里统一为当面交易为主的一套：
// created -> confirmed -> waiting_meetup -> meeting_done -> paid -> completed
// 邮寄订单允许向前跳过 meetup 相关状态，cancelled 为独立终态
const (
	StatusCreated       = "created"        // 买家下单
	StatusConfirmed     = "confirmed"      // 卖家确认
	StatusWaitingMeetup = "waiting_meetup" // 等待当面交易
	StatusMeetingDone   = "meeting_done"   // 当面交易完成
	StatusPaid          = "paid"           // 已付款
	StatusCompleted     = "completed"      // 终态
	StatusCancelled     = "cancelled"      // 终态
)

// statusRank 状态序号，流转只允许单调递增
var statusRank = map[string]int{
	StatusCreated:       0,
	StatusConfirmed:     1,
	StatusWaitingMeetup: 2,
	StatusMeetingDone:   3,
	StatusPaid:          4,
	StatusCompleted:     5,
}

// cancellableStatuses 允许买家主动取消的状态集合
// 付款确认或当面交易完成之后不再允许买家取消
var cancellableStatuses = map[string]bool{
	StatusCreated:   true,
	StatusConfirmed: true,
}

// IsValidStatus 是否是合法的目标状态
func IsValidStatus(status string) bool {
	_, ok := statusRank[status]
	return ok || status == StatusCancelled
}

// IsTerminalStatus 是否终态
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// CanTransition 是否允许 from -> to 的流转
// 只能向前，不能回退、不能原地踏步、不能离开终态
// cancelled 不走这里，取消有独立的窗口规则（见 IsCancellable）
func CanTransition(from, to string) bool {
	if IsTerminalStatus(from) {
		return false
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// IsCancellable 当前状态是否在可取消窗口内
func IsCancellable(status string) bool {
	return cancellableStatuses[status]
}

// ReachesPaid 该状态是否意味着款项已经到位
func ReachesPaid(status string) bool {
	rank, ok := statusRank[status]
	return ok && rank >= statusRank[StatusPaid]
}
