package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 商品模块错误 100xx
	ErrProductNotFound       = 10001
	ErrProductUnavailable    = 10002
	ErrProductNotNegotiable  = 10003
	ErrInvalidMinPrice       = 10004
	ErrNotProductSeller      = 10005

	// 议价模块错误 200xx
	ErrNegotiationNotFound    = 20001
	ErrOfferOutOfRange        = 20002
	ErrNegotiationExists      = 20003
	ErrNegotiationNotPending  = 20004
	ErrNegotiationNotApproved = 20005
	ErrNegotiationUsed        = 20006
	ErrNegotiationMismatch    = 20007
	ErrOwnProduct             = 20008

	// 订单模块错误 300xx
	ErrOrderNotFound      = 30001
	ErrInvalidTransition  = 30002
	ErrOrderNotCancellable = 30003
	ErrNotOrderParticipant = 30004

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
	ErrAuthFailed      = 50004
	ErrTokenInvalid    = 50005
	ErrNoPermission    = 50006
)
