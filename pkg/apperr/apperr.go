package apperr

import (
	"errors"
	"fmt"
)

// Kind 错误类别
// 核心层只返回这几类结构化错误，由传输层统一映射 HTTP 状态码
type Kind int

const (
	KindValidation Kind = iota + 1 // 参数/出价校验失败，可直接提示用户
	KindNotFound                   // 商品/议价/订单不存在
	KindConflict                   // 重复议价、议价已被消费、商品已售出等
	KindState                      // 非法状态流转（客户端数据过期或并发竞争）
	KindAuth                       // 未登录或无权操作
	KindInternal                   // 基础设施错误，对外只暴露通用提示
)

// Error 业务错误
type Error struct {
	Kind    Kind
	Code    int         // 业务码，见 pkg/response/code.go
	Message string      // 用户可见信息
	Data    interface{} // 附带上下文，如冲突时已存在的议价ID
	Err     error       // 底层错误，仅记日志
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, code int, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind Kind, code int, msg string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Err: err}
}

func Validation(code int, msg string) *Error {
	return New(KindValidation, code, msg)
}

func NotFound(code int, msg string) *Error {
	return New(KindNotFound, code, msg)
}

func Conflict(code int, msg string) *Error {
	return New(KindConflict, code, msg)
}

// ConflictData 带上下文的冲突错误，方便客户端跳转而不是重试
func ConflictData(code int, msg string, data interface{}) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg, Data: data}
}

func State(code int, msg string) *Error {
	return New(KindState, code, msg)
}

func Auth(code int, msg string) *Error {
	return New(KindAuth, code, msg)
}

func Internal(code int, msg string, err error) *Error {
	return Wrap(KindInternal, code, msg, err)
}

// From 尝试提取业务错误
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind 判断错误类别
func IsKind(err error, kind Kind) bool {
	if e, ok := From(err); ok {
		return e.Kind == kind
	}
	return false
}
