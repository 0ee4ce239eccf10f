package response

import (
	"net/http"

	"secondhand_market/pkg/apperr"
	"secondhand_market/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`    // 业务码
	Message string      `json:"message"` // 提示信息
	Data    interface{} `json:"data"`    // 数据
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应 (201)
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// HandleError 将业务错误映射为 HTTP 响应
// 核心层只返回 apperr 结构化错误，状态码映射集中在这里
func HandleError(c *gin.Context, err error) {
	e, ok := apperr.From(err)
	if !ok {
		// 未分类错误按内部错误处理，不暴露细节
		if logger.Log != nil {
			logger.Log.Error("unclassified error", zap.String("path", c.FullPath()), zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, ErrServerInternal, "服务器开小差了，请稍后再试")
		return
	}

	switch e.Kind {
	case apperr.KindValidation:
		Error(c, http.StatusBadRequest, e.Code, e.Message)
	case apperr.KindNotFound:
		Error(c, http.StatusNotFound, e.Code, e.Message)
	case apperr.KindConflict:
		c.JSON(http.StatusConflict, Response{Code: e.Code, Message: e.Message, Data: e.Data})
	case apperr.KindState:
		// 客户端数据过期，提示刷新后重试
		Error(c, http.StatusUnprocessableEntity, e.Code, e.Message)
	case apperr.KindAuth:
		Error(c, http.StatusForbidden, e.Code, e.Message)
	default:
		if logger.Log != nil {
			logger.Log.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, ErrServerInternal, "服务器开小差了，请稍后再试")
	}
}
