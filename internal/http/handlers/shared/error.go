package shared

import (
	"errors"

	"github.com/wuyi-mall/internal/http/response"
	"github.com/wuyi-mall/internal/logger"
	"github.com/wuyi-mall/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondServiceError 按错误类别映射业务错误到响应码。
// 业务错误直接透出错误消息；未识别的错误按内部错误处理并记日志
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		response.Error(c, response.CodeBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.Error(c, response.CodeNotFound, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		response.Error(c, response.CodeForbidden, err.Error())
	case errors.Is(err, service.ErrStateConflict):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrExternalVerification):
		response.Error(c, response.CodeBadRequest, err.Error())
	default:
		RequestLog(c).Errorw("handler_error", "error", err)
		response.Error(c, response.CodeInternal, "服务器内部错误")
	}
}

// RespondErrorWithMsg 返回自定义消息错误响应，并在有原始错误时记录日志。
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}
