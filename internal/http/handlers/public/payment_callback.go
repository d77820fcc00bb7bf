package public

import (
	"io"
	"net/http"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/http/handlers/shared"
	"github.com/wuyi-mall/internal/payment"

	"github.com/gin-gonic/gin"
)

// AlipayCallback 支付宝异步通知。网关要求应答 success / fail 纯文本
func (h *Handler) AlipayCallback(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "fail")
		return
	}
	req := payment.CallbackRequest{Form: c.Request.Form}
	if err := h.PayService.HandleCallback(c.Request.Context(), constants.PayTypeAlipay, req); err != nil {
		shared.RequestLog(c).Warnw("alipay_callback_rejected", "error", err)
		c.String(http.StatusOK, "fail")
		return
	}
	c.String(http.StatusOK, "success")
}

// CreditCardCallback 信用卡网关异步通知，应答约定同表单类渠道
func (h *Handler) CreditCardCallback(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "fail")
		return
	}
	req := payment.CallbackRequest{Form: c.Request.Form}
	if err := h.PayService.HandleCallback(c.Request.Context(), constants.PayTypeCreditCard, req); err != nil {
		shared.RequestLog(c).Warnw("credit_card_callback_rejected", "error", err)
		c.String(http.StatusOK, "fail")
		return
	}
	c.String(http.StatusOK, "success")
}

// WechatCallback 微信支付 V3 异步通知。验签需要完整请求头与原始报文
func (h *Handler) WechatCallback(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "FAIL", "message": "读取报文失败"})
		return
	}
	headers := make(map[string]string, len(c.Request.Header))
	for key := range c.Request.Header {
		headers[key] = c.GetHeader(key)
	}
	req := payment.CallbackRequest{Headers: headers, Body: body}
	if err := h.PayService.HandleCallback(c.Request.Context(), constants.PayTypeWechat, req); err != nil {
		shared.RequestLog(c).Warnw("wechat_callback_rejected", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "FAIL", "message": "处理失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS"})
}
