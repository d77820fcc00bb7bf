package public

import (
	"github.com/wuyi-mall/internal/http/handlers/shared"
	"github.com/wuyi-mall/internal/http/response"
	"github.com/wuyi-mall/internal/service"

	"github.com/gin-gonic/gin"
)

type initiatePayRequest struct {
	PayType    string `json:"pay_type" binding:"required"`
	CardNumber string `json:"card_number"`
}

// InitiatePay 对订单发起支付
func (h *Handler) InitiatePay(c *gin.Context) {
	userID, ok := shared.CurrentUserID(c)
	if !ok {
		return
	}
	orderID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	var req initiatePayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数不合法")
		return
	}
	result, err := h.PayService.InitiatePay(c.Request.Context(), service.InitiatePayInput{
		OrderID:    orderID,
		UserID:     userID,
		PayType:    req.PayType,
		ClientIP:   c.ClientIP(),
		CardNumber: req.CardNumber,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// GetPaymentRecord 支付记录详情
func (h *Handler) GetPaymentRecord(c *gin.Context) {
	userID, ok := shared.CurrentUserID(c)
	if !ok {
		return
	}
	recordID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	record, err := h.PayService.GetRecord(recordID, userID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, record)
}
