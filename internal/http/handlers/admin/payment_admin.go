package admin

import (
	"encoding/json"
	"strconv"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/http/handlers/shared"
	"github.com/wuyi-mall/internal/http/response"
	"github.com/wuyi-mall/internal/models"
	"github.com/wuyi-mall/internal/payment"
	"github.com/wuyi-mall/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListPayments 支付记录列表
func (h *Handler) ListPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.PaymentRecordListFilter{
		Page:     page,
		PageSize: pageSize,
		OrderNo:  c.Query("order_no"),
		PayType:  c.Query("pay_type"),
	}
	if statusRaw := c.Query("status"); statusRaw != "" {
		if status, err := strconv.Atoi(statusRaw); err == nil {
			filter.Status = &status
		}
	}
	if userIDRaw := c.Query("user_id"); userIDRaw != "" {
		if userID, err := strconv.ParseUint(userIDRaw, 10, 64); err == nil {
			filter.UserID = uint(userID)
		}
	}

	records, total, err := h.PayService.ListRecords(filter)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, records, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetPayment 支付记录详情
func (h *Handler) GetPayment(c *gin.Context) {
	recordID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	record, err := h.PaymentRecordRepo.GetByID(recordID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	if record == nil {
		response.NotFound(c, "支付记录不存在")
		return
	}
	response.Success(c, record)
}

type upsertChannelRequest struct {
	PayType string                 `json:"pay_type" binding:"required"`
	Name    string                 `json:"name" binding:"required"`
	Config  map[string]interface{} `json:"config" binding:"required"`
	Status  *int                   `json:"status" binding:"required"`
}

// UpsertPaymentChannel 保存支付渠道配置
func (h *Handler) UpsertPaymentChannel(c *gin.Context) {
	var req upsertChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == nil {
		response.BadRequest(c, "请求参数不合法")
		return
	}
	if _, err := payment.Resolve(req.PayType); err != nil {
		response.BadRequest(c, "不支持的支付方式")
		return
	}
	if *req.Status != constants.PaymentChannelEnabled && *req.Status != constants.PaymentChannelDisabled {
		response.BadRequest(c, "渠道状态不合法")
		return
	}
	configJSON, err := json.Marshal(req.Config)
	if err != nil {
		response.BadRequest(c, "渠道配置不合法")
		return
	}

	channel := &models.PaymentChannel{
		PayType: req.PayType,
		Name:    req.Name,
		Config:  string(configJSON),
		Status:  *req.Status,
	}
	if err := h.PaymentChannelRepo.Upsert(channel); err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, channel)
}

// ListPaymentChannels 已启用的支付渠道列表
func (h *Handler) ListPaymentChannels(c *gin.Context) {
	channels, err := h.PaymentChannelRepo.ListEnabled()
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, channels)
}
