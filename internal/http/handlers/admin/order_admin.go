package admin

import (
	"strconv"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/http/handlers/shared"
	"github.com/wuyi-mall/internal/http/response"
	"github.com/wuyi-mall/internal/repository"
	"github.com/wuyi-mall/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders 全量订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		OrderNo:  c.Query("order_no"),
	}
	if userIDRaw := c.Query("user_id"); userIDRaw != "" {
		if userID, err := strconv.ParseUint(userIDRaw, 10, 64); err == nil {
			filter.UserID = uint(userID)
		}
	}
	if statusRaw := c.Query("status"); statusRaw != "" {
		if status, err := strconv.Atoi(statusRaw); err == nil {
			filter.Status = &status
		}
	}

	orders, total, err := h.OrderService.ListUserOrders(filter)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := shared.CurrentUserID(c)
	if !ok {
		return
	}
	orderID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetDetail(orderID, userID, constants.RoleAdmin, 0)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

type operateOrderRequest struct {
	OperateType string `json:"operate_type" binding:"required"`
}

// OperateOrder 执行订单操作（管理员可代执行全部操作）
func (h *Handler) OperateOrder(c *gin.Context) {
	userID, ok := shared.CurrentUserID(c)
	if !ok {
		return
	}
	orderID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	var req operateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数不合法")
		return
	}
	err := h.OrderService.Operate(service.OperateInput{
		OrderID:     orderID,
		OperateType: req.OperateType,
		ActorID:     userID,
		ActorRole:   constants.RoleAdmin,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, "操作成功", nil)
}

// GetOrderLogs 订单操作日志
func (h *Handler) GetOrderLogs(c *gin.Context) {
	userID, ok := shared.CurrentUserID(c)
	if !ok {
		return
	}
	orderID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	logs, err := h.OrderService.ListOperateLogs(orderID, userID, constants.RoleAdmin, 0)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, logs)
}
