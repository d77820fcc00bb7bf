package merchant

import (
	"strconv"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/http/handlers/shared"
	"github.com/wuyi-mall/internal/http/response"
	"github.com/wuyi-mall/internal/repository"
	"github.com/wuyi-mall/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders 本店订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		ShopID:   shopID,
		OrderNo:  c.Query("order_no"),
	}
	if statusRaw := c.Query("status"); statusRaw != "" {
		if status, err := strconv.Atoi(statusRaw); err == nil {
			filter.Status = &status
		}
	}

	orders, total, err := h.OrderService.ListShopOrders(filter)
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

// GetOrder 本店订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
	if !ok {
		return
	}
	userID, ok := shared.CurrentUserID(c)
	if !ok {
		return
	}
	orderID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetDetail(orderID, userID, constants.RoleMerchant, shopID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

type operateOrderRequest struct {
	OperateType string `json:"operate_type" binding:"required"`
}

// OperateOrder 执行订单操作（商家侧：确认、备货、发货、取消）
func (h *Handler) OperateOrder(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
	if !ok {
		return
	}
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
		ActorRole:   constants.RoleMerchant,
		ActorShopID: shopID,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, "操作成功", nil)
}
