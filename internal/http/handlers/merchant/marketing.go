package merchant

import (
	"strconv"
	"time"

	"github.com/wuyi-mall/internal/http/handlers/shared"
	"github.com/wuyi-mall/internal/http/response"
	"github.com/wuyi-mall/internal/models"
	"github.com/wuyi-mall/internal/service"

	"github.com/gin-gonic/gin"
)

type publishCouponRequest struct {
	Name      string       `json:"name" binding:"required"`
	Type      int          `json:"type" binding:"required"`
	Threshold models.Money `json:"threshold"`
	Value     models.Money `json:"value" binding:"required"`
	TotalNum  int          `json:"total_num" binding:"required"`
	StartTime time.Time    `json:"start_time" binding:"required"`
	EndTime   time.Time    `json:"end_time" binding:"required"`
	ScopeIDs  []uint       `json:"scope_ids"`
}

// PublishCoupon 发布优惠券
func (h *Handler) PublishCoupon(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
	if !ok {
		return
	}
	var req publishCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数不合法")
		return
	}
	coupon, err := h.MarketingService.PublishCoupon(shopID, service.PublishCouponInput{
		Name:      req.Name,
		Type:      req.Type,
		Threshold: req.Threshold,
		Value:     req.Value,
		TotalNum:  req.TotalNum,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		ScopeIDs:  req.ScopeIDs,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, coupon)
}

// ListCoupons 本店优惠券列表
func (h *Handler) ListCoupons(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	coupons, total, err := h.MarketingService.ListShopCoupons(shopID, page, pageSize)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, coupons, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// OfflineCoupon 下线优惠券
func (h *Handler) OfflineCoupon(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
	if !ok {
		return
	}
	couponID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.MarketingService.OfflineCoupon(shopID, couponID); err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, "优惠券已下线", nil)
}

type publishActivityRequest struct {
	Name         string       `json:"name" binding:"required"`
	DiscountRate models.Money `json:"discount_rate" binding:"required"`
	StartTime    time.Time    `json:"start_time" binding:"required"`
	EndTime      time.Time    `json:"end_time" binding:"required"`
	ProductIDs   []uint       `json:"product_ids" binding:"required"`
}

// PublishActivity 发布折扣活动
func (h *Handler) PublishActivity(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
	if !ok {
		return
	}
	var req publishActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数不合法")
		return
	}
	activity, err := h.MarketingService.PublishActivity(shopID, service.PublishActivityInput{
		Name:         req.Name,
		DiscountRate: req.DiscountRate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		ProductIDs:   req.ProductIDs,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, activity)
}

// ListActivities 本店折扣活动列表
func (h *Handler) ListActivities(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
	if !ok {
		return
	}
	activities, err := h.MarketingService.ListShopActivities(shopID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, activities)
}

// OfflineActivity 下线折扣活动
func (h *Handler) OfflineActivity(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
	if !ok {
		return
	}
	activityID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.MarketingService.OfflineActivity(shopID, activityID); err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, "活动已下线", nil)
}
