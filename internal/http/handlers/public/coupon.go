package public

import (
	"strconv"

	"github.com/wuyi-mall/internal/http/handlers/shared"
	"github.com/wuyi-mall/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ClaimCoupon 领取优惠券
func (h *Handler) ClaimCoupon(c *gin.Context) {
	userID, ok := shared.CurrentUserID(c)
	if !ok {
		return
	}
	couponID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	userCoupon, err := h.MarketingService.ClaimCoupon(userID, couponID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, userCoupon)
}

// ListMyCoupons 当前用户优惠券列表
func (h *Handler) ListMyCoupons(c *gin.Context) {
	userID, ok := shared.CurrentUserID(c)
	if !ok {
		return
	}
	var status *int
	if statusRaw := c.Query("status"); statusRaw != "" {
		if parsed, err := strconv.Atoi(statusRaw); err == nil {
			status = &parsed
		}
	}
	coupons, err := h.MarketingService.ListUserCoupons(userID, status)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, coupons)
}
