package public

import (
	"strconv"

	"github.com/wuyi-mall/internal/http/handlers/shared"
	"github.com/wuyi-mall/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	productID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetDetail(productID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

// ListShopProducts 商铺商品列表
func (h *Handler) ListShopProducts(c *gin.Context) {
	shopID, ok := shared.ParamID(c, "shop_id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	products, total, err := h.ProductService.ListByShop(shopID, page, pageSize)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, products, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// ListShopActivities 商铺在线折扣活动
func (h *Handler) ListShopActivities(c *gin.Context) {
	shopID, ok := shared.ParamID(c, "shop_id")
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

// ListShopCoupons 商铺可领优惠券
func (h *Handler) ListShopCoupons(c *gin.Context) {
	shopID, ok := shared.ParamID(c, "shop_id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	coupons, total, err := h.MarketingService.ListClaimableCoupons(shopID, page, pageSize)
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
