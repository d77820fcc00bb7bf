package merchant

import (
	"strconv"

	"github.com/wuyi-mall/internal/http/handlers/shared"
	"github.com/wuyi-mall/internal/http/response"
	"github.com/wuyi-mall/internal/models"
	"github.com/wuyi-mall/internal/service"

	"github.com/gin-gonic/gin"
)

type createProductRequest struct {
	Name     string       `json:"name" binding:"required"`
	Price    models.Money `json:"price" binding:"required"`
	StockNum int          `json:"stock_num"`
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
	if !ok {
		return
	}
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数不合法")
		return
	}
	product, err := h.ProductService.Create(service.CreateProductInput{
		ShopID:   shopID,
		Name:     req.Name,
		Price:    req.Price,
		StockNum: req.StockNum,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

type updateProductRequest struct {
	Name  string       `json:"name" binding:"required"`
	Price models.Money `json:"price" binding:"required"`
}

// UpdateProduct 更新商品名称与价格
func (h *Handler) UpdateProduct(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
	if !ok {
		return
	}
	productID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数不合法")
		return
	}
	product, err := h.ProductService.Update(service.UpdateProductInput{
		ProductID: productID,
		ShopID:    shopID,
		Name:      req.Name,
		Price:     req.Price,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

type updateProductStatusRequest struct {
	Status *int `json:"status" binding:"required"`
}

// UpdateProductStatus 上下架商品
func (h *Handler) UpdateProductStatus(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
	if !ok {
		return
	}
	productID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	var req updateProductStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == nil {
		response.BadRequest(c, "请求参数不合法")
		return
	}
	product, err := h.ProductService.UpdateStatus(productID, shopID, *req.Status)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

type restockRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// RestockProduct 补货
func (h *Handler) RestockProduct(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
	if !ok {
		return
	}
	productID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数不合法")
		return
	}
	if err := h.ProductService.Restock(productID, shopID, req.Quantity); err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithMsg(c, "补货成功", nil)
}

// ListProducts 本店商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
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
