package public

import (
	"strconv"

	"github.com/wuyi-mall/internal/http/handlers/shared"
	"github.com/wuyi-mall/internal/http/response"
	"github.com/wuyi-mall/internal/service"

	"github.com/gin-gonic/gin"
)

type publishCommentRequest struct {
	OrderItemID uint     `json:"order_item_id" binding:"required"`
	Score       int      `json:"score" binding:"required"`
	Content     string   `json:"content"`
	Images      []string `json:"images"`
}

// PublishComment 发布商品评价
func (h *Handler) PublishComment(c *gin.Context) {
	userID, ok := shared.CurrentUserID(c)
	if !ok {
		return
	}
	var req publishCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数不合法")
		return
	}
	comment, err := h.CommentService.Publish(userID, service.PublishCommentInput{
		OrderItemID: req.OrderItemID,
		Score:       req.Score,
		Content:     req.Content,
		Images:      req.Images,
	})
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, comment)
}

// ListMyComments 当前用户评价列表
func (h *Handler) ListMyComments(c *gin.Context) {
	userID, ok := shared.CurrentUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	comments, total, err := h.CommentService.ListMine(userID, page, pageSize)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, comments, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// ListProductComments 商品评价列表（无需登录）
func (h *Handler) ListProductComments(c *gin.Context) {
	productID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	comments, total, err := h.CommentService.ListByProduct(productID, page, pageSize)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, comments, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetProductCommentStats 商品评价统计（无需登录）
func (h *Handler) GetProductCommentStats(c *gin.Context) {
	productID, ok := shared.ParamID(c, "id")
	if !ok {
		return
	}
	stats, err := h.CommentService.ProductStats(productID)
	if err != nil {
		shared.RespondServiceError(c, err)
		return
	}
	response.Success(c, stats)
}
