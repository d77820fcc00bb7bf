package merchant

import (
	"strconv"

	"github.com/wuyi-mall/internal/http/handlers/shared"
	"github.com/wuyi-mall/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListComments 本店商品评价列表
func (h *Handler) ListComments(c *gin.Context) {
	shopID, ok := shared.CurrentShopID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	var score *int
	if scoreRaw := c.Query("score"); scoreRaw != "" {
		if parsed, err := strconv.Atoi(scoreRaw); err == nil {
			score = &parsed
		}
	}

	comments, total, err := h.CommentService.ListByShop(shopID, page, pageSize, score)
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
