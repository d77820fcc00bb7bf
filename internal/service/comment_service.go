package service

import (
	"errors"
	"strings"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/logger"
	"github.com/wuyi-mall/internal/models"
	"github.com/wuyi-mall/internal/repository"

	"gorm.io/gorm"
)

// CommentService 商品评价服务。只有交易完成的订单可以评价，
// 每个订单项至多评价一次
type CommentService struct {
	commentRepo repository.CommentRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

// NewCommentService 创建评价服务
func NewCommentService(commentRepo repository.CommentRepository, orderRepo repository.OrderRepository, productRepo repository.ProductRepository, userRepo repository.UserRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

// PublishCommentInput 发布评价输入
type PublishCommentInput struct {
	OrderItemID uint
	Score       int
	Content     string
	Images      []string
}

// CommentView 评价视图。公开与商家视角下用户名已脱敏
type CommentView struct {
	models.Comment
	Username string   `json:"username"`
	Images   []string `json:"images,omitempty"`
}

// ProductCommentStats 商品评价统计
type ProductCommentStats struct {
	AvgScore     float64 `json:"avg_score"`
	CommentCount int64   `json:"comment_count"`
}

// Publish 发布评价。校验订单项归属与订单完成态，
// 评价写入与商品评分统计更新在同一事务内完成
func (s *CommentService) Publish(userID uint, input PublishCommentInput) (*models.Comment, error) {
	if input.Score < 1 || input.Score > 5 {
		return nil, wrap(ErrValidation, "评分需在 1 到 5 之间")
	}
	if len([]rune(strings.TrimSpace(input.Content))) > 500 {
		return nil, wrap(ErrValidation, "评价内容过长")
	}

	item, err := s.orderRepo.GetItem(input.OrderItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrOrderItemNotFound
	}
	order, err := s.orderRepo.GetByID(item.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderNotOwned
	}
	if order.Status != constants.OrderStatusCompleted {
		return nil, ErrCommentNotAllowed
	}

	existing, err := s.commentRepo.GetByOrderItemID(input.OrderItemID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCommentDuplicated
	}

	product, err := s.productRepo.GetByID(item.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	comment := &models.Comment{
		OrderItemID: input.OrderItemID,
		OrderID:     order.ID,
		ProductID:   item.ProductID,
		ShopID:      product.ShopID,
		UserID:      userID,
		Score:       input.Score,
		Content:     strings.TrimSpace(input.Content),
		Images:      models.JoinImages(input.Images),
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.commentRepo.WithTx(tx).Create(comment); err != nil {
			// 唯一索引兜底并发重复评价
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCommentDuplicated
			}
			return err
		}
		avgScore, count, err := s.commentRepo.WithTx(tx).ProductStats(item.ProductID)
		if err != nil {
			return err
		}
		return tx.Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			Updates(map[string]interface{}{
				"avg_score":     avgScore,
				"comment_count": count,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("comment_published",
		"comment_id", comment.ID,
		"order_id", order.ID,
		"product_id", item.ProductID,
		"score", input.Score,
	)
	return comment, nil
}

// ListMine 当前用户的评价列表
func (s *CommentService) ListMine(userID uint, page, pageSize int) ([]CommentView, int64, error) {
	comments, total, err := s.commentRepo.List(repository.CommentListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
	})
	if err != nil {
		return nil, 0, err
	}
	views, err := s.buildViews(comments, false)
	return views, total, err
}

// ListByShop 商家视角的本店评价列表，用户名脱敏
func (s *CommentService) ListByShop(shopID uint, page, pageSize int, score *int) ([]CommentView, int64, error) {
	comments, total, err := s.commentRepo.List(repository.CommentListFilter{
		Page:     page,
		PageSize: pageSize,
		ShopID:   shopID,
		Score:    score,
	})
	if err != nil {
		return nil, 0, err
	}
	views, err := s.buildViews(comments, true)
	return views, total, err
}

// ListByProduct 商品评价列表（公开），用户名脱敏
func (s *CommentService) ListByProduct(productID uint, page, pageSize int) ([]CommentView, int64, error) {
	comments, total, err := s.commentRepo.List(repository.CommentListFilter{
		Page:      page,
		PageSize:  pageSize,
		ProductID: productID,
	})
	if err != nil {
		return nil, 0, err
	}
	views, err := s.buildViews(comments, true)
	return views, total, err
}

// ProductStats 商品评价统计
func (s *CommentService) ProductStats(productID uint) (*ProductCommentStats, error) {
	avgScore, count, err := s.commentRepo.ProductStats(productID)
	if err != nil {
		return nil, err
	}
	return &ProductCommentStats{AvgScore: avgScore, CommentCount: count}, nil
}

func (s *CommentService) buildViews(comments []models.Comment, mask bool) ([]CommentView, error) {
	views := make([]CommentView, 0, len(comments))
	usernames := make(map[uint]string)
	for _, comment := range comments {
		username, ok := usernames[comment.UserID]
		if !ok {
			user, err := s.userRepo.GetByID(comment.UserID)
			if err != nil {
				return nil, err
			}
			if user != nil {
				username = user.Username
			}
			usernames[comment.UserID] = username
		}
		if mask {
			username = MaskUsername(username)
		}
		views = append(views, CommentView{
			Comment:  comment,
			Username: username,
			Images:   comment.ImageList(),
		})
	}
	return views, nil
}

// MaskUsername 用户名脱敏：保留首尾字符，中间以 * 替换
func MaskUsername(username string) string {
	runes := []rune(username)
	switch {
	case len(runes) <= 1:
		return username
	case len(runes) == 2:
		return string(runes[0]) + "*"
	default:
		masked := make([]rune, len(runes))
		masked[0] = runes[0]
		masked[len(runes)-1] = runes[len(runes)-1]
		for i := 1; i < len(runes)-1; i++ {
			masked[i] = '*'
		}
		return string(masked)
	}
}
