package repository

import (
	"errors"

	"github.com/wuyi-mall/internal/models"

	"gorm.io/gorm"
)

// CommentListFilter 查询评价列表的过滤条件
type CommentListFilter struct {
	Page      int
	PageSize  int
	UserID    uint
	ShopID    uint
	ProductID uint
	Score     *int
}

// CommentRepository 商品评价数据访问接口
type CommentRepository interface {
	Create(comment *models.Comment) error
	GetByOrderItemID(orderItemID uint) (*models.Comment, error)
	List(filter CommentListFilter) ([]models.Comment, int64, error)
	ProductStats(productID uint) (avgScore float64, count int64, err error)
	WithTx(tx *gorm.DB) *GormCommentRepository
}

// GormCommentRepository GORM 实现
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository 创建评价仓库
func NewCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommentRepository) WithTx(tx *gorm.DB) *GormCommentRepository {
	if tx == nil {
		return r
	}
	return &GormCommentRepository{db: tx}
}

// Create 创建评价
func (r *GormCommentRepository) Create(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// GetByOrderItemID 根据订单项获取评价
func (r *GormCommentRepository) GetByOrderItemID(orderItemID uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.Where("order_item_id = ?", orderItemID).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

// List 按过滤条件查询评价列表
func (r *GormCommentRepository) List(filter CommentListFilter) ([]models.Comment, int64, error) {
	query := r.db.Model(&models.Comment{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ShopID != 0 {
		query = query.Where("shop_id = ?", filter.ShopID)
	}
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.Score != nil {
		query = query.Where("score = ?", *filter.Score)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&comments).Error; err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// ProductStats 统计商品评价均分与数量
func (r *GormCommentRepository) ProductStats(productID uint) (float64, int64, error) {
	var row struct {
		AvgScore float64
		Count    int64
	}
	err := r.db.Model(&models.Comment{}).
		Select("COALESCE(AVG(score), 0) AS avg_score, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.AvgScore, row.Count, nil
}
