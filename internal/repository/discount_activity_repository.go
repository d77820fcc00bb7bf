package repository

import (
	"errors"
	"time"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/models"

	"gorm.io/gorm"
)

// DiscountActivityRepository 折扣活动数据访问接口
type DiscountActivityRepository interface {
	Create(activity *models.DiscountActivity, productIDs []uint) error
	GetByID(id uint) (*models.DiscountActivity, error)
	ListActiveByProducts(productIDs []uint, now time.Time) ([]models.DiscountActivity, error)
	ListByShop(shopID uint) ([]models.DiscountActivity, error)
	UpdateStatus(id uint, status int) error
	WithTx(tx *gorm.DB) *GormDiscountActivityRepository
}

// GormDiscountActivityRepository GORM 实现
type GormDiscountActivityRepository struct {
	db *gorm.DB
}

// NewDiscountActivityRepository 创建折扣活动仓库
func NewDiscountActivityRepository(db *gorm.DB) *GormDiscountActivityRepository {
	return &GormDiscountActivityRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountActivityRepository) WithTx(tx *gorm.DB) *GormDiscountActivityRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountActivityRepository{db: tx}
}

// Create 创建折扣活动及商品关联
func (r *GormDiscountActivityRepository) Create(activity *models.DiscountActivity, productIDs []uint) error {
	if err := r.db.Create(activity).Error; err != nil {
		return err
	}
	if len(productIDs) == 0 {
		return nil
	}
	links := make([]models.DiscountActivityProduct, 0, len(productIDs))
	for _, productID := range productIDs {
		links = append(links, models.DiscountActivityProduct{
			ActivityID: activity.ID,
			ProductID:  productID,
		})
	}
	return r.db.Create(&links).Error
}

// GetByID 根据 ID 获取折扣活动
func (r *GormDiscountActivityRepository) GetByID(id uint) (*models.DiscountActivity, error) {
	var activity models.DiscountActivity
	if err := r.db.Preload("Products").First(&activity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &activity, nil
}

// ListActiveByProducts 查询覆盖给定商品、当前生效的折扣活动
func (r *GormDiscountActivityRepository) ListActiveByProducts(productIDs []uint, now time.Time) ([]models.DiscountActivity, error) {
	var activities []models.DiscountActivity
	if len(productIDs) == 0 {
		return activities, nil
	}
	subQuery := r.db.Model(&models.DiscountActivityProduct{}).
		Select("activity_id").
		Where("product_id IN ?", productIDs)
	if err := r.db.Preload("Products").
		Where("id IN (?)", subQuery).
		Where("status = ? AND start_time <= ? AND end_time > ?", constants.ActivityStatusOnline, now, now).
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// ListByShop 获取商铺折扣活动列表
func (r *GormDiscountActivityRepository) ListByShop(shopID uint) ([]models.DiscountActivity, error) {
	var activities []models.DiscountActivity
	if err := r.db.Preload("Products").
		Where("shop_id = ?", shopID).
		Order("id desc").
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// UpdateStatus 更新活动状态
func (r *GormDiscountActivityRepository) UpdateStatus(id uint, status int) error {
	return r.db.Model(&models.DiscountActivity{}).Where("id = ?", id).Update("status", status).Error
}
