package repository

import (
	"errors"
	"time"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/models"

	"gorm.io/gorm"
)

// UserCouponRepository 用户持券数据访问接口
type UserCouponRepository interface {
	Create(userCoupon *models.UserCoupon) error
	GetByID(id uint) (*models.UserCoupon, error)
	GetByUserAndCoupon(userID, couponID uint) (*models.UserCoupon, error)
	ListByUser(userID uint, status *int) ([]models.UserCoupon, error)
	MarkUsed(id uint, orderID uint, useTime time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormUserCouponRepository
}

// GormUserCouponRepository GORM 实现
type GormUserCouponRepository struct {
	db *gorm.DB
}

// NewUserCouponRepository 创建用户持券仓库
func NewUserCouponRepository(db *gorm.DB) *GormUserCouponRepository {
	return &GormUserCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserCouponRepository) WithTx(tx *gorm.DB) *GormUserCouponRepository {
	if tx == nil {
		return r
	}
	return &GormUserCouponRepository{db: tx}
}

// Create 创建用户持券记录
func (r *GormUserCouponRepository) Create(userCoupon *models.UserCoupon) error {
	return r.db.Create(userCoupon).Error
}

// GetByID 根据 ID 获取持券记录
func (r *GormUserCouponRepository) GetByID(id uint) (*models.UserCoupon, error) {
	var userCoupon models.UserCoupon
	if err := r.db.First(&userCoupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &userCoupon, nil
}

// GetByUserAndCoupon 查询用户是否已持有某券
func (r *GormUserCouponRepository) GetByUserAndCoupon(userID, couponID uint) (*models.UserCoupon, error) {
	var userCoupon models.UserCoupon
	if err := r.db.Where("user_id = ? AND coupon_id = ?", userID, couponID).First(&userCoupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &userCoupon, nil
}

// ListByUser 获取用户持券列表
func (r *GormUserCouponRepository) ListByUser(userID uint, status *int) ([]models.UserCoupon, error) {
	query := r.db.Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var userCoupons []models.UserCoupon
	if err := query.Order("id desc").Find(&userCoupons).Error; err != nil {
		return nil, err
	}
	return userCoupons, nil
}

// MarkUsed 未使用状态下标记为已使用并关联订单；返回受影响行数
func (r *GormUserCouponRepository) MarkUsed(id uint, orderID uint, useTime time.Time) (int64, error) {
	result := r.db.Model(&models.UserCoupon{}).
		Where("id = ? AND status = ?", id, constants.UserCouponStatusUnused).
		Updates(map[string]interface{}{
			"status":   constants.UserCouponStatusUsed,
			"order_id": orderID,
			"use_time": useTime,
		})
	return result.RowsAffected, result.Error
}
