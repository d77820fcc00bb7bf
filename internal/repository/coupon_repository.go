package repository

import (
	"errors"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/models"

	"gorm.io/gorm"
)

// CouponRepository 优惠券数据访问接口
type CouponRepository interface {
	Create(coupon *models.Coupon) error
	GetByID(id uint) (*models.Coupon, error)
	List(filter CouponListFilter) ([]models.Coupon, int64, error)
	DecrementRemain(id uint) (int64, error)
	UpdateStatus(id uint, status int) error
	WithTx(tx *gorm.DB) *GormCouponRepository
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) *GormCouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// Create 创建优惠券
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	return r.db.Create(coupon).Error
}

// GetByID 根据 ID 获取优惠券
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// List 获取优惠券列表
func (r *GormCouponRepository) List(filter CouponListFilter) ([]models.Coupon, int64, error) {
	query := r.db.Model(&models.Coupon{})
	if filter.ShopID != 0 {
		query = query.Where("shop_id = ?", filter.ShopID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.OnlyActive {
		query = query.Where("status = ? AND remain_num > 0", constants.CouponStatusOnline)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var coupons []models.Coupon
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// DecrementRemain 条件扣减剩余数量；返回受影响行数，0 表示已领完
func (r *GormCouponRepository) DecrementRemain(id uint) (int64, error) {
	result := r.db.Model(&models.Coupon{}).
		Where("id = ? AND remain_num > 0", id).
		UpdateColumn("remain_num", gorm.Expr("remain_num - 1"))
	return result.RowsAffected, result.Error
}

// UpdateStatus 更新优惠券状态
func (r *GormCouponRepository) UpdateStatus(id uint, status int) error {
	return r.db.Model(&models.Coupon{}).Where("id = ?", id).Update("status", status).Error
}
