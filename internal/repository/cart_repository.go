package repository

import (
	"errors"

	"github.com/wuyi-mall/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	ListByUser(userID uint) ([]models.Cart, error)
	GetByUserAndIDs(userID uint, ids []uint) ([]models.Cart, error)
	GetByUserAndProduct(userID, productID uint) (*models.Cart, error)
	Create(cart *models.Cart) error
	Save(cart *models.Cart) error
	Delete(userID, id uint) error
	DeleteByIDs(ids []uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUser 获取用户购物车
func (r *GormCartRepository) ListByUser(userID uint) ([]models.Cart, error) {
	var carts []models.Cart
	if err := r.db.Where("user_id = ?", userID).Order("id desc").Find(&carts).Error; err != nil {
		return nil, err
	}
	return carts, nil
}

// GetByUserAndIDs 按 ID 集合获取用户购物车条目
func (r *GormCartRepository) GetByUserAndIDs(userID uint, ids []uint) ([]models.Cart, error) {
	var carts []models.Cart
	if len(ids) == 0 {
		return carts, nil
	}
	if err := r.db.Where("user_id = ? AND id IN ?", userID, ids).Find(&carts).Error; err != nil {
		return nil, err
	}
	return carts, nil
}

// GetByUserAndProduct 获取用户某商品的购物车条目
func (r *GormCartRepository) GetByUserAndProduct(userID, productID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// Create 新增购物车条目
func (r *GormCartRepository) Create(cart *models.Cart) error {
	return r.db.Create(cart).Error
}

// Save 保存购物车条目
func (r *GormCartRepository) Save(cart *models.Cart) error {
	return r.db.Save(cart).Error
}

// Delete 删除用户购物车条目
func (r *GormCartRepository) Delete(userID, id uint) error {
	return r.db.Where("user_id = ? AND id = ?", userID, id).Delete(&models.Cart{}).Error
}

// DeleteByIDs 批量删除已下单的购物车条目
func (r *GormCartRepository) DeleteByIDs(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&models.Cart{}).Error
}
