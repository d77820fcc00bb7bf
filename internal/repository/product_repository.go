package repository

import (
	"errors"

	"github.com/wuyi-mall/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uint) (*models.Product, error)
	GetByIDs(ids []uint) ([]models.Product, error)
	ListByShop(shopID uint, page, pageSize int) ([]models.Product, int64, error)
	Save(product *models.Product) error
	ReserveStock(id uint, quantity int, expectedVersion int64) (int64, error)
	ReleaseStock(id uint, quantity int, expectedVersion int64) (int64, error)
	WithTx(tx *gorm.DB) *GormProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetByIDs 批量获取商品
func (r *GormProductRepository) GetByIDs(ids []uint) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListByShop 获取商铺商品列表
func (r *GormProductRepository) ListByShop(shopID uint, page, pageSize int) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{}).Where("shop_id = ?", shopID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	if err := applyPagination(query, page, pageSize).Order("id desc").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Save 保存商品（名称、价格、状态等非库存字段）
func (r *GormProductRepository) Save(product *models.Product) error {
	return r.db.Save(product).Error
}

// ReserveStock 按版本号条件扣减库存；返回受影响行数，0 表示版本冲突或库存不足
func (r *GormProductRepository) ReserveStock(id uint, quantity int, expectedVersion int64) (int64, error) {
	if quantity <= 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Product{}).
		Where("id = ? AND version = ? AND stock_num >= ?", id, expectedVersion, quantity).
		Updates(map[string]interface{}{
			"stock_num": gorm.Expr("stock_num - ?", quantity),
			"version":   gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

// ReleaseStock 按版本号条件回补库存；返回受影响行数，0 表示版本冲突
func (r *GormProductRepository) ReleaseStock(id uint, quantity int, expectedVersion int64) (int64, error) {
	if quantity <= 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Product{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"stock_num": gorm.Expr("stock_num + ?", quantity),
			"version":   gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}
