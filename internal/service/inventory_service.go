package service

import (
	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/logger"
	"github.com/wuyi-mall/internal/repository"

	"gorm.io/gorm"
)

// 乐观锁写入的最大重试次数，超出后让调用方整体失败
const stockRetryAttempts = 3

// InventoryService 库存服务。所有库存变更都走版本号条件更新，不加行锁
type InventoryService struct {
	productRepo repository.ProductRepository
}

// NewInventoryService 创建库存服务
func NewInventoryService(productRepo repository.ProductRepository) *InventoryService {
	return &InventoryService{productRepo: productRepo}
}

// Reserve 预留库存。每次重试都重新读取版本号，库存不足立即失败
func (s *InventoryService) Reserve(tx *gorm.DB, productID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidOrderItem
	}
	repo := s.productRepo.WithTx(tx)
	for attempt := 0; attempt < stockRetryAttempts; attempt++ {
		product, err := repo.GetByID(productID)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		if product.Status != constants.ProductStatusActive {
			return ErrProductOffline
		}
		if product.StockNum < quantity {
			return ErrStockInsufficient
		}
		affected, err := repo.ReserveStock(productID, quantity, product.Version)
		if err != nil {
			return err
		}
		if affected > 0 {
			return nil
		}
		logger.Warnw("stock_reserve_conflict",
			"product_id", productID,
			"quantity", quantity,
			"attempt", attempt+1,
		)
	}
	return ErrStockWriteConflict
}

// Release 回补库存（取消、支付超时）。回补不检查库存上限
func (s *InventoryService) Release(tx *gorm.DB, productID uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	repo := s.productRepo.WithTx(tx)
	for attempt := 0; attempt < stockRetryAttempts; attempt++ {
		product, err := repo.GetByID(productID)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		affected, err := repo.ReleaseStock(productID, quantity, product.Version)
		if err != nil {
			return err
		}
		if affected > 0 {
			return nil
		}
		logger.Warnw("stock_release_conflict",
			"product_id", productID,
			"quantity", quantity,
			"attempt", attempt+1,
		)
	}
	return ErrStockWriteConflict
}
