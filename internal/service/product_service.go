package service

import (
	"strings"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/models"
	"github.com/wuyi-mall/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 商品服务（商家侧管理 + 买家侧查询）
type ProductService struct {
	productRepo repository.ProductRepository
	inventory   *InventoryService
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository, inventory *InventoryService) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		inventory:   inventory,
	}
}

// CreateProductInput 创建商品输入
type CreateProductInput struct {
	ShopID   uint
	Name     string
	Price    models.Money
	StockNum int
}

// Create 商家创建商品，初始即上架
func (s *ProductService) Create(input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, wrap(ErrValidation, "商品名称不能为空")
	}
	if input.ShopID == 0 {
		return nil, wrap(ErrValidation, "商铺不能为空")
	}
	if !input.Price.GreaterThan(decimal.Zero) {
		return nil, wrap(ErrValidation, "商品价格必须大于 0")
	}
	if input.StockNum < 0 {
		return nil, wrap(ErrValidation, "库存不能为负数")
	}

	product := &models.Product{
		ShopID:   input.ShopID,
		Name:     name,
		Price:    input.Price,
		StockNum: input.StockNum,
		Status:   constants.ProductStatusActive,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProductInput 更新商品输入（名称与价格）
type UpdateProductInput struct {
	ProductID uint
	ShopID    uint
	Name      string
	Price     models.Money
}

// Update 商家更新商品名称与价格。价格变动不影响已下单的价格快照
func (s *ProductService) Update(input UpdateProductInput) (*models.Product, error) {
	product, err := s.ownedProduct(input.ProductID, input.ShopID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, wrap(ErrValidation, "商品名称不能为空")
	}
	if !input.Price.GreaterThan(decimal.Zero) {
		return nil, wrap(ErrValidation, "商品价格必须大于 0")
	}

	product.Name = name
	product.Price = input.Price
	if err := s.productRepo.Save(product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateStatus 商家上下架商品。下架不影响已创建订单
func (s *ProductService) UpdateStatus(productID, shopID uint, status int) (*models.Product, error) {
	if status != constants.ProductStatusActive && status != constants.ProductStatusInactive {
		return nil, wrap(ErrValidation, "商品状态不合法")
	}
	product, err := s.ownedProduct(productID, shopID)
	if err != nil {
		return nil, err
	}
	product.Status = status
	if err := s.productRepo.Save(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Restock 商家补货。与下单扣减走同一条版本号更新路径
func (s *ProductService) Restock(productID, shopID uint, quantity int) error {
	if quantity <= 0 {
		return wrap(ErrValidation, "补货数量必须大于 0")
	}
	if _, err := s.ownedProduct(productID, shopID); err != nil {
		return err
	}
	return s.inventory.Release(nil, productID, quantity)
}

// GetDetail 获取商品详情
func (s *ProductService) GetDetail(productID uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListByShop 商铺商品列表
func (s *ProductService) ListByShop(shopID uint, page, pageSize int) ([]models.Product, int64, error) {
	return s.productRepo.ListByShop(shopID, page, pageSize)
}

// ownedProduct 校验商品归属于指定商铺
func (s *ProductService) ownedProduct(productID, shopID uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.ShopID != shopID {
		return nil, wrap(ErrPermissionDenied, "商品不属于当前商铺")
	}
	return product, nil
}
