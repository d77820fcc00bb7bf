package service

import (
	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/models"
	"github.com/wuyi-mall/internal/repository"
)

// 单条购物车条目数量上限
const cartQuantityLimit = 999

// CartService 购物车服务。加购时只校验商品在架，不预占库存
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// CartItemView 购物车条目视图（附商品快照）
type CartItemView struct {
	models.Cart
	ProductName   string       `json:"product_name"`
	ProductPrice  models.Money `json:"product_price"`
	ProductStatus int          `json:"product_status"`
	StockNum      int          `json:"stock_num"`
}

// Add 加入购物车。同一商品重复加购时累加数量
func (s *CartService) Add(userID, productID uint, quantity int) (*models.Cart, error) {
	if quantity <= 0 || quantity > cartQuantityLimit {
		return nil, wrap(ErrValidation, "数量不合法")
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.Status != constants.ProductStatusActive {
		return nil, ErrProductOffline
	}

	existing, err := s.cartRepo.GetByUserAndProduct(userID, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Quantity += quantity
		if existing.Quantity > cartQuantityLimit {
			existing.Quantity = cartQuantityLimit
		}
		if err := s.cartRepo.Save(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	cart := &models.Cart{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.cartRepo.Create(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateQuantity 修改购物车条目数量
func (s *CartService) UpdateQuantity(userID, cartID uint, quantity int) (*models.Cart, error) {
	if quantity <= 0 || quantity > cartQuantityLimit {
		return nil, wrap(ErrValidation, "数量不合法")
	}
	carts, err := s.cartRepo.GetByUserAndIDs(userID, []uint{cartID})
	if err != nil {
		return nil, err
	}
	if len(carts) == 0 {
		return nil, wrap(ErrNotFound, "购物车条目不存在")
	}
	cart := carts[0]
	cart.Quantity = quantity
	if err := s.cartRepo.Save(&cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Remove 删除购物车条目
func (s *CartService) Remove(userID, cartID uint) error {
	return s.cartRepo.Delete(userID, cartID)
}

// List 获取用户购物车，附商品当前快照。商品已删除的条目照常返回，
// 由下单时的逐条校验负责拦截
func (s *CartService) List(userID uint) ([]CartItemView, error) {
	carts, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(carts) == 0 {
		return []CartItemView{}, nil
	}

	productIDs := make([]uint, 0, len(carts))
	for _, cart := range carts {
		productIDs = append(productIDs, cart.ProductID)
	}
	products, err := s.productRepo.GetByIDs(productIDs)
	if err != nil {
		return nil, err
	}
	productMap := make(map[uint]models.Product, len(products))
	for _, product := range products {
		productMap[product.ID] = product
	}

	views := make([]CartItemView, 0, len(carts))
	for _, cart := range carts {
		view := CartItemView{Cart: cart}
		if product, ok := productMap[cart.ProductID]; ok {
			view.ProductName = product.Name
			view.ProductPrice = product.Price
			view.ProductStatus = product.Status
			view.StockNum = product.StockNum
		}
		views = append(views, view)
	}
	return views, nil
}
