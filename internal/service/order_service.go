package service

import (
	"time"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/logger"
	"github.com/wuyi-mall/internal/models"
	"github.com/wuyi-mall/internal/queue"
	"github.com/wuyi-mall/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务，订单状态机的唯一写入方
type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	inventory   *InventoryService
	marketing   *MarketingService
	queueClient *queue.Client
	// 支付窗口时长，下单后超过该时间未支付由超时任务取消
	expireMinutes int
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, cartRepo repository.CartRepository, inventory *InventoryService, marketing *MarketingService, queueClient *queue.Client, expireMinutes int) *OrderService {
	if expireMinutes <= 0 {
		expireMinutes = 15
	}
	return &OrderService{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		cartRepo:      cartRepo,
		inventory:     inventory,
		marketing:     marketing,
		queueClient:   queueClient,
		expireMinutes: expireMinutes,
	}
}

// operateRule 一种订单操作的前置状态集合、目标状态与允许角色
type operateRule struct {
	from  map[int]bool
	to    int
	actor string
}

// 状态机：仅允许沿定义的边前进，或跳转到取消；取消与完成为终态
var operateRules = map[string]operateRule{
	constants.OrderOperateConfirm: {
		from:  map[int]bool{constants.OrderStatusPlaced: true},
		to:    constants.OrderStatusConfirmed,
		actor: constants.RoleMerchant,
	},
	constants.OrderOperatePrepare: {
		from:  map[int]bool{constants.OrderStatusConfirmed: true},
		to:    constants.OrderStatusPrepared,
		actor: constants.RoleMerchant,
	},
	constants.OrderOperateDeliver: {
		from:  map[int]bool{constants.OrderStatusPrepared: true},
		to:    constants.OrderStatusDelivered,
		actor: constants.RoleMerchant,
	},
	constants.OrderOperateConfirmReceipt: {
		from:  map[int]bool{constants.OrderStatusDelivered: true},
		to:    constants.OrderStatusCompleted,
		actor: constants.RoleCustomer,
	},
	constants.OrderOperateCancelByCustomer: {
		from: map[int]bool{
			constants.OrderStatusPlaced:    true,
			constants.OrderStatusConfirmed: true,
			constants.OrderStatusPrepared:  true,
		},
		to:    constants.OrderStatusCancelled,
		actor: constants.RoleCustomer,
	},
	constants.OrderOperateCancelByMerchant: {
		from: map[int]bool{
			constants.OrderStatusPlaced:    true,
			constants.OrderStatusConfirmed: true,
			constants.OrderStatusPrepared:  true,
			constants.OrderStatusDelivered: true,
		},
		to:    constants.OrderStatusCancelled,
		actor: constants.RoleMerchant,
	},
}

// CreateFromCartInput 购物车批量下单输入
type CreateFromCartInput struct {
	UserID       uint
	CartIDs      []uint
	UserCouponID *uint
}

// CartItemFailure 单条购物车条目的校验失败
type CartItemFailure struct {
	CartID uint   `json:"cart_id"`
	Reason string `json:"reason"`
}

// CreateFromCartResult 批量下单结果
type CreateFromCartResult struct {
	Order    *models.Order     `json:"order,omitempty"`
	Failures []CartItemFailure `json:"failures,omitempty"`
}

// CreateFromCart 从选中的购物车条目创建订单。
// 单条校验失败只剔除该条并记入失败列表；库存预留失败则整批回滚，不产生半成品订单
func (s *OrderService) CreateFromCart(input CreateFromCartInput) (*CreateFromCartResult, error) {
	if input.UserID == 0 || len(input.CartIDs) == 0 {
		return nil, ErrEmptyCart
	}
	now := time.Now()

	carts, err := s.cartRepo.GetByUserAndIDs(input.UserID, input.CartIDs)
	if err != nil {
		return nil, err
	}
	found := make(map[uint]models.Cart, len(carts))
	for _, cart := range carts {
		found[cart.ID] = cart
	}

	result := &CreateFromCartResult{}
	valid := make([]models.Cart, 0, len(carts))
	for _, cartID := range input.CartIDs {
		cart, ok := found[cartID]
		if !ok {
			result.Failures = append(result.Failures, CartItemFailure{CartID: cartID, Reason: "购物车条目不存在"})
			continue
		}
		if cart.Quantity <= 0 {
			result.Failures = append(result.Failures, CartItemFailure{CartID: cartID, Reason: "数量不合法"})
			continue
		}
		product, err := s.productRepo.GetByID(cart.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			result.Failures = append(result.Failures, CartItemFailure{CartID: cartID, Reason: "商品不存在"})
			continue
		}
		if product.Status != constants.ProductStatusActive {
			result.Failures = append(result.Failures, CartItemFailure{CartID: cartID, Reason: "商品已下架"})
			continue
		}
		if product.StockNum < cart.Quantity {
			result.Failures = append(result.Failures, CartItemFailure{CartID: cartID, Reason: "库存不足"})
			continue
		}
		valid = append(valid, cart)
	}
	if len(valid) == 0 {
		return result, ErrEmptyCart
	}

	if input.UserCouponID != nil {
		if _, _, err := s.marketing.UsableUserCoupon(input.UserID, *input.UserCouponID, now); err != nil {
			return nil, err
		}
	}

	order := &models.Order{
		OrderNo:      GenerateOrderNo(input.UserID, now),
		UserID:       input.UserID,
		Status:       constants.OrderStatusPlaced,
		PayStatus:    constants.OrderPayStatusUnpaid,
		UserCouponID: input.UserCouponID,
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(valid))
		consumed := make([]uint, 0, len(valid))
		for _, cart := range valid {
			// 预留失败（并发冲突或刚好售罄）使整批失败，保持全有或全无
			if err := s.inventory.Reserve(tx, cart.ProductID, cart.Quantity); err != nil {
				return err
			}
			product, err := s.productRepo.WithTx(tx).GetByID(cart.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return ErrProductNotFound
			}
			items = append(items, models.OrderItem{
				ProductID: cart.ProductID,
				Quantity:  cart.Quantity,
				Price:     product.Price,
			})
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(cart.Quantity))))
			consumed = append(consumed, cart.ID)
		}
		order.TotalAmount = models.NewMoneyFromDecimal(total)
		if err := s.orderRepo.WithTx(tx).Create(order, items); err != nil {
			return err
		}
		return s.cartRepo.WithTx(tx).DeleteByIDs(consumed)
	})
	if err != nil {
		return nil, err
	}

	if err := s.queueClient.EnqueueOrderTimeoutCancel(
		queue.OrderTimeoutCancelPayload{OrderID: order.ID},
		time.Duration(s.expireMinutes)*time.Minute,
	); err != nil {
		logger.Warnw("order_timeout_task_enqueue_failed", "order_id", order.ID, "error", err)
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", input.UserID,
		"total_amount", order.TotalAmount.String(),
		"item_count", len(valid),
		"failure_count", len(result.Failures),
	)
	result.Order = order
	return result, nil
}

// OperateInput 订单操作输入
type OperateInput struct {
	OrderID     uint
	OperateType string
	ActorID     uint
	ActorRole   string
	ActorShopID uint
}

// Operate 执行一次订单状态流转。
// 状态写入以期望前置状态为条件，并发修改表现为 0 行更新并拒绝；
// 取消路径在同一事务内回补全部订单项库存；每次流转追加操作日志
func (s *OrderService) Operate(input OperateInput) error {
	rule, ok := operateRules[input.OperateType]
	if !ok {
		return ErrValidation
	}
	if rule.actor != input.ActorRole {
		return ErrPermissionDenied
	}

	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if err := s.checkActor(order, input); err != nil {
		return err
	}
	if order.Status == constants.OrderStatusCancelled || order.Status == constants.OrderStatusCompleted {
		return ErrOrderStatusConflict
	}
	if !rule.from[order.Status] {
		return ErrOrderStatusConflict
	}

	beforeStatus := order.Status
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.orderRepo.WithTx(tx).UpdateStatusFrom(order.ID, beforeStatus, rule.to, nil)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrOrderConcurrentWrite
		}
		if rule.to == constants.OrderStatusCancelled {
			for _, item := range order.Items {
				if err := s.inventory.Release(tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return s.orderRepo.WithTx(tx).AppendOperateLog(&models.OrderOperateLog{
			OrderID:       order.ID,
			OperateUserID: input.ActorID,
			OperateType:   input.OperateType,
			BeforeStatus:  beforeStatus,
			AfterStatus:   rule.to,
			OperateTime:   time.Now(),
		})
	})
	if err != nil {
		return err
	}

	logger.Infow("order_operated",
		"order_id", order.ID,
		"operate_type", input.OperateType,
		"before_status", beforeStatus,
		"after_status", rule.to,
		"actor_id", input.ActorID,
	)
	return nil
}

// MarkPaySuccess 支付成功后的内部流转：下单 → 商家确认，并记录支付状态。
// 由支付服务在回调事务内调用；返回受影响行数供调用方判定竞争结果
func (s *OrderService) MarkPaySuccess(tx *gorm.DB, order *models.Order, payTime time.Time) (int64, error) {
	affected, err := s.orderRepo.WithTx(tx).UpdateStatusFrom(order.ID, constants.OrderStatusPlaced, constants.OrderStatusConfirmed, map[string]interface{}{
		"pay_status": constants.OrderPayStatusPaid,
		"pay_time":   payTime,
	})
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, nil
	}
	err = s.orderRepo.WithTx(tx).AppendOperateLog(&models.OrderOperateLog{
		OrderID:       order.ID,
		OperateUserID: order.UserID,
		OperateType:   constants.OrderOperatePaySuccess,
		BeforeStatus:  constants.OrderStatusPlaced,
		AfterStatus:   constants.OrderStatusConfirmed,
		OperateTime:   payTime,
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// MarkPayTimeout 支付超时的内部流转：下单 → 取消，回补库存。
// 由超时任务或回收扫描在事务内调用；返回受影响行数供调用方判定竞争结果
func (s *OrderService) MarkPayTimeout(tx *gorm.DB, order *models.Order, timeoutAt time.Time) (int64, error) {
	affected, err := s.orderRepo.WithTx(tx).UpdateStatusFrom(order.ID, constants.OrderStatusPlaced, constants.OrderStatusCancelled, map[string]interface{}{
		"pay_status": constants.OrderPayStatusTimeout,
	})
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, nil
	}
	items := order.Items
	if len(items) == 0 {
		items, err = s.orderRepo.WithTx(tx).ListItems(order.ID)
		if err != nil {
			return 0, err
		}
	}
	for _, item := range items {
		if err := s.inventory.Release(tx, item.ProductID, item.Quantity); err != nil {
			return 0, err
		}
	}
	err = s.orderRepo.WithTx(tx).AppendOperateLog(&models.OrderOperateLog{
		OrderID:       order.ID,
		OperateUserID: order.UserID,
		OperateType:   constants.OrderOperatePayTimeout,
		BeforeStatus:  constants.OrderStatusPlaced,
		AfterStatus:   constants.OrderStatusCancelled,
		OperateTime:   timeoutAt,
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// GetDetail 获取订单详情并校验归属
func (s *OrderService) GetDetail(orderID, actorID uint, actorRole string, actorShopID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.checkActor(order, OperateInput{ActorID: actorID, ActorRole: actorRole, ActorShopID: actorShopID}); err != nil {
		return nil, err
	}
	return order, nil
}

// ListUserOrders 用户订单列表
func (s *OrderService) ListUserOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(filter)
}

// ListShopOrders 商家订单列表
func (s *OrderService) ListShopOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByShop(filter)
}

// ListOperateLogs 订单操作日志
func (s *OrderService) ListOperateLogs(orderID, actorID uint, actorRole string, actorShopID uint) ([]models.OrderOperateLog, error) {
	if _, err := s.GetDetail(orderID, actorID, actorRole, actorShopID); err != nil {
		return nil, err
	}
	return s.orderRepo.ListOperateLogs(orderID)
}

// checkActor 归属校验：客户须为下单人，商家须拥有订单内至少一个商品的商铺
func (s *OrderService) checkActor(order *models.Order, input OperateInput) error {
	switch input.ActorRole {
	case constants.RoleCustomer:
		if order.UserID != input.ActorID {
			return ErrOrderNotOwned
		}
	case constants.RoleMerchant:
		if input.ActorShopID == 0 {
			return ErrOrderNotOwned
		}
		items := order.Items
		if len(items) == 0 {
			loaded, err := s.orderRepo.ListItems(order.ID)
			if err != nil {
				return err
			}
			items = loaded
		}
		productIDs := make([]uint, 0, len(items))
		for _, item := range items {
			productIDs = append(productIDs, item.ProductID)
		}
		products, err := s.productRepo.GetByIDs(productIDs)
		if err != nil {
			return err
		}
		owned := false
		for _, product := range products {
			if product.ShopID == input.ActorShopID {
				owned = true
				break
			}
		}
		if !owned {
			return ErrOrderNotOwned
		}
	case constants.RoleAdmin:
		// 管理员可见全部订单
	default:
		return ErrPermissionDenied
	}
	return nil
}
