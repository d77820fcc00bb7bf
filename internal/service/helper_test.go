package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/wuyi-mall/internal/config"
	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/models"
	"github.com/wuyi-mall/internal/queue"
	"github.com/wuyi-mall/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// serviceTestEnv 一套建立在内存 SQLite 上的完整服务栈
type serviceTestEnv struct {
	db *gorm.DB

	userRepo     *repository.GormUserRepository
	productRepo  *repository.GormProductRepository
	cartRepo     *repository.GormCartRepository
	orderRepo    *repository.GormOrderRepository
	couponRepo   *repository.GormCouponRepository
	ucRepo       *repository.GormUserCouponRepository
	activityRepo *repository.GormDiscountActivityRepository
	recordRepo   *repository.GormPaymentRecordRepository
	channelRepo  *repository.GormPaymentChannelRepository
	commentRepo  *repository.GormCommentRepository

	inventory *InventoryService
	marketing *MarketingService
	orders    *OrderService
	payments  *PayService
	carts     *CartService
	comments  *CommentService
}

func setupServiceTest(t *testing.T) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	env := &serviceTestEnv{
		db:           db,
		userRepo:     repository.NewUserRepository(db),
		productRepo:  repository.NewProductRepository(db),
		cartRepo:     repository.NewCartRepository(db),
		orderRepo:    repository.NewOrderRepository(db),
		couponRepo:   repository.NewCouponRepository(db),
		ucRepo:       repository.NewUserCouponRepository(db),
		activityRepo: repository.NewDiscountActivityRepository(db),
		recordRepo:   repository.NewPaymentRecordRepository(db),
		channelRepo:  repository.NewPaymentChannelRepository(db),
		commentRepo:  repository.NewCommentRepository(db),
	}
	env.inventory = NewInventoryService(env.productRepo)
	env.marketing = NewMarketingService(env.couponRepo, env.ucRepo, env.activityRepo, env.productRepo)
	queueClient, err := queue.NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	env.orders = NewOrderService(env.orderRepo, env.productRepo, env.cartRepo, env.inventory, env.marketing, queueClient, 15)
	env.payments = NewPayService(env.orderRepo, env.recordRepo, env.channelRepo, env.orders, env.marketing, 15)
	env.carts = NewCartService(env.cartRepo, env.productRepo)
	env.comments = NewCommentService(env.commentRepo, env.orderRepo, env.productRepo, env.userRepo)
	return env
}

// completeOrder 依次执行商家侧与客户侧流转，将订单推进到交易完成
func (env *serviceTestEnv) completeOrder(t *testing.T, orderID, userID, shopID uint) {
	t.Helper()
	steps := []struct {
		operate string
		role    string
	}{
		{constants.OrderOperateConfirm, constants.RoleMerchant},
		{constants.OrderOperatePrepare, constants.RoleMerchant},
		{constants.OrderOperateDeliver, constants.RoleMerchant},
		{constants.OrderOperateConfirmReceipt, constants.RoleCustomer},
	}
	for _, step := range steps {
		input := OperateInput{
			OrderID:     orderID,
			OperateType: step.operate,
			ActorRole:   step.role,
		}
		if step.role == constants.RoleMerchant {
			input.ActorID = 100
			input.ActorShopID = shopID
		} else {
			input.ActorID = userID
		}
		if err := env.orders.Operate(input); err != nil {
			t.Fatalf("operate %s failed: %v", step.operate, err)
		}
	}
}

func (env *serviceTestEnv) createProduct(t *testing.T, shopID uint, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ShopID:   shopID,
		Name:     fmt.Sprintf("测试商品-%d", stock),
		Price:    testMoney(t, price),
		StockNum: stock,
		Status:   constants.ProductStatusActive,
	}
	if err := env.productRepo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (env *serviceTestEnv) addCart(t *testing.T, userID, productID uint, quantity int) *models.Cart {
	t.Helper()
	cart := &models.Cart{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := env.db.Create(cart).Error; err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	return cart
}

// placeOrder 直接走下单服务创建一张待支付订单
func (env *serviceTestEnv) placeOrder(t *testing.T, userID uint, productID uint, quantity int, userCouponID *uint) *models.Order {
	t.Helper()
	cart := env.addCart(t, userID, productID, quantity)
	result, err := env.orders.CreateFromCart(CreateFromCartInput{
		UserID:       userID,
		CartIDs:      []uint{cart.ID},
		UserCouponID: userCouponID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return result.Order
}

func (env *serviceTestEnv) stockOf(t *testing.T, productID uint) int {
	t.Helper()
	product, err := env.productRepo.GetByID(productID)
	if err != nil || product == nil {
		t.Fatalf("load product failed: %v", err)
	}
	return product.StockNum
}

func (env *serviceTestEnv) orderStatus(t *testing.T, orderID uint) (int, int) {
	t.Helper()
	order, err := env.orderRepo.GetByID(orderID)
	if err != nil || order == nil {
		t.Fatalf("load order failed: %v", err)
	}
	return order.Status, order.PayStatus
}

func testMoney(t *testing.T, value string) models.Money {
	t.Helper()
	amount, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse money %q failed: %v", value, err)
	}
	return models.NewMoneyFromDecimal(amount)
}

func testCouponWindow(now time.Time) (time.Time, time.Time) {
	return now.Add(-time.Hour), now.Add(24 * time.Hour)
}
