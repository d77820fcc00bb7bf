package main

import (
	"encoding/json"
	"time"

	"github.com/wuyi-mall/internal/config"
	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/logger"
	"github.com/wuyi-mall/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// 开发环境示例数据：两家商铺、三类账号、商品、优惠券、折扣活动、支付渠道。
// 所有写入都先查后插，可重复执行
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库连接失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	seedUsers(stdLog)
	seedProducts(stdLog)
	seedCoupons(stdLog)
	seedActivities(stdLog)
	seedPaymentChannels(stdLog)

	stdLog.Printf("示例数据初始化完成")
}

type stdLogger interface {
	Printf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

func seedUsers(stdLog stdLogger) {
	users := []models.User{
		{Username: "admin", Role: constants.RoleAdmin, Status: constants.UserStatusActive},
		{Username: "shop1", Role: constants.RoleMerchant, ShopID: 1, Status: constants.UserStatusActive},
		{Username: "shop2", Role: constants.RoleMerchant, ShopID: 2, Status: constants.UserStatusActive},
		{Username: "alice", Role: constants.RoleCustomer, Status: constants.UserStatusActive},
		{Username: "bob", Role: constants.RoleCustomer, Status: constants.UserStatusActive},
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("生成密码哈希失败: %v", err)
	}
	for _, user := range users {
		var existing models.User
		if err := models.DB.Where("username = ?", user.Username).First(&existing).Error; err == nil {
			stdLog.Printf("用户已存在: %s", user.Username)
			continue
		}
		user.Password = string(hashed)
		if err := models.DB.Create(&user).Error; err != nil {
			stdLog.Printf("创建用户 %s 失败: %v", user.Username, err)
			continue
		}
		stdLog.Printf("创建用户: %s (%s)", user.Username, user.Role)
	}
}

func seedProducts(stdLog stdLogger) {
	products := []models.Product{
		{ShopID: 1, Name: "无线蓝牙耳机", Price: money("99.90"), StockNum: 200, Status: constants.ProductStatusActive},
		{ShopID: 1, Name: "机械键盘", Price: money("299.00"), StockNum: 80, Status: constants.ProductStatusActive},
		{ShopID: 1, Name: "便携充电宝", Price: money("59.00"), StockNum: 500, Status: constants.ProductStatusActive},
		{ShopID: 2, Name: "保温杯", Price: money("45.50"), StockNum: 300, Status: constants.ProductStatusActive},
		{ShopID: 2, Name: "桌面台灯", Price: money("129.00"), StockNum: 120, Status: constants.ProductStatusActive},
	}
	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("shop_id = ? AND name = ?", product.ShopID, product.Name).First(&existing).Error; err == nil {
			stdLog.Printf("商品已存在: %s", product.Name)
			continue
		}
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("创建商品 %s 失败: %v", product.Name, err)
			continue
		}
		stdLog.Printf("创建商品: %s (店铺 %d)", product.Name, product.ShopID)
	}
}

func seedCoupons(stdLog stdLogger) {
	now := time.Now()
	coupons := []models.Coupon{
		{
			ShopID:    1,
			Name:      "满100减20",
			Type:      constants.CouponTypeFixedAmount,
			Threshold: money("100.00"),
			Value:     money("20.00"),
			TotalNum:  100,
			RemainNum: 100,
			StartTime: now.AddDate(0, 0, -1),
			EndTime:   now.AddDate(0, 1, 0),
			Status:    constants.CouponStatusOnline,
		},
		{
			ShopID:    2,
			Name:      "全场9折券",
			Type:      constants.CouponTypeDiscount,
			Value:     money("0.90"),
			TotalNum:  50,
			RemainNum: 50,
			StartTime: now.AddDate(0, 0, -1),
			EndTime:   now.AddDate(0, 1, 0),
			Status:    constants.CouponStatusOnline,
		},
	}
	for _, coupon := range coupons {
		var existing models.Coupon
		if err := models.DB.Where("shop_id = ? AND name = ?", coupon.ShopID, coupon.Name).First(&existing).Error; err == nil {
			stdLog.Printf("优惠券已存在: %s", coupon.Name)
			continue
		}
		if err := models.DB.Create(&coupon).Error; err != nil {
			stdLog.Printf("创建优惠券 %s 失败: %v", coupon.Name, err)
			continue
		}
		stdLog.Printf("创建优惠券: %s (店铺 %d)", coupon.Name, coupon.ShopID)
	}
}

func seedActivities(stdLog stdLogger) {
	now := time.Now()
	var existing models.DiscountActivity
	if err := models.DB.Where("shop_id = ? AND name = ?", 1, "数码周边8折").First(&existing).Error; err == nil {
		stdLog.Printf("折扣活动已存在: %s", existing.Name)
		return
	}

	var products []models.Product
	if err := models.DB.Where("shop_id = ?", 1).Limit(2).Find(&products).Error; err != nil || len(products) == 0 {
		stdLog.Printf("店铺 1 暂无商品，跳过折扣活动")
		return
	}
	activity := models.DiscountActivity{
		ShopID:       1,
		Name:         "数码周边8折",
		DiscountRate: money("0.80"),
		StartTime:    now.AddDate(0, 0, -1),
		EndTime:      now.AddDate(0, 0, 14),
		Status:       constants.ActivityStatusOnline,
	}
	for _, product := range products {
		activity.Products = append(activity.Products, models.DiscountActivityProduct{ProductID: product.ID})
	}
	if err := models.DB.Create(&activity).Error; err != nil {
		stdLog.Printf("创建折扣活动失败: %v", err)
		return
	}
	stdLog.Printf("创建折扣活动: %s", activity.Name)
}

func seedPaymentChannels(stdLog stdLogger) {
	channels := []struct {
		payType string
		name    string
		config  map[string]interface{}
	}{
		{constants.PayTypeAlipay, "支付宝", map[string]interface{}{"app_id": "sandbox-app-id", "notify_secret": "alipay-dev-secret"}},
		{constants.PayTypeWechat, "微信支付", map[string]interface{}{"mch_id": "sandbox-mch-id", "api_key": "wechat-dev-secret"}},
		{constants.PayTypeCreditCard, "信用卡", map[string]interface{}{"gateway": "sandbox", "api_key": "card-dev-secret"}},
	}
	for _, ch := range channels {
		var existing models.PaymentChannel
		if err := models.DB.Where("pay_type = ?", ch.payType).First(&existing).Error; err == nil {
			stdLog.Printf("支付渠道已存在: %s", ch.payType)
			continue
		}
		raw, err := json.Marshal(ch.config)
		if err != nil {
			stdLog.Printf("序列化渠道配置失败 %s: %v", ch.payType, err)
			continue
		}
		channel := models.PaymentChannel{
			PayType: ch.payType,
			Name:    ch.name,
			Config:  string(raw),
			Status:  constants.PaymentChannelEnabled,
		}
		if err := models.DB.Create(&channel).Error; err != nil {
			stdLog.Printf("创建支付渠道 %s 失败: %v", ch.payType, err)
			continue
		}
		stdLog.Printf("创建支付渠道: %s", ch.payType)
	}
}

func money(v string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(v))
}
