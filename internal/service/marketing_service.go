package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/wuyi-mall/internal/cache"
	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/logger"
	"github.com/wuyi-mall/internal/models"
	"github.com/wuyi-mall/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 折扣率允许区间
var (
	discountRateMin = decimal.NewFromFloat(0.1)
	discountRateMax = decimal.NewFromFloat(0.99)
)

// MarketingService 优惠券与折扣活动服务
type MarketingService struct {
	couponRepo     repository.CouponRepository
	userCouponRepo repository.UserCouponRepository
	activityRepo   repository.DiscountActivityRepository
	productRepo    repository.ProductRepository
}

// NewMarketingService 创建营销服务
func NewMarketingService(couponRepo repository.CouponRepository, userCouponRepo repository.UserCouponRepository, activityRepo repository.DiscountActivityRepository, productRepo repository.ProductRepository) *MarketingService {
	return &MarketingService{
		couponRepo:     couponRepo,
		userCouponRepo: userCouponRepo,
		activityRepo:   activityRepo,
		productRepo:    productRepo,
	}
}

// PublishCouponInput 发布优惠券输入
type PublishCouponInput struct {
	Name      string
	Type      int
	Threshold models.Money
	Value     models.Money
	TotalNum  int
	StartTime time.Time
	EndTime   time.Time
	ScopeIDs  []uint
}

// PublishActivityInput 发布折扣活动输入
type PublishActivityInput struct {
	Name         string
	DiscountRate models.Money
	StartTime    time.Time
	EndTime      time.Time
	ProductIDs   []uint
}

// PublishCoupon 商家发布优惠券。发布后业务条款不可变
func (s *MarketingService) PublishCoupon(shopID uint, input PublishCouponInput) (*models.Coupon, error) {
	if shopID == 0 || input.Name == "" || input.TotalNum <= 0 {
		return nil, ErrCouponInvalid
	}
	if !input.StartTime.Before(input.EndTime) {
		return nil, ErrCouponInvalid
	}
	switch input.Type {
	case constants.CouponTypeFixedAmount:
		if input.Threshold.LessThanOrEqual(decimal.Zero) {
			return nil, ErrCouponInvalid
		}
		if input.Value.GreaterThanOrEqual(input.Threshold.Decimal) || input.Value.LessThanOrEqual(decimal.Zero) {
			return nil, ErrCouponInvalid
		}
	case constants.CouponTypeDiscount:
		if !input.Threshold.IsZero() {
			return nil, ErrCouponInvalid
		}
		if input.Value.LessThan(discountRateMin) || input.Value.GreaterThan(discountRateMax) {
			return nil, ErrCouponInvalid
		}
	default:
		return nil, ErrCouponInvalid
	}
	if err := s.validateScope(shopID, input.ScopeIDs); err != nil {
		return nil, err
	}

	scopeJSON := ""
	if len(input.ScopeIDs) > 0 {
		data, err := json.Marshal(input.ScopeIDs)
		if err != nil {
			return nil, err
		}
		scopeJSON = string(data)
	}

	coupon := &models.Coupon{
		ShopID:    shopID,
		Name:      input.Name,
		Type:      input.Type,
		Threshold: input.Threshold,
		Value:     input.Value,
		TotalNum:  input.TotalNum,
		RemainNum: input.TotalNum,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		ScopeIDs:  scopeJSON,
		Status:    constants.CouponStatusOnline,
	}
	if err := s.couponRepo.Create(coupon); err != nil {
		return nil, err
	}
	logger.Infow("coupon_published", "coupon_id", coupon.ID, "shop_id", shopID, "type", input.Type, "total_num", input.TotalNum)
	return coupon, nil
}

// ClaimCoupon 用户领取优惠券。条件扣减余量与持券写入在同一事务内完成，
// 同券同用户的唯一约束兜底并发重复领取
func (s *MarketingService) ClaimCoupon(userID, couponID uint) (*models.UserCoupon, error) {
	if userID == 0 || couponID == 0 {
		return nil, ErrValidation
	}
	coupon, err := s.couponRepo.GetByID(couponID)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	now := time.Now()
	if coupon.Status != constants.CouponStatusOnline {
		return nil, ErrCouponNotUsable
	}
	if now.Before(coupon.StartTime) || !now.Before(coupon.EndTime) {
		return nil, ErrCouponNotUsable
	}
	existing, err := s.userCouponRepo.GetByUserAndCoupon(userID, couponID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCouponAlreadyClaimed
	}

	userCoupon := &models.UserCoupon{
		UserID:      userID,
		CouponID:    couponID,
		Status:      constants.UserCouponStatusUnused,
		ReceiveTime: now,
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.couponRepo.WithTx(tx).DecrementRemain(couponID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrCouponSoldOut
		}
		if err := s.userCouponRepo.WithTx(tx).Create(userCoupon); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCouponAlreadyClaimed
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("coupon_claimed", "coupon_id", couponID, "user_id", userID, "user_coupon_id", userCoupon.ID)
	return userCoupon, nil
}

// ListClaimableCoupons 用户视角的可领优惠券列表
func (s *MarketingService) ListClaimableCoupons(shopID uint, page, pageSize int) ([]models.Coupon, int64, error) {
	return s.couponRepo.List(repository.CouponListFilter{
		Page:       page,
		PageSize:   pageSize,
		ShopID:     shopID,
		OnlyActive: true,
	})
}

// ListShopCoupons 商家视角的优惠券列表
func (s *MarketingService) ListShopCoupons(shopID uint, page, pageSize int) ([]models.Coupon, int64, error) {
	return s.couponRepo.List(repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		ShopID:   shopID,
	})
}

// ListUserCoupons 用户持券列表
func (s *MarketingService) ListUserCoupons(userID uint, status *int) ([]models.UserCoupon, error) {
	return s.userCouponRepo.ListByUser(userID, status)
}

// OfflineCoupon 商家下线优惠券
func (s *MarketingService) OfflineCoupon(shopID, couponID uint) error {
	coupon, err := s.couponRepo.GetByID(couponID)
	if err != nil {
		return err
	}
	if coupon == nil {
		return ErrCouponNotFound
	}
	if coupon.ShopID != shopID {
		return ErrPermissionDenied
	}
	return s.couponRepo.UpdateStatus(couponID, constants.CouponStatusOffline)
}

// PublishActivity 商家发布折扣活动
func (s *MarketingService) PublishActivity(shopID uint, input PublishActivityInput) (*models.DiscountActivity, error) {
	if shopID == 0 || input.Name == "" || len(input.ProductIDs) == 0 {
		return nil, ErrActivityInvalid
	}
	if !input.StartTime.Before(input.EndTime) {
		return nil, ErrActivityInvalid
	}
	if input.DiscountRate.LessThan(discountRateMin) || input.DiscountRate.GreaterThan(discountRateMax) {
		return nil, ErrActivityInvalid
	}
	if err := s.validateScope(shopID, input.ProductIDs); err != nil {
		return nil, err
	}

	activity := &models.DiscountActivity{
		ShopID:       shopID,
		Name:         input.Name,
		DiscountRate: input.DiscountRate,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		Status:       constants.ActivityStatusOnline,
	}
	if err := s.activityRepo.Create(activity, input.ProductIDs); err != nil {
		return nil, err
	}
	if err := cache.DelShopActivities(context.Background(), shopID); err != nil {
		logger.Warnw("activity_cache_purge_failed", "shop_id", shopID, "error", err)
	}
	logger.Infow("activity_published", "activity_id", activity.ID, "shop_id", shopID, "discount_rate", activity.DiscountRate.String())
	return activity, nil
}

// OfflineActivity 商家下线折扣活动
func (s *MarketingService) OfflineActivity(shopID, activityID uint) error {
	activity, err := s.activityRepo.GetByID(activityID)
	if err != nil {
		return err
	}
	if activity == nil {
		return ErrNotFound
	}
	if activity.ShopID != shopID {
		return ErrPermissionDenied
	}
	if err := s.activityRepo.UpdateStatus(activityID, constants.ActivityStatusOffline); err != nil {
		return err
	}
	if err := cache.DelShopActivities(context.Background(), shopID); err != nil {
		logger.Warnw("activity_cache_purge_failed", "shop_id", shopID, "error", err)
	}
	return nil
}

// ListShopActivities 商铺折扣活动列表（短 TTL 缓存，条款类数据可缓存，余量库存类不缓存）
func (s *MarketingService) ListShopActivities(shopID uint) ([]models.DiscountActivity, error) {
	ctx := context.Background()
	if cached, hit, err := cache.GetShopActivities(ctx, shopID); err == nil && hit {
		return cached, nil
	}
	activities, err := s.activityRepo.ListByShop(shopID)
	if err != nil {
		return nil, err
	}
	if err := cache.SetShopActivities(ctx, shopID, activities); err != nil {
		logger.Warnw("activity_cache_set_failed", "shop_id", shopID, "error", err)
	}
	return activities, nil
}

// CouponDiscount 计算优惠券对一组订单项的抵扣金额。
// 满减券在达到门槛时抵扣面值，否则抵扣 0；折扣券抵扣 适用小计 ×（1−折扣率）
func (s *MarketingService) CouponDiscount(coupon *models.Coupon, items []models.OrderItem) models.Money {
	if coupon == nil || len(items) == 0 {
		return models.ZeroMoney()
	}
	subtotal := scopedSubtotal(items, coupon.ScopeProductIDs())
	if subtotal.LessThanOrEqual(decimal.Zero) {
		return models.ZeroMoney()
	}
	switch coupon.Type {
	case constants.CouponTypeFixedAmount:
		if subtotal.LessThan(coupon.Threshold.Decimal) {
			return models.ZeroMoney()
		}
		value := coupon.Value.Decimal
		if value.GreaterThan(subtotal) {
			value = subtotal
		}
		return models.NewMoneyFromDecimal(value)
	case constants.CouponTypeDiscount:
		discount := subtotal.Mul(decimal.NewFromInt(1).Sub(coupon.Value.Decimal))
		return models.NewMoneyFromDecimal(discount)
	default:
		return models.ZeroMoney()
	}
}

// ActivityDiscount 计算折扣活动对一组订单项的抵扣金额。
// 每个订单项取覆盖它的最低折扣率活动，各项抵扣相加
func (s *MarketingService) ActivityDiscount(items []models.OrderItem, now time.Time) (models.Money, error) {
	if len(items) == 0 {
		return models.ZeroMoney(), nil
	}
	productIDs := make([]uint, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	activities, err := s.activityRepo.ListActiveByProducts(productIDs, now)
	if err != nil {
		return models.ZeroMoney(), err
	}
	if len(activities) == 0 {
		return models.ZeroMoney(), nil
	}

	// product_id -> 最低折扣率
	bestRate := make(map[uint]decimal.Decimal)
	for _, activity := range activities {
		for _, link := range activity.Products {
			rate, ok := bestRate[link.ProductID]
			if !ok || activity.DiscountRate.LessThan(rate) {
				bestRate[link.ProductID] = activity.DiscountRate.Decimal
			}
		}
	}

	total := decimal.Zero
	for _, item := range items {
		rate, ok := bestRate[item.ProductID]
		if !ok {
			continue
		}
		lineSubtotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(lineSubtotal.Mul(decimal.NewFromInt(1).Sub(rate)))
	}
	return models.NewMoneyFromDecimal(total), nil
}

// UsableUserCoupon 校验用户持券可用于结算
func (s *MarketingService) UsableUserCoupon(userID, userCouponID uint, now time.Time) (*models.UserCoupon, *models.Coupon, error) {
	userCoupon, err := s.userCouponRepo.GetByID(userCouponID)
	if err != nil {
		return nil, nil, err
	}
	if userCoupon == nil {
		return nil, nil, ErrCouponNotFound
	}
	if userCoupon.UserID != userID {
		return nil, nil, ErrPermissionDenied
	}
	if userCoupon.Status != constants.UserCouponStatusUnused {
		return nil, nil, ErrCouponNotUsable
	}
	coupon, err := s.couponRepo.GetByID(userCoupon.CouponID)
	if err != nil {
		return nil, nil, err
	}
	if coupon == nil {
		return nil, nil, ErrCouponNotFound
	}
	if coupon.Status != constants.CouponStatusOnline {
		return nil, nil, ErrCouponNotUsable
	}
	if now.Before(coupon.StartTime) || !now.Before(coupon.EndTime) {
		return nil, nil, ErrCouponNotUsable
	}
	return userCoupon, coupon, nil
}

// MarkUserCouponUsed 支付成功后将持券置为已使用，仅允许从未使用状态流转
func (s *MarketingService) MarkUserCouponUsed(tx *gorm.DB, userCouponID, orderID uint, useTime time.Time) error {
	affected, err := s.userCouponRepo.WithTx(tx).MarkUsed(userCouponID, orderID, useTime)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCouponNotUsable
	}
	return nil
}

// validateScope 校验范围内商品均属于发布商铺且在架
func (s *MarketingService) validateScope(shopID uint, productIDs []uint) error {
	if len(productIDs) == 0 {
		return nil
	}
	products, err := s.productRepo.GetByIDs(productIDs)
	if err != nil {
		return err
	}
	if len(products) != len(productIDs) {
		return ErrProductNotFound
	}
	for _, product := range products {
		if product.ShopID != shopID {
			return ErrPermissionDenied
		}
		if product.Status != constants.ProductStatusActive {
			return ErrProductOffline
		}
	}
	return nil
}

// scopedSubtotal 计算落在优惠范围内的订单项小计，空范围表示全部适用
func scopedSubtotal(items []models.OrderItem, scope []uint) decimal.Decimal {
	var scopeSet map[uint]bool
	if len(scope) > 0 {
		scopeSet = make(map[uint]bool, len(scope))
		for _, id := range scope {
			scopeSet[id] = true
		}
	}
	subtotal := decimal.Zero
	for _, item := range items {
		if scopeSet != nil && !scopeSet[item.ProductID] {
			continue
		}
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}
