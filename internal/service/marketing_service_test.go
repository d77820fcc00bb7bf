package service

import (
	"errors"
	"testing"
	"time"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/models"
)

func (env *serviceTestEnv) publishFixedCoupon(t *testing.T, shopID uint, threshold, value string, total int) *models.Coupon {
	t.Helper()
	start, end := testCouponWindow(time.Now())
	coupon, err := env.marketing.PublishCoupon(shopID, PublishCouponInput{
		Name:      "满减券",
		Type:      constants.CouponTypeFixedAmount,
		Threshold: testMoney(t, threshold),
		Value:     testMoney(t, value),
		TotalNum:  total,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("publish coupon failed: %v", err)
	}
	return coupon
}

func TestPublishCouponValidation(t *testing.T) {
	env := setupServiceTest(t)
	now := time.Now()
	start, end := testCouponWindow(now)

	cases := []struct {
		name  string
		input PublishCouponInput
	}{
		{"空名称", PublishCouponInput{Type: constants.CouponTypeFixedAmount, Threshold: testMoney(t, "100.00"), Value: testMoney(t, "20.00"), TotalNum: 10, StartTime: start, EndTime: end}},
		{"总量为零", PublishCouponInput{Name: "券", Type: constants.CouponTypeFixedAmount, Threshold: testMoney(t, "100.00"), Value: testMoney(t, "20.00"), StartTime: start, EndTime: end}},
		{"时间窗口倒置", PublishCouponInput{Name: "券", Type: constants.CouponTypeFixedAmount, Threshold: testMoney(t, "100.00"), Value: testMoney(t, "20.00"), TotalNum: 10, StartTime: end, EndTime: start}},
		{"满减门槛为零", PublishCouponInput{Name: "券", Type: constants.CouponTypeFixedAmount, Value: testMoney(t, "20.00"), TotalNum: 10, StartTime: start, EndTime: end}},
		{"面值不低于门槛", PublishCouponInput{Name: "券", Type: constants.CouponTypeFixedAmount, Threshold: testMoney(t, "100.00"), Value: testMoney(t, "100.00"), TotalNum: 10, StartTime: start, EndTime: end}},
		{"折扣券带门槛", PublishCouponInput{Name: "券", Type: constants.CouponTypeDiscount, Threshold: testMoney(t, "50.00"), Value: testMoney(t, "0.90"), TotalNum: 10, StartTime: start, EndTime: end}},
		{"折扣率过低", PublishCouponInput{Name: "券", Type: constants.CouponTypeDiscount, Value: testMoney(t, "0.05"), TotalNum: 10, StartTime: start, EndTime: end}},
		{"折扣率过高", PublishCouponInput{Name: "券", Type: constants.CouponTypeDiscount, Value: testMoney(t, "1.00"), TotalNum: 10, StartTime: start, EndTime: end}},
		{"未知类型", PublishCouponInput{Name: "券", Type: 99, Value: testMoney(t, "20.00"), TotalNum: 10, StartTime: start, EndTime: end}},
	}
	for _, tc := range cases {
		if _, err := env.marketing.PublishCoupon(1, tc.input); !errors.Is(err, ErrCouponInvalid) {
			t.Errorf("%s: want ErrCouponInvalid, got %v", tc.name, err)
		}
	}
}

func TestPublishCouponScopeChecks(t *testing.T) {
	env := setupServiceTest(t)
	mine := env.createProduct(t, 1, "50.00", 10)
	foreign := env.createProduct(t, 2, "50.00", 10)
	start, end := testCouponWindow(time.Now())

	base := PublishCouponInput{
		Name:      "店铺专享券",
		Type:      constants.CouponTypeFixedAmount,
		Threshold: testMoney(t, "100.00"),
		Value:     testMoney(t, "20.00"),
		TotalNum:  5,
		StartTime: start,
		EndTime:   end,
	}

	// 范围含他店商品
	input := base
	input.ScopeIDs = []uint{mine.ID, foreign.ID}
	if _, err := env.marketing.PublishCoupon(1, input); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("want ErrPermissionDenied, got %v", err)
	}

	// 范围含不存在的商品
	input = base
	input.ScopeIDs = []uint{mine.ID, 9999}
	if _, err := env.marketing.PublishCoupon(1, input); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound, got %v", err)
	}

	// 合法范围
	input = base
	input.ScopeIDs = []uint{mine.ID}
	coupon, err := env.marketing.PublishCoupon(1, input)
	if err != nil {
		t.Fatalf("publish scoped coupon failed: %v", err)
	}
	scope := coupon.ScopeProductIDs()
	if len(scope) != 1 || scope[0] != mine.ID {
		t.Fatalf("scope want [%d], got %v", mine.ID, scope)
	}
}

func TestClaimCoupon(t *testing.T) {
	env := setupServiceTest(t)
	coupon := env.publishFixedCoupon(t, 1, "100.00", "20.00", 2)

	userCoupon, err := env.marketing.ClaimCoupon(7, coupon.ID)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if userCoupon.Status != constants.UserCouponStatusUnused {
		t.Fatalf("status want unused, got %d", userCoupon.Status)
	}
	stored, err := env.couponRepo.GetByID(coupon.ID)
	if err != nil || stored == nil {
		t.Fatalf("load coupon failed: %v", err)
	}
	if stored.RemainNum != 1 {
		t.Fatalf("remain want 1, got %d", stored.RemainNum)
	}

	// 同券重复领取
	if _, err := env.marketing.ClaimCoupon(7, coupon.ID); !errors.Is(err, ErrCouponAlreadyClaimed) {
		t.Fatalf("want ErrCouponAlreadyClaimed, got %v", err)
	}

	// 余量领完
	if _, err := env.marketing.ClaimCoupon(8, coupon.ID); err != nil {
		t.Fatalf("second user claim failed: %v", err)
	}
	if _, err := env.marketing.ClaimCoupon(9, coupon.ID); !errors.Is(err, ErrCouponSoldOut) {
		t.Fatalf("want ErrCouponSoldOut, got %v", err)
	}
}

func TestClaimCouponRejectsUnusable(t *testing.T) {
	env := setupServiceTest(t)

	// 券不存在
	if _, err := env.marketing.ClaimCoupon(7, 9999); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("want ErrCouponNotFound, got %v", err)
	}

	// 已下线
	offline := env.publishFixedCoupon(t, 1, "100.00", "20.00", 5)
	if err := env.marketing.OfflineCoupon(1, offline.ID); err != nil {
		t.Fatalf("offline coupon failed: %v", err)
	}
	if _, err := env.marketing.ClaimCoupon(7, offline.ID); !errors.Is(err, ErrCouponNotUsable) {
		t.Fatalf("want ErrCouponNotUsable, got %v", err)
	}

	// 已过期：直接改库构造
	expired := env.publishFixedCoupon(t, 1, "100.00", "20.00", 5)
	past := time.Now().Add(-time.Minute)
	if err := env.db.Model(&models.Coupon{}).Where("id = ?", expired.ID).
		Update("end_time", past).Error; err != nil {
		t.Fatalf("backdate coupon failed: %v", err)
	}
	if _, err := env.marketing.ClaimCoupon(7, expired.ID); !errors.Is(err, ErrCouponNotUsable) {
		t.Fatalf("want ErrCouponNotUsable, got %v", err)
	}
}

func TestOfflineCouponOwnership(t *testing.T) {
	env := setupServiceTest(t)
	coupon := env.publishFixedCoupon(t, 1, "100.00", "20.00", 5)

	if err := env.marketing.OfflineCoupon(2, coupon.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("want ErrPermissionDenied, got %v", err)
	}
	if err := env.marketing.OfflineCoupon(1, 9999); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("want ErrCouponNotFound, got %v", err)
	}
	if err := env.marketing.OfflineCoupon(1, coupon.ID); err != nil {
		t.Fatalf("offline failed: %v", err)
	}
	stored, _ := env.couponRepo.GetByID(coupon.ID)
	if stored.Status != constants.CouponStatusOffline {
		t.Fatalf("status want offline, got %d", stored.Status)
	}
}

func TestCouponDiscountMath(t *testing.T) {
	env := setupServiceTest(t)
	items := []models.OrderItem{
		{ProductID: 1, Price: testMoney(t, "60.00"), Quantity: 1},
		{ProductID: 2, Price: testMoney(t, "25.00"), Quantity: 2},
	}
	// 小计 110

	fixed := &models.Coupon{Type: constants.CouponTypeFixedAmount, Threshold: testMoney(t, "100.00"), Value: testMoney(t, "20.00")}
	if got := env.marketing.CouponDiscount(fixed, items).String(); got != "20.00" {
		t.Fatalf("fixed discount want 20.00, got %s", got)
	}

	// 门槛未达
	high := &models.Coupon{Type: constants.CouponTypeFixedAmount, Threshold: testMoney(t, "200.00"), Value: testMoney(t, "20.00")}
	if got := env.marketing.CouponDiscount(high, items).String(); got != "0.00" {
		t.Fatalf("below threshold want 0.00, got %s", got)
	}

	// 折扣券：110 × (1−0.9) = 11
	rate := &models.Coupon{Type: constants.CouponTypeDiscount, Value: testMoney(t, "0.90")}
	if got := env.marketing.CouponDiscount(rate, items).String(); got != "11.00" {
		t.Fatalf("rate discount want 11.00, got %s", got)
	}

	// 范围券只对命中商品计小计：商品 2 小计 50，未达 100 门槛
	scoped := &models.Coupon{Type: constants.CouponTypeFixedAmount, Threshold: testMoney(t, "100.00"), Value: testMoney(t, "20.00"), ScopeIDs: "[2]"}
	if got := env.marketing.CouponDiscount(scoped, items).String(); got != "0.00" {
		t.Fatalf("scoped below threshold want 0.00, got %s", got)
	}

	// 面值封顶不超过适用小计
	capped := &models.Coupon{Type: constants.CouponTypeFixedAmount, Threshold: testMoney(t, "40.00"), Value: testMoney(t, "80.00"), ScopeIDs: "[2]"}
	if got := env.marketing.CouponDiscount(capped, items).String(); got != "50.00" {
		t.Fatalf("capped discount want 50.00, got %s", got)
	}
}

func TestActivityDiscountPicksBestRate(t *testing.T) {
	env := setupServiceTest(t)
	first := env.createProduct(t, 1, "100.00", 10)
	second := env.createProduct(t, 1, "40.00", 10)
	uncovered := env.createProduct(t, 1, "70.00", 10)
	start, end := testCouponWindow(time.Now())

	if _, err := env.marketing.PublishActivity(1, PublishActivityInput{
		Name: "九折", DiscountRate: testMoney(t, "0.90"),
		StartTime: start, EndTime: end,
		ProductIDs: []uint{first.ID, second.ID},
	}); err != nil {
		t.Fatalf("publish activity failed: %v", err)
	}
	// 同商品的更低折扣率活动胜出
	if _, err := env.marketing.PublishActivity(1, PublishActivityInput{
		Name: "八折", DiscountRate: testMoney(t, "0.80"),
		StartTime: start, EndTime: end,
		ProductIDs: []uint{first.ID},
	}); err != nil {
		t.Fatalf("publish activity failed: %v", err)
	}

	items := []models.OrderItem{
		{ProductID: first.ID, Price: testMoney(t, "100.00"), Quantity: 1},
		{ProductID: second.ID, Price: testMoney(t, "40.00"), Quantity: 2},
		{ProductID: uncovered.ID, Price: testMoney(t, "70.00"), Quantity: 1},
	}
	// first: 100×0.2=20，second: 80×0.1=8，uncovered: 0 → 合计 28
	discount, err := env.marketing.ActivityDiscount(items, time.Now())
	if err != nil {
		t.Fatalf("activity discount failed: %v", err)
	}
	if got := discount.String(); got != "28.00" {
		t.Fatalf("activity discount want 28.00, got %s", got)
	}
}

func TestPublishActivityValidation(t *testing.T) {
	env := setupServiceTest(t)
	mine := env.createProduct(t, 1, "50.00", 10)
	foreign := env.createProduct(t, 2, "50.00", 10)
	start, end := testCouponWindow(time.Now())

	// 无商品
	if _, err := env.marketing.PublishActivity(1, PublishActivityInput{
		Name: "活动", DiscountRate: testMoney(t, "0.80"), StartTime: start, EndTime: end,
	}); !errors.Is(err, ErrActivityInvalid) {
		t.Fatalf("want ErrActivityInvalid, got %v", err)
	}

	// 折扣率越界
	if _, err := env.marketing.PublishActivity(1, PublishActivityInput{
		Name: "活动", DiscountRate: testMoney(t, "1.20"), StartTime: start, EndTime: end,
		ProductIDs: []uint{mine.ID},
	}); !errors.Is(err, ErrActivityInvalid) {
		t.Fatalf("want ErrActivityInvalid, got %v", err)
	}

	// 含他店商品
	if _, err := env.marketing.PublishActivity(1, PublishActivityInput{
		Name: "活动", DiscountRate: testMoney(t, "0.80"), StartTime: start, EndTime: end,
		ProductIDs: []uint{mine.ID, foreign.ID},
	}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("want ErrPermissionDenied, got %v", err)
	}
}

func TestOfflineActivityStopsDiscount(t *testing.T) {
	env := setupServiceTest(t)
	product := env.createProduct(t, 1, "100.00", 10)
	start, end := testCouponWindow(time.Now())

	activity, err := env.marketing.PublishActivity(1, PublishActivityInput{
		Name: "八折", DiscountRate: testMoney(t, "0.80"),
		StartTime: start, EndTime: end,
		ProductIDs: []uint{product.ID},
	})
	if err != nil {
		t.Fatalf("publish activity failed: %v", err)
	}

	if err := env.marketing.OfflineActivity(2, activity.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("want ErrPermissionDenied, got %v", err)
	}
	if err := env.marketing.OfflineActivity(1, activity.ID); err != nil {
		t.Fatalf("offline activity failed: %v", err)
	}

	items := []models.OrderItem{{ProductID: product.ID, Price: testMoney(t, "100.00"), Quantity: 1}}
	discount, err := env.marketing.ActivityDiscount(items, time.Now())
	if err != nil {
		t.Fatalf("activity discount failed: %v", err)
	}
	if got := discount.String(); got != "0.00" {
		t.Fatalf("offline activity should not discount, got %s", got)
	}
}

func TestUsableUserCoupon(t *testing.T) {
	env := setupServiceTest(t)
	coupon := env.publishFixedCoupon(t, 1, "100.00", "20.00", 5)
	userCoupon, err := env.marketing.ClaimCoupon(7, coupon.ID)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	now := time.Now()

	if _, _, err := env.marketing.UsableUserCoupon(7, userCoupon.ID, now); err != nil {
		t.Fatalf("usable check failed: %v", err)
	}
	// 非持有人
	if _, _, err := env.marketing.UsableUserCoupon(8, userCoupon.ID, now); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("want ErrPermissionDenied, got %v", err)
	}
	// 不存在
	if _, _, err := env.marketing.UsableUserCoupon(7, 9999, now); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("want ErrCouponNotFound, got %v", err)
	}
	// 已使用
	if err := env.db.Model(&models.UserCoupon{}).Where("id = ?", userCoupon.ID).
		Update("status", constants.UserCouponStatusUsed).Error; err != nil {
		t.Fatalf("mark used failed: %v", err)
	}
	if _, _, err := env.marketing.UsableUserCoupon(7, userCoupon.ID, now); !errors.Is(err, ErrCouponNotUsable) {
		t.Fatalf("want ErrCouponNotUsable, got %v", err)
	}
}
