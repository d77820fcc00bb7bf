package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/models"
	"github.com/wuyi-mall/internal/payment"
)

func (env *serviceTestEnv) enableCreditCardChannel(t *testing.T, gatewayURL string) {
	t.Helper()
	config, err := json.Marshal(map[string]string{
		"gateway_url": gatewayURL,
		"merchant_id": "M1001",
		"secret_key":  "test-secret",
		"notify_url":  "https://mall.example.com/api/v1/pay/callback/credit-card",
	})
	if err != nil {
		t.Fatalf("marshal channel config failed: %v", err)
	}
	channel := &models.PaymentChannel{
		PayType: constants.PayTypeCreditCard,
		Name:    "信用卡",
		Config:  string(config),
		Status:  constants.PaymentChannelEnabled,
	}
	if err := env.channelRepo.Upsert(channel); err != nil {
		t.Fatalf("upsert channel failed: %v", err)
	}
}

func newCreditCardGateway(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"transaction_id":"CC-TRADE-1","pay_url":"https://gateway.example.com/pay/CC-TRADE-1"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestInitiatePayCreditCard(t *testing.T) {
	env := setupServiceTest(t)
	gateway := newCreditCardGateway(t)
	env.enableCreditCardChannel(t, gateway.URL)

	product := env.createProduct(t, 1, "80.00", 10)
	order := env.placeOrder(t, 7, product.ID, 2, nil)

	result, err := env.payments.InitiatePay(context.Background(), InitiatePayInput{
		OrderID:    order.ID,
		UserID:     7,
		PayType:    constants.PayTypeCreditCard,
		ClientIP:   "203.0.113.9",
		CardNumber: "6222021234567890",
	})
	if err != nil {
		t.Fatalf("initiate pay failed: %v", err)
	}
	if result.Record.Status != constants.PayStatusUnpaid {
		t.Fatalf("record status want unpaid, got %d", result.Record.Status)
	}
	if got := result.Record.Amount.String(); got != "160.00" {
		t.Fatalf("amount want 160.00, got %s", got)
	}
	if result.PayParams.PayURL == "" {
		t.Fatalf("expected pay url from gateway")
	}

	// 重复发起返回同一条待支付记录
	again, err := env.payments.InitiatePay(context.Background(), InitiatePayInput{
		OrderID: order.ID,
		UserID:  7,
		PayType: constants.PayTypeCreditCard,
	})
	if err != nil {
		t.Fatalf("repeat initiate failed: %v", err)
	}
	if again.Record.ID != result.Record.ID {
		t.Fatalf("expected same record, got %d and %d", result.Record.ID, again.Record.ID)
	}

	// 换渠道重复发起被拒绝
	_, err = env.payments.InitiatePay(context.Background(), InitiatePayInput{
		OrderID: order.ID,
		UserID:  7,
		PayType: constants.PayTypeAlipay,
	})
	if !errors.Is(err, ErrPaymentStateConflict) {
		t.Fatalf("want ErrPaymentStateConflict, got %v", err)
	}
}

func TestInitiatePayRejections(t *testing.T) {
	env := setupServiceTest(t)
	product := env.createProduct(t, 1, "10.00", 10)
	order := env.placeOrder(t, 7, product.ID, 1, nil)

	// 非订单所有者
	_, err := env.payments.InitiatePay(context.Background(), InitiatePayInput{
		OrderID: order.ID, UserID: 8, PayType: constants.PayTypeCreditCard,
	})
	if !errors.Is(err, ErrOrderNotOwned) {
		t.Fatalf("want ErrOrderNotOwned, got %v", err)
	}

	// 渠道未配置
	_, err = env.payments.InitiatePay(context.Background(), InitiatePayInput{
		OrderID: order.ID, UserID: 7, PayType: constants.PayTypeCreditCard,
	})
	if !errors.Is(err, ErrPaymentChannelClosed) {
		t.Fatalf("want ErrPaymentChannelClosed, got %v", err)
	}

	// 订单不存在
	_, err = env.payments.InitiatePay(context.Background(), InitiatePayInput{
		OrderID: 9999, UserID: 7, PayType: constants.PayTypeCreditCard,
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("want ErrOrderNotFound, got %v", err)
	}
}

// createUnpaidRecord 直接落一条待支付记录，绕过渠道网关
func (env *serviceTestEnv) createUnpaidRecord(t *testing.T, order *models.Order, amount string) *models.PaymentRecord {
	t.Helper()
	record := &models.PaymentRecord{
		OrderID: order.ID,
		OrderNo: order.OrderNo,
		UserID:  order.UserID,
		PayType: constants.PayTypeCreditCard,
		Amount:  testMoney(t, amount),
		Status:  constants.PayStatusUnpaid,
	}
	if err := env.recordRepo.Create(record); err != nil {
		t.Fatalf("create payment record failed: %v", err)
	}
	return record
}

func TestCallbackSuccessAdvancesOrder(t *testing.T) {
	env := setupServiceTest(t)
	product := env.createProduct(t, 1, "30.00", 10)
	order := env.placeOrder(t, 7, product.ID, 1, nil)
	record := env.createUnpaidRecord(t, order, "30.00")

	err := env.payments.reconcile(constants.PayTypeCreditCard, &payment.CallbackData{
		TradeNo: "CC-OK-1",
		OrderNo: order.OrderNo,
		Amount:  "30.00",
		Success: true,
	}, payment.CallbackRequest{})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	stored, err := env.recordRepo.GetByID(record.ID)
	if err != nil || stored == nil {
		t.Fatalf("load record failed: %v", err)
	}
	if stored.Status != constants.PayStatusSuccess {
		t.Fatalf("record status want success, got %d", stored.Status)
	}
	if stored.TradeNo != "CC-OK-1" {
		t.Fatalf("trade no want CC-OK-1, got %s", stored.TradeNo)
	}
	status, payStatus := env.orderStatus(t, order.ID)
	if status != constants.OrderStatusConfirmed || payStatus != constants.OrderPayStatusPaid {
		t.Fatalf("order want confirmed/paid, got %d/%d", status, payStatus)
	}

	// 重放同一回调不再推进任何状态
	if err := env.payments.reconcile(constants.PayTypeCreditCard, &payment.CallbackData{
		TradeNo: "CC-OK-1",
		OrderNo: order.OrderNo,
		Amount:  "30.00",
		Success: true,
	}, payment.CallbackRequest{}); err != nil {
		t.Fatalf("replay reconcile failed: %v", err)
	}
	status, payStatus = env.orderStatus(t, order.ID)
	if status != constants.OrderStatusConfirmed || payStatus != constants.OrderPayStatusPaid {
		t.Fatalf("replay changed order state: %d/%d", status, payStatus)
	}
}

func TestCallbackAmountMismatchFailsRecordOnly(t *testing.T) {
	env := setupServiceTest(t)
	product := env.createProduct(t, 1, "30.00", 10)
	order := env.placeOrder(t, 7, product.ID, 1, nil)
	record := env.createUnpaidRecord(t, order, "30.00")

	err := env.payments.reconcile(constants.PayTypeCreditCard, &payment.CallbackData{
		TradeNo: "CC-BAD-1",
		OrderNo: order.OrderNo,
		Amount:  "0.01",
		Success: true,
	}, payment.CallbackRequest{})
	if !errors.Is(err, ErrPaymentAmountMismatch) {
		t.Fatalf("want ErrPaymentAmountMismatch, got %v", err)
	}

	stored, err := env.recordRepo.GetByID(record.ID)
	if err != nil || stored == nil {
		t.Fatalf("load record failed: %v", err)
	}
	if stored.Status != constants.PayStatusFailed {
		t.Fatalf("record status want failed, got %d", stored.Status)
	}
	// 订单完全不受影响
	status, payStatus := env.orderStatus(t, order.ID)
	if status != constants.OrderStatusPlaced || payStatus != constants.OrderPayStatusUnpaid {
		t.Fatalf("order want placed/unpaid, got %d/%d", status, payStatus)
	}
}

func TestCallbackNotSuccessKeepsRecordPending(t *testing.T) {
	env := setupServiceTest(t)
	product := env.createProduct(t, 1, "30.00", 10)
	order := env.placeOrder(t, 7, product.ID, 1, nil)
	record := env.createUnpaidRecord(t, order, "30.00")

	err := env.payments.reconcile(constants.PayTypeCreditCard, &payment.CallbackData{
		OrderNo: order.OrderNo,
		Amount:  "30.00",
		Success: false,
	}, payment.CallbackRequest{})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	stored, err := env.recordRepo.GetByID(record.ID)
	if err != nil || stored == nil {
		t.Fatalf("load record failed: %v", err)
	}
	if stored.Status != constants.PayStatusUnpaid {
		t.Fatalf("record should stay unpaid, got %d", stored.Status)
	}
}

func TestCallbackMarksCouponUsed(t *testing.T) {
	env := setupServiceTest(t)
	product := env.createProduct(t, 1, "100.00", 10)

	now := time.Now()
	start, end := testCouponWindow(now)
	coupon, err := env.marketing.PublishCoupon(1, PublishCouponInput{
		Name:      "满100减20",
		Type:      constants.CouponTypeFixedAmount,
		Threshold: testMoney(t, "100.00"),
		Value:     testMoney(t, "20.00"),
		TotalNum:  10,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("publish coupon failed: %v", err)
	}
	userCoupon, err := env.marketing.ClaimCoupon(7, coupon.ID)
	if err != nil {
		t.Fatalf("claim coupon failed: %v", err)
	}

	order := env.placeOrder(t, 7, product.ID, 1, &userCoupon.ID)

	gateway := newCreditCardGateway(t)
	env.enableCreditCardChannel(t, gateway.URL)
	result, err := env.payments.InitiatePay(context.Background(), InitiatePayInput{
		OrderID:    order.ID,
		UserID:     7,
		PayType:    constants.PayTypeCreditCard,
		CardNumber: "6222021234567890",
	})
	if err != nil {
		t.Fatalf("initiate pay failed: %v", err)
	}
	if got := result.Record.Amount.String(); got != "80.00" {
		t.Fatalf("amount want 80.00, got %s", got)
	}
	if result.Record.UserCouponID == nil || *result.Record.UserCouponID != userCoupon.ID {
		t.Fatalf("record should carry applied user coupon, got %+v", result.Record.UserCouponID)
	}

	err = env.payments.reconcile(constants.PayTypeCreditCard, &payment.CallbackData{
		TradeNo: "CC-COUPON-1",
		OrderNo: order.OrderNo,
		Amount:  "80.00",
		Success: true,
	}, payment.CallbackRequest{})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	var stored models.UserCoupon
	if err := env.db.First(&stored, userCoupon.ID).Error; err != nil {
		t.Fatalf("load user coupon failed: %v", err)
	}
	if stored.Status != constants.UserCouponStatusUsed {
		t.Fatalf("user coupon want used, got %d", stored.Status)
	}
	if stored.OrderID == nil || *stored.OrderID != order.ID {
		t.Fatalf("user coupon order binding wrong: %+v", stored)
	}
}

func TestCallbackKeepsUnappliedCoupon(t *testing.T) {
	env := setupServiceTest(t)
	product := env.createProduct(t, 1, "100.00", 10)

	now := time.Now()
	start, end := testCouponWindow(now)
	coupon, err := env.marketing.PublishCoupon(1, PublishCouponInput{
		Name:      "满100减20",
		Type:      constants.CouponTypeFixedAmount,
		Threshold: testMoney(t, "100.00"),
		Value:     testMoney(t, "20.00"),
		TotalNum:  10,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("publish coupon failed: %v", err)
	}
	userCoupon, err := env.marketing.ClaimCoupon(7, coupon.ID)
	if err != nil {
		t.Fatalf("claim coupon failed: %v", err)
	}
	order := env.placeOrder(t, 7, product.ID, 1, &userCoupon.ID)

	// 下单后券失效：应付回到全额，券不计入抵扣
	past := time.Now().Add(-time.Minute)
	if err := env.db.Model(&models.Coupon{}).Where("id = ?", coupon.ID).
		Update("end_time", past).Error; err != nil {
		t.Fatalf("expire coupon failed: %v", err)
	}

	gateway := newCreditCardGateway(t)
	env.enableCreditCardChannel(t, gateway.URL)
	result, err := env.payments.InitiatePay(context.Background(), InitiatePayInput{
		OrderID:    order.ID,
		UserID:     7,
		PayType:    constants.PayTypeCreditCard,
		CardNumber: "6222021234567890",
	})
	if err != nil {
		t.Fatalf("initiate pay failed: %v", err)
	}
	if got := result.Record.Amount.String(); got != "100.00" {
		t.Fatalf("amount want full 100.00, got %s", got)
	}
	if result.Record.UserCouponID != nil {
		t.Fatalf("unapplied coupon must not be bound to the record, got %d", *result.Record.UserCouponID)
	}

	err = env.payments.reconcile(constants.PayTypeCreditCard, &payment.CallbackData{
		TradeNo: "CC-FULL-1",
		OrderNo: order.OrderNo,
		Amount:  "100.00",
		Success: true,
	}, payment.CallbackRequest{})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	status, payStatus := env.orderStatus(t, order.ID)
	if status != constants.OrderStatusConfirmed || payStatus != constants.OrderPayStatusPaid {
		t.Fatalf("order want confirmed/paid, got %d/%d", status, payStatus)
	}
	// 未产生抵扣的券必须留在用户手里
	var stored models.UserCoupon
	if err := env.db.First(&stored, userCoupon.ID).Error; err != nil {
		t.Fatalf("load user coupon failed: %v", err)
	}
	if stored.Status != constants.UserCouponStatusUnused {
		t.Fatalf("user coupon want unused, got %d", stored.Status)
	}
	if stored.OrderID != nil {
		t.Fatalf("user coupon should not be bound to order, got %d", *stored.OrderID)
	}
}

func TestExpireOrderCancelsAndRestoresStock(t *testing.T) {
	env := setupServiceTest(t)
	product := env.createProduct(t, 1, "30.00", 10)
	order := env.placeOrder(t, 7, product.ID, 2, nil)
	record := env.createUnpaidRecord(t, order, "60.00")

	// 回拨下单时间使其超出支付窗口
	past := time.Now().Add(-2 * time.Hour)
	if err := env.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("created_at", past).Error; err != nil {
		t.Fatalf("backdate order failed: %v", err)
	}

	if err := env.payments.ExpireOrder(order.ID); err != nil {
		t.Fatalf("expire order failed: %v", err)
	}

	status, payStatus := env.orderStatus(t, order.ID)
	if status != constants.OrderStatusCancelled || payStatus != constants.OrderPayStatusTimeout {
		t.Fatalf("order want cancelled/timeout, got %d/%d", status, payStatus)
	}
	if got := env.stockOf(t, product.ID); got != 10 {
		t.Fatalf("stock want 10, got %d", got)
	}
	stored, err := env.recordRepo.GetByID(record.ID)
	if err != nil || stored == nil {
		t.Fatalf("load record failed: %v", err)
	}
	if stored.Status != constants.PayStatusTimeout {
		t.Fatalf("record status want timeout, got %d", stored.Status)
	}

	// 迟到的成功回调只会以重放结束，不能复活订单
	if err := env.payments.reconcile(constants.PayTypeCreditCard, &payment.CallbackData{
		TradeNo: "CC-LATE-1",
		OrderNo: order.OrderNo,
		Amount:  "60.00",
		Success: true,
	}, payment.CallbackRequest{}); err != nil {
		t.Fatalf("late callback failed: %v", err)
	}
	status, _ = env.orderStatus(t, order.ID)
	if status != constants.OrderStatusCancelled {
		t.Fatalf("late callback revived order: %d", status)
	}
}

func TestExpireOrderSkipsFreshOrder(t *testing.T) {
	env := setupServiceTest(t)
	product := env.createProduct(t, 1, "30.00", 10)
	order := env.placeOrder(t, 7, product.ID, 1, nil)

	if err := env.payments.ExpireOrder(order.ID); err != nil {
		t.Fatalf("expire order failed: %v", err)
	}
	status, payStatus := env.orderStatus(t, order.ID)
	if status != constants.OrderStatusPlaced || payStatus != constants.OrderPayStatusUnpaid {
		t.Fatalf("fresh order should be untouched, got %d/%d", status, payStatus)
	}
}

func TestSweepTimeouts(t *testing.T) {
	env := setupServiceTest(t)
	product := env.createProduct(t, 1, "30.00", 10)
	expired := env.placeOrder(t, 7, product.ID, 1, nil)
	fresh := env.placeOrder(t, 8, product.ID, 1, nil)
	expiredRecord := env.createUnpaidRecord(t, expired, "30.00")
	freshRecord := env.createUnpaidRecord(t, fresh, "30.00")

	past := time.Now().Add(-2 * time.Hour)
	if err := env.db.Model(&models.PaymentRecord{}).Where("id = ?", expiredRecord.ID).
		Update("created_at", past).Error; err != nil {
		t.Fatalf("backdate record failed: %v", err)
	}
	if err := env.db.Model(&models.Order{}).Where("id = ?", expired.ID).
		Update("created_at", past).Error; err != nil {
		t.Fatalf("backdate order failed: %v", err)
	}

	swept, err := env.payments.SweepTimeouts()
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if swept != 1 {
		t.Fatalf("swept want 1, got %d", swept)
	}

	stored, _ := env.recordRepo.GetByID(expiredRecord.ID)
	if stored.Status != constants.PayStatusTimeout {
		t.Fatalf("expired record want timeout, got %d", stored.Status)
	}
	status, _ := env.orderStatus(t, expired.ID)
	if status != constants.OrderStatusCancelled {
		t.Fatalf("expired order want cancelled, got %d", status)
	}

	stored, _ = env.recordRepo.GetByID(freshRecord.ID)
	if stored.Status != constants.PayStatusUnpaid {
		t.Fatalf("fresh record should stay unpaid, got %d", stored.Status)
	}
	status, _ = env.orderStatus(t, fresh.ID)
	if status != constants.OrderStatusPlaced {
		t.Fatalf("fresh order should stay placed, got %d", status)
	}
}

func TestActualAmountAppliesDiscounts(t *testing.T) {
	env := setupServiceTest(t)
	product := env.createProduct(t, 1, "100.00", 10)

	now := time.Now()
	start, end := testCouponWindow(now)
	coupon, err := env.marketing.PublishCoupon(1, PublishCouponInput{
		Name:      "满150减30",
		Type:      constants.CouponTypeFixedAmount,
		Threshold: testMoney(t, "150.00"),
		Value:     testMoney(t, "30.00"),
		TotalNum:  10,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("publish coupon failed: %v", err)
	}
	userCoupon, err := env.marketing.ClaimCoupon(7, coupon.ID)
	if err != nil {
		t.Fatalf("claim coupon failed: %v", err)
	}
	if _, err := env.marketing.PublishActivity(1, PublishActivityInput{
		Name:         "九折活动",
		DiscountRate: testMoney(t, "0.90"),
		StartTime:    start,
		EndTime:      end,
		ProductIDs:   []uint{product.ID},
	}); err != nil {
		t.Fatalf("publish activity failed: %v", err)
	}

	order := env.placeOrder(t, 7, product.ID, 2, &userCoupon.ID)

	// 总额 200，满减 30，活动九折抵扣 200×0.1=20，应付 150
	amount, err := env.payments.ActualAmount(order)
	if err != nil {
		t.Fatalf("actual amount failed: %v", err)
	}
	if got := amount.String(); got != "150.00" {
		t.Fatalf("actual amount want 150.00, got %s", got)
	}
}

func TestGetRecordOwnership(t *testing.T) {
	env := setupServiceTest(t)
	product := env.createProduct(t, 1, "30.00", 10)
	order := env.placeOrder(t, 7, product.ID, 1, nil)
	record := env.createUnpaidRecord(t, order, "30.00")

	if _, err := env.payments.GetRecord(record.ID, 7); err != nil {
		t.Fatalf("owner get record failed: %v", err)
	}
	if _, err := env.payments.GetRecord(record.ID, 8); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("want ErrPermissionDenied, got %v", err)
	}
	if _, err := env.payments.GetRecord(9999, 7); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("want ErrPaymentNotFound, got %v", err)
	}
}
