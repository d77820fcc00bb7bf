package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/logger"
	"github.com/wuyi-mall/internal/models"
	"github.com/wuyi-mall/internal/payment"
	"github.com/wuyi-mall/internal/repository"

	"github.com/shopspring/decimal"
)

// PayService 支付编排服务。
// 应付金额始终由订单派生，绝不接受调用方传入的金额
type PayService struct {
	orderRepo    repository.OrderRepository
	recordRepo   repository.PaymentRecordRepository
	channelRepo  repository.PaymentChannelRepository
	orderService *OrderService
	marketing    *MarketingService
	// 支付窗口时长（分钟）
	expireMinutes int
}

// NewPayService 创建支付服务
func NewPayService(orderRepo repository.OrderRepository, recordRepo repository.PaymentRecordRepository, channelRepo repository.PaymentChannelRepository, orderService *OrderService, marketing *MarketingService, expireMinutes int) *PayService {
	if expireMinutes <= 0 {
		expireMinutes = 15
	}
	return &PayService{
		orderRepo:     orderRepo,
		recordRepo:    recordRepo,
		channelRepo:   channelRepo,
		orderService:  orderService,
		marketing:     marketing,
		expireMinutes: expireMinutes,
	}
}

// InitiatePayInput 发起支付输入
type InitiatePayInput struct {
	OrderID    uint
	UserID     uint
	PayType    string
	ClientIP   string
	CardNumber string // 仅信用卡渠道
}

// InitiatePayResult 发起支付结果
type InitiatePayResult struct {
	Record    *models.PaymentRecord `json:"record"`
	PayParams *payment.PayParams    `json:"pay_params"`
}

// InitiatePay 发起支付。校验归属、状态与支付窗口，按订单派生应付金额，
// 生成渠道支付参数并落一条待支付记录；重复发起返回已存在的待支付记录
func (s *PayService) InitiatePay(ctx context.Context, input InitiatePayInput) (*InitiatePayResult, error) {
	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != input.UserID {
		return nil, ErrOrderNotOwned
	}
	if order.Status != constants.OrderStatusPlaced || order.PayStatus != constants.OrderPayStatusUnpaid {
		return nil, ErrOrderStatusConflict
	}
	now := time.Now()
	if now.Sub(order.CreatedAt) > s.expireWindow() {
		return nil, ErrPaymentExpired
	}

	existing, err := s.recordRepo.GetByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == constants.PayStatusUnpaid {
		if existing.PayType != input.PayType {
			return nil, ErrPaymentStateConflict
		}
		var params payment.PayParams
		if existing.PayParams != "" {
			_ = json.Unmarshal([]byte(existing.PayParams), &params)
		}
		return &InitiatePayResult{Record: existing, PayParams: &params}, nil
	}

	channel, err := s.channelRepo.GetEnabledByPayType(input.PayType)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrPaymentChannelClosed
	}
	channelConfig, err := channel.ConfigMap()
	if err != nil {
		return nil, err
	}
	provider, err := payment.Resolve(input.PayType)
	if err != nil {
		return nil, ErrPaymentChannelClosed
	}

	amount, appliedUserCouponID, err := s.payable(order)
	if err != nil {
		return nil, err
	}

	payParams, err := provider.BuildPayParams(ctx, channelConfig, payment.CreateInput{
		OrderNo:    order.OrderNo,
		Amount:     amount.String(),
		Subject:    "订单 " + order.OrderNo,
		ClientIP:   input.ClientIP,
		CardNumber: input.CardNumber,
	})
	if err != nil {
		return nil, err
	}
	paramsJSON, err := json.Marshal(payParams)
	if err != nil {
		return nil, err
	}

	record := &models.PaymentRecord{
		OrderID:      order.ID,
		OrderNo:      order.OrderNo,
		UserID:       order.UserID,
		PayType:      input.PayType,
		Amount:       amount,
		UserCouponID: appliedUserCouponID,
		Status:       constants.PayStatusUnpaid,
		TradeNo:      payParams.TradeNo,
		ClientIP:     input.ClientIP,
		PayParams:    string(paramsJSON),
	}
	if err := s.recordRepo.Create(record); err != nil {
		return nil, err
	}

	logger.Infow("payment_initiated",
		"payment_id", record.ID,
		"order_no", order.OrderNo,
		"pay_type", input.PayType,
		"amount", amount.String(),
	)
	return &InitiatePayResult{Record: record, PayParams: payParams}, nil
}

// ActualAmount 派生订单应付金额：总额 − 优惠券抵扣 − 活动抵扣，下限 0。
// 仅依赖订单自身（订单项、选用的优惠券、命中的活动）
func (s *PayService) ActualAmount(order *models.Order) (models.Money, error) {
	amount, _, err := s.payable(order)
	return amount, err
}

// payable 派生应付金额，并返回实际计入抵扣的持券 ID。
// 下单后失效或未达门槛的券不计抵扣，也不参与支付成功后的核销
func (s *PayService) payable(order *models.Order) (models.Money, *uint, error) {
	items := order.Items
	if len(items) == 0 {
		loaded, err := s.orderRepo.ListItems(order.ID)
		if err != nil {
			return models.ZeroMoney(), nil, err
		}
		items = loaded
	}

	couponDiscount := models.ZeroMoney()
	var appliedUserCouponID *uint
	if order.UserCouponID != nil {
		_, coupon, err := s.marketing.UsableUserCoupon(order.UserID, *order.UserCouponID, time.Now())
		if err == nil {
			couponDiscount = s.marketing.CouponDiscount(coupon, items)
			if couponDiscount.GreaterThan(decimal.Zero) {
				appliedUserCouponID = order.UserCouponID
			}
		} else {
			logger.Warnw("order_coupon_unusable",
				"order_id", order.ID,
				"user_coupon_id", *order.UserCouponID,
				"error", err,
			)
		}
	}

	activityDiscount, err := s.marketing.ActivityDiscount(items, time.Now())
	if err != nil {
		return models.ZeroMoney(), nil, err
	}

	actual := order.TotalAmount.Sub(couponDiscount.Decimal).Sub(activityDiscount.Decimal)
	if actual.LessThan(decimal.Zero) {
		actual = decimal.Zero
	}
	return models.NewMoneyFromDecimal(actual), appliedUserCouponID, nil
}

// GetRecord 获取支付记录并校验归属
func (s *PayService) GetRecord(recordID, userID uint) (*models.PaymentRecord, error) {
	record, err := s.recordRepo.GetByID(recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrPaymentNotFound
	}
	if record.UserID != userID {
		return nil, ErrPermissionDenied
	}
	return record, nil
}

// ListRecords 支付记录列表
func (s *PayService) ListRecords(filter repository.PaymentRecordListFilter) ([]models.PaymentRecord, int64, error) {
	return s.recordRepo.List(filter)
}

func (s *PayService) expireWindow() time.Duration {
	return time.Duration(s.expireMinutes) * time.Minute
}
