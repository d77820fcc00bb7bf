package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/logger"
	"github.com/wuyi-mall/internal/models"
	"github.com/wuyi-mall/internal/payment"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// errOrderNotPayable 回调金额正确但订单已不可支付（被取消等），
// 用于在事务内触发回滚后走失败落账路径
var errOrderNotPayable = errors.New("order not payable")

// HandleCallback 处理支付渠道异步回调。
// 验签失败直接拒绝且不落任何状态；已离开待支付态的记录原样返回（可安全重放）；
// 金额不一致将记录置为失败且不动订单；成功路径在同一事务内完成
// 记录置成功、订单流转、优惠券核销三件事
func (s *PayService) HandleCallback(ctx context.Context, payType string, req payment.CallbackRequest) error {
	channel, err := s.channelRepo.GetEnabledByPayType(payType)
	if err != nil {
		return err
	}
	if channel == nil {
		return ErrPaymentChannelClosed
	}
	channelConfig, err := channel.ConfigMap()
	if err != nil {
		return err
	}
	provider, err := payment.Resolve(payType)
	if err != nil {
		return ErrPaymentChannelClosed
	}

	data, err := provider.ParseCallback(ctx, channelConfig, req)
	if err != nil {
		if errors.Is(err, payment.ErrSignatureInvalid) {
			logger.Warnw("payment_callback_sign_invalid", "pay_type", payType)
			return ErrPaymentSignInvalid
		}
		return err
	}
	return s.reconcile(payType, data, req)
}

// reconcile 将一条已验签的回调对账到支付记录与订单上
func (s *PayService) reconcile(payType string, data *payment.CallbackData, req payment.CallbackRequest) error {
	record, err := s.recordRepo.GetByOrderNo(data.OrderNo)
	if err != nil {
		return err
	}
	if record == nil {
		logger.Warnw("payment_callback_record_missing", "pay_type", payType, "order_no", data.OrderNo)
		return ErrPaymentNotFound
	}
	// 幂等：记录已离开待支付态，重放不再推进任何状态
	if record.Status != constants.PayStatusUnpaid {
		logger.Infow("payment_callback_replayed",
			"payment_id", record.ID,
			"order_no", record.OrderNo,
			"status", record.Status,
		)
		return nil
	}

	if !data.Success {
		logger.Infow("payment_callback_not_success",
			"payment_id", record.ID,
			"order_no", record.OrderNo,
			"pay_type", payType,
		)
		return nil
	}

	now := time.Now()
	callbackJSON := marshalCallback(req, data)

	reported, err := decimal.NewFromString(data.Amount)
	if err != nil {
		return ErrPaymentAmountMismatch
	}
	if !reported.Round(2).Equal(record.Amount.Round(2)) {
		if err := s.markFailed(record, data.TradeNo, callbackJSON, now, "金额不一致"); err != nil {
			return err
		}
		return ErrPaymentAmountMismatch
	}

	order, err := s.orderRepo.GetByID(record.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.recordRepo.WithTx(tx).UpdateStatusFrom(record.ID, constants.PayStatusUnpaid, constants.PayStatusSuccess, map[string]interface{}{
			"trade_no":        data.TradeNo,
			"callback_params": callbackJSON,
			"callback_time":   now,
			"pay_time":        now,
		})
		if err != nil {
			return err
		}
		// 与超时回收竞争：对方已先出终态，本次不做任何副作用
		if affected == 0 {
			return nil
		}
		orderAffected, err := s.orderService.MarkPaySuccess(tx, order, now)
		if err != nil {
			return err
		}
		if orderAffected == 0 {
			return errOrderNotPayable
		}
		// 只核销发起支付时实际计入抵扣的券；未产生抵扣的券保留给用户
		if record.UserCouponID != nil {
			if err := s.marketing.MarkUserCouponUsed(tx, *record.UserCouponID, order.ID, now); err != nil {
				if errors.Is(err, ErrCouponNotUsable) {
					logger.Warnw("payment_coupon_already_settled",
						"order_id", order.ID,
						"user_coupon_id", *record.UserCouponID,
					)
					return nil
				}
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errOrderNotPayable) {
		return s.markFailed(record, data.TradeNo, callbackJSON, now, "订单已不可支付")
	}
	if err != nil {
		return err
	}

	logger.Infow("payment_callback_success",
		"payment_id", record.ID,
		"order_id", record.OrderID,
		"order_no", record.OrderNo,
		"trade_no", data.TradeNo,
		"amount", record.Amount.String(),
	)
	return nil
}

// markFailed 将待支付记录置为失败并留痕，订单不受影响
func (s *PayService) markFailed(record *models.PaymentRecord, tradeNo, callbackJSON string, now time.Time, reason string) error {
	affected, err := s.recordRepo.UpdateStatusFrom(record.ID, constants.PayStatusUnpaid, constants.PayStatusFailed, map[string]interface{}{
		"trade_no":        tradeNo,
		"callback_params": callbackJSON,
		"callback_time":   now,
		"remark":          reason,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		// 竞争方已先出终态，保持幂等
		return nil
	}
	logger.Warnw("payment_callback_failed",
		"payment_id", record.ID,
		"order_no", record.OrderNo,
		"reason", reason,
	)
	return nil
}

func marshalCallback(req payment.CallbackRequest, data *payment.CallbackData) string {
	payload := map[string]interface{}{
		"trade_no": data.TradeNo,
		"order_no": data.OrderNo,
		"amount":   data.Amount,
		"success":  data.Success,
	}
	if len(req.Form) > 0 {
		payload["form"] = req.Form
	}
	if len(req.Body) > 0 {
		payload["body"] = string(req.Body)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(raw)
}
