package service

import (
	"time"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/logger"
	"github.com/wuyi-mall/internal/models"

	"gorm.io/gorm"
)

// 单轮回收扫描处理的记录上限
const sweepBatchSize = 100

// SweepTimeouts 周期回收：将超出支付窗口仍待支付的记录置为超时并取消订单。
// 与迟到的成功回调竞争同一条 待支付 → 终态 流转，条件更新保证只有一方胜出
func (s *PayService) SweepTimeouts() (int, error) {
	deadline := time.Now().Add(-s.expireWindow())
	records, err := s.recordRepo.ListTimeoutUnpaid(deadline, sweepBatchSize)
	if err != nil {
		return 0, err
	}
	swept := 0
	for i := range records {
		record := records[i]
		if err := s.timeoutRecord(&record); err != nil {
			logger.Errorw("payment_sweep_failed",
				"payment_id", record.ID,
				"order_no", record.OrderNo,
				"error", err,
			)
			continue
		}
		swept++
	}
	if swept > 0 {
		logger.Infow("payment_sweep_done", "swept", swept, "scanned", len(records))
	}
	return swept, nil
}

// ExpireOrder 处理单个订单的支付超时（由下单时投递的延迟任务触发）。
// 未发起过支付的订单同样取消并回补库存
func (s *PayService) ExpireOrder(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}
	if order.Status != constants.OrderStatusPlaced || order.PayStatus != constants.OrderPayStatusUnpaid {
		return nil
	}
	if time.Since(order.CreatedAt) < s.expireWindow() {
		return nil
	}

	record, err := s.recordRepo.GetByOrderID(orderID)
	if err != nil {
		return err
	}
	now := time.Now()
	return models.DB.Transaction(func(tx *gorm.DB) error {
		if record != nil && record.Status == constants.PayStatusUnpaid {
			affected, err := s.recordRepo.WithTx(tx).UpdateStatusFrom(record.ID, constants.PayStatusUnpaid, constants.PayStatusTimeout, map[string]interface{}{
				"remark": "支付超时",
			})
			if err != nil {
				return err
			}
			// 成功回调先行胜出，放弃本次超时处理
			if affected == 0 {
				return nil
			}
		}
		affected, err := s.orderService.MarkPayTimeout(tx, order, now)
		if err != nil {
			return err
		}
		if affected > 0 {
			logger.Infow("order_expired",
				"order_id", order.ID,
				"order_no", order.OrderNo,
			)
		}
		return nil
	})
}

// timeoutRecord 对单条待支付记录执行 待支付 → 超时 流转并取消订单
func (s *PayService) timeoutRecord(record *models.PaymentRecord) error {
	order, err := s.orderRepo.GetByID(record.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	now := time.Now()
	return models.DB.Transaction(func(tx *gorm.DB) error {
		affected, err := s.recordRepo.WithTx(tx).UpdateStatusFrom(record.ID, constants.PayStatusUnpaid, constants.PayStatusTimeout, map[string]interface{}{
			"remark": "支付超时",
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		// 订单可能已被人工取消，此时记录独立出超时终态即可
		if _, err := s.orderService.MarkPayTimeout(tx, order, now); err != nil {
			return err
		}
		return nil
	})
}
