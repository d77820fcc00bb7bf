package queue

import (
	"encoding/json"

	"github.com/wuyi-mall/internal/constants"

	"github.com/hibiken/asynq"
)

// TaskOrderTimeoutCancel 订单支付超时取消任务
const TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderTimeoutCancelTask 创建超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}
