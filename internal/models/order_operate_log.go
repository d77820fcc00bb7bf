package models

import "time"

// OrderOperateLog 订单操作日志表（仅追加，状态流转审计）
type OrderOperateLog struct {
	ID            uint      `gorm:"primarykey" json:"id"`                     // 主键
	OrderID       uint      `gorm:"index;not null" json:"order_id"`           // 订单ID
	OperateUserID uint      `gorm:"not null" json:"operate_user_id"`          // 操作人ID
	OperateType   string    `gorm:"size:32;not null" json:"operate_type"`     // 操作类型
	BeforeStatus  int       `gorm:"not null" json:"before_status"`            // 操作前状态
	AfterStatus   int       `gorm:"not null" json:"after_status"`             // 操作后状态
	OperateTime   time.Time `gorm:"index;not null" json:"operate_time"`       // 操作时间
}

// TableName 指定表名
func (OrderOperateLog) TableName() string {
	return "order_operate_logs"
}
