package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo     string         `gorm:"uniqueIndex;size:32;not null" json:"order_no"`              // 订单编号
	UserID      uint           `gorm:"index;not null" json:"user_id"`                             // 用户ID
	TotalAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 订单总金额
	Status      int            `gorm:"index;not null;default:1" json:"status"`                    // 订单状态
	PayStatus   int            `gorm:"index;not null;default:0" json:"pay_status"`                // 支付状态
	UserCouponID *uint         `gorm:"index" json:"user_coupon_id,omitempty"`                     // 下单时选用的用户优惠券
	PayTime     *time.Time     `json:"pay_time,omitempty"`                                        // 支付时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
