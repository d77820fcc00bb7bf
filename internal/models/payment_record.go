package models

import "time"

// PaymentRecord 支付记录表。金额在创建时锁定；status 离开未支付态至多发生一次
type PaymentRecord struct {
	ID             uint       `gorm:"primarykey" json:"id"`                                // 主键
	OrderID        uint       `gorm:"index;not null" json:"order_id"`                      // 订单ID
	OrderNo        string     `gorm:"index;size:32;not null" json:"order_no"`              // 订单编号
	UserID         uint       `gorm:"index;not null" json:"user_id"`                       // 用户ID
	PayType        string     `gorm:"size:20;not null" json:"pay_type"`                    // 支付方式
	Amount         Money      `gorm:"type:decimal(20,2);not null;default:0" json:"amount"` // 应付金额
	UserCouponID   *uint      `gorm:"index" json:"user_coupon_id,omitempty"`               // 实际抵扣的持券ID，金额未包含券抵扣时为空
	Status         int        `gorm:"index;not null;default:0" json:"status"`              // 支付状态
	TradeNo        string     `gorm:"index;size:64" json:"trade_no,omitempty"`             // 第三方交易流水号
	ClientIP       string     `gorm:"size:64" json:"client_ip,omitempty"`                  // 客户端IP
	PayParams      string     `gorm:"type:text" json:"-"`                                  // 支付参数（JSON）
	CallbackParams string     `gorm:"type:text" json:"-"`                                  // 回调参数（JSON）
	CallbackTime   *time.Time `json:"callback_time,omitempty"`                             // 回调时间
	PayTime        *time.Time `json:"pay_time,omitempty"`                                  // 支付时间
	Remark         string     `gorm:"size:200" json:"remark,omitempty"`                    // 备注
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt      time.Time  `json:"updated_at"`                                          // 更新时间
}

// TableName 指定表名
func (PaymentRecord) TableName() string {
	return "payment_records"
}
