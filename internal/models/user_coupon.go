package models

import "time"

// UserCoupon 用户持券表，(user_id, coupon_id) 唯一约束保证同券只能领一张
type UserCoupon struct {
	ID          uint       `gorm:"primarykey" json:"id"`                                        // 主键
	UserID      uint       `gorm:"uniqueIndex:idx_user_coupon;not null" json:"user_id"`         // 用户ID
	CouponID    uint       `gorm:"uniqueIndex:idx_user_coupon;not null" json:"coupon_id"`       // 优惠券ID
	Status      int        `gorm:"index;not null;default:1" json:"status"`                      // 状态（1未用/2已用/3过期）
	OrderID     *uint      `gorm:"index" json:"order_id,omitempty"`                             // 使用订单ID
	ReceiveTime time.Time  `gorm:"not null" json:"receive_time"`                                // 领取时间
	UseTime     *time.Time `json:"use_time,omitempty"`                                          // 使用时间
}

// TableName 指定表名
func (UserCoupon) TableName() string {
	return "user_coupons"
}
