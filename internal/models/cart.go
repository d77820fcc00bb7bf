package models

import "time"

// Cart 购物车表（下单后删除对应条目）
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`                          // 主键
	UserID    uint      `gorm:"index:idx_cart_user_product;not null" json:"user_id"`    // 用户ID
	ProductID uint      `gorm:"index:idx_cart_user_product;not null" json:"product_id"` // 商品ID
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`            // 数量
	CreatedAt time.Time `json:"created_at"`                                    // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                    // 更新时间
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}
