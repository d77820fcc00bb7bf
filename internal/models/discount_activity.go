package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscountActivity 折扣活动表
type DiscountActivity struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                        // 主键
	ShopID       uint           `gorm:"index;not null" json:"shop_id"`                               // 商铺ID
	Name         string         `gorm:"size:100;not null" json:"name"`                               // 活动名称
	DiscountRate Money          `gorm:"type:decimal(20,2);not null;default:1" json:"discount_rate"`  // 折扣率（0.1~0.99）
	StartTime    time.Time      `gorm:"not null" json:"start_time"`                                  // 开始时间
	EndTime      time.Time      `gorm:"not null" json:"end_time"`                                    // 结束时间
	Status       int            `gorm:"index;not null;default:1" json:"status"`                      // 状态
	CreatedAt    time.Time      `json:"created_at"`                                                  // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                                  // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间

	Products []DiscountActivityProduct `gorm:"foreignKey:ActivityID" json:"products,omitempty"` // 参与商品
}

// TableName 指定表名
func (DiscountActivity) TableName() string {
	return "discount_activities"
}

// DiscountActivityProduct 折扣活动商品关联表
type DiscountActivityProduct struct {
	ID         uint `gorm:"primarykey" json:"id"`                                              // 主键
	ActivityID uint `gorm:"uniqueIndex:idx_activity_product;not null" json:"activity_id"`      // 活动ID
	ProductID  uint `gorm:"uniqueIndex:idx_activity_product;index;not null" json:"product_id"` // 商品ID
}

// TableName 指定表名
func (DiscountActivityProduct) TableName() string {
	return "discount_activity_products"
}
