package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                   // 主键
	ShopID       uint           `gorm:"index;not null" json:"shop_id"`                          // 商铺ID
	Name         string         `gorm:"size:200;not null" json:"name"`                          // 商品名称
	Price        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`     // 单价
	StockNum     int            `gorm:"not null;default:0" json:"stock_num"`                    // 库存数量
	Version      int64          `gorm:"not null;default:0" json:"-"`                            // 乐观锁版本号
	AvgScore     float64        `gorm:"type:decimal(3,2);not null;default:0" json:"avg_score"`  // 评价均分
	CommentCount int            `gorm:"not null;default:0" json:"comment_count"`                // 评价数量
	Status       int            `gorm:"index;not null;default:1" json:"status"`                 // 状态（1上架/0下架）
	CreatedAt    time.Time      `json:"created_at"`                                             // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                             // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                         // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
