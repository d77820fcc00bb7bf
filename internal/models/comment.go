package models

import (
	"strings"
	"time"
)

// Comment 商品评价表。按订单项评价，唯一约束保证一项只能评一次
type Comment struct {
	ID          uint      `gorm:"primarykey" json:"id"`                    // 主键
	OrderItemID uint      `gorm:"uniqueIndex;not null" json:"order_item_id"` // 订单项ID
	OrderID     uint      `gorm:"index;not null" json:"order_id"`          // 订单ID
	ProductID   uint      `gorm:"index;not null" json:"product_id"`        // 商品ID
	ShopID      uint      `gorm:"index;not null" json:"shop_id"`           // 商铺ID
	UserID      uint      `gorm:"index;not null" json:"user_id"`           // 评价用户ID
	Score       int       `gorm:"not null" json:"score"`                   // 评分（1-5）
	Content     string    `gorm:"size:500" json:"content"`                 // 评价内容
	Images      string    `gorm:"type:text" json:"-"`                      // 评价图片URL（逗号分隔）
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                 // 创建时间
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comments"
}

// ImageList 解析评价图片列表
func (c *Comment) ImageList() []string {
	if c == nil || c.Images == "" {
		return nil
	}
	return strings.Split(c.Images, ",")
}

// JoinImages 将图片列表拼为存储格式
func JoinImages(images []string) string {
	cleaned := make([]string, 0, len(images))
	for _, image := range images {
		image = strings.TrimSpace(image)
		if image != "" {
			cleaned = append(cleaned, image)
		}
	}
	return strings.Join(cleaned, ",")
}
