package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（customer/merchant/admin 三种角色）
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`                      // 主键
	Username  string         `gorm:"uniqueIndex;size:64;not null" json:"username"` // 用户名
	Password  string         `gorm:"size:200;not null" json:"-"`                // 密码哈希
	Role      string         `gorm:"index;size:20;not null" json:"role"`        // 角色
	ShopID    uint           `gorm:"index" json:"shop_id,omitempty"`            // 商铺ID（商家）
	Status    int            `gorm:"not null;default:1" json:"status"`          // 状态
	CreatedAt time.Time      `json:"created_at"`                                // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
