package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券表（发布后业务条款不可变，仅 remain_num 通过条件扣减变化）
type Coupon struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                   // 主键
	ShopID      uint           `gorm:"index;not null" json:"shop_id"`                          // 发布商铺ID
	Name        string         `gorm:"size:100;not null" json:"name"`                          // 名称
	Type        int            `gorm:"not null" json:"type"`                                   // 类型（1满减/2折扣）
	Threshold   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"threshold"` // 使用门槛
	Value       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"value"`     // 面值或折扣率
	TotalNum    int            `gorm:"not null;default:0" json:"total_num"`                    // 发行总量
	RemainNum   int            `gorm:"not null;default:0" json:"remain_num"`                   // 剩余数量
	StartTime   time.Time      `gorm:"not null" json:"start_time"`                             // 生效时间
	EndTime     time.Time      `gorm:"not null" json:"end_time"`                               // 失效时间
	ScopeIDs    string         `gorm:"type:text" json:"scope_ids,omitempty"`                   // 适用商品ID（JSON数组，空为全店）
	Status      int            `gorm:"index;not null;default:1" json:"status"`                 // 状态
	CreatedAt   time.Time      `json:"created_at"`                                             // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                             // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                         // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}

// ScopeProductIDs 解析适用商品范围，空切片表示全店可用
func (c *Coupon) ScopeProductIDs() []uint {
	if c == nil || c.ScopeIDs == "" {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal([]byte(c.ScopeIDs), &ids); err != nil {
		return nil
	}
	return ids
}
