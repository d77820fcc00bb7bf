package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// PaymentChannel 支付渠道配置表（按支付方式存放适配器配置）
type PaymentChannel struct {
	ID        uint           `gorm:"primarykey" json:"id"`                        // 主键
	PayType   string         `gorm:"uniqueIndex;size:20;not null" json:"pay_type"` // 支付方式编码
	Name      string         `gorm:"size:100;not null" json:"name"`               // 渠道名称
	Config    string         `gorm:"type:text" json:"-"`                          // 渠道配置（JSON）
	Status    int            `gorm:"index;not null;default:1" json:"status"`      // 状态
	CreatedAt time.Time      `json:"created_at"`                                  // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                  // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (PaymentChannel) TableName() string {
	return "payment_channels"
}

// ConfigMap 解析渠道配置
func (c *PaymentChannel) ConfigMap() (map[string]interface{}, error) {
	if c == nil || c.Config == "" {
		return map[string]interface{}{}, nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(c.Config), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
