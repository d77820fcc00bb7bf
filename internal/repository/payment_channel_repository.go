package repository

import (
	"errors"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/models"

	"gorm.io/gorm"
)

// PaymentChannelRepository 支付渠道数据访问接口
type PaymentChannelRepository interface {
	GetByPayType(payType string) (*models.PaymentChannel, error)
	GetEnabledByPayType(payType string) (*models.PaymentChannel, error)
	ListEnabled() ([]models.PaymentChannel, error)
	Upsert(channel *models.PaymentChannel) error
	WithTx(tx *gorm.DB) *GormPaymentChannelRepository
}

// GormPaymentChannelRepository GORM 实现
type GormPaymentChannelRepository struct {
	db *gorm.DB
}

// NewPaymentChannelRepository 创建支付渠道仓库
func NewPaymentChannelRepository(db *gorm.DB) *GormPaymentChannelRepository {
	return &GormPaymentChannelRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentChannelRepository) WithTx(tx *gorm.DB) *GormPaymentChannelRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentChannelRepository{db: tx}
}

// GetByPayType 根据支付方式获取渠道配置
func (r *GormPaymentChannelRepository) GetByPayType(payType string) (*models.PaymentChannel, error) {
	var channel models.PaymentChannel
	if err := r.db.Where("pay_type = ?", payType).First(&channel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &channel, nil
}

// GetEnabledByPayType 根据支付方式获取已启用的渠道配置
func (r *GormPaymentChannelRepository) GetEnabledByPayType(payType string) (*models.PaymentChannel, error) {
	var channel models.PaymentChannel
	if err := r.db.Where("pay_type = ? AND status = ?", payType, constants.PaymentChannelEnabled).
		First(&channel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &channel, nil
}

// ListEnabled 获取全部已启用渠道
func (r *GormPaymentChannelRepository) ListEnabled() ([]models.PaymentChannel, error) {
	var channels []models.PaymentChannel
	if err := r.db.Where("status = ?", constants.PaymentChannelEnabled).
		Order("id asc").
		Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

// Upsert 按支付方式保存渠道配置
func (r *GormPaymentChannelRepository) Upsert(channel *models.PaymentChannel) error {
	existing, err := r.GetByPayType(channel.PayType)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(channel).Error
	}
	channel.ID = existing.ID
	return r.db.Save(channel).Error
}
