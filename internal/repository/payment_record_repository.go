package repository

import (
	"errors"
	"time"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/models"

	"gorm.io/gorm"
)

// PaymentRecordRepository 支付记录数据访问接口
type PaymentRecordRepository interface {
	Create(record *models.PaymentRecord) error
	GetByID(id uint) (*models.PaymentRecord, error)
	GetByOrderID(orderID uint) (*models.PaymentRecord, error)
	GetByOrderNo(orderNo string) (*models.PaymentRecord, error)
	GetByTradeNo(tradeNo string) (*models.PaymentRecord, error)
	List(filter PaymentRecordListFilter) ([]models.PaymentRecord, int64, error)
	ListTimeoutUnpaid(before time.Time, limit int) ([]models.PaymentRecord, error)
	UpdateStatusFrom(id uint, fromStatus, toStatus int, updates map[string]interface{}) (int64, error)
	WithTx(tx *gorm.DB) *GormPaymentRecordRepository
}

// GormPaymentRecordRepository GORM 实现
type GormPaymentRecordRepository struct {
	db *gorm.DB
}

// NewPaymentRecordRepository 创建支付记录仓库
func NewPaymentRecordRepository(db *gorm.DB) *GormPaymentRecordRepository {
	return &GormPaymentRecordRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRecordRepository) WithTx(tx *gorm.DB) *GormPaymentRecordRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRecordRepository{db: tx}
}

// Create 创建支付记录
func (r *GormPaymentRecordRepository) Create(record *models.PaymentRecord) error {
	return r.db.Create(record).Error
}

// GetByID 根据 ID 获取支付记录
func (r *GormPaymentRecordRepository) GetByID(id uint) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByOrderID 获取订单最近一笔支付记录
func (r *GormPaymentRecordRepository) GetByOrderID(orderID uint) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.db.Where("order_id = ?", orderID).Order("id desc").First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByOrderNo 根据订单号获取最近一笔支付记录
func (r *GormPaymentRecordRepository) GetByOrderNo(orderNo string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.db.Where("order_no = ?", orderNo).Order("id desc").First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByTradeNo 根据渠道交易号获取支付记录
func (r *GormPaymentRecordRepository) GetByTradeNo(tradeNo string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.db.Where("trade_no = ?", tradeNo).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// List 获取支付记录列表
func (r *GormPaymentRecordRepository) List(filter PaymentRecordListFilter) ([]models.PaymentRecord, int64, error) {
	query := r.db.Model(&models.PaymentRecord{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}
	if filter.PayType != "" {
		query = query.Where("pay_type = ?", filter.PayType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.PaymentRecord
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListTimeoutUnpaid 获取超出支付窗口仍处于待支付状态的记录
func (r *GormPaymentRecordRepository) ListTimeoutUnpaid(before time.Time, limit int) ([]models.PaymentRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var records []models.PaymentRecord
	if err := r.db.Where("status = ? AND created_at < ?", constants.PayStatusUnpaid, before).
		Order("id asc").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateStatusFrom 按期望前置状态写入新状态；返回受影响行数，0 表示并发冲突
func (r *GormPaymentRecordRepository) UpdateStatusFrom(id uint, fromStatus, toStatus int, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = toStatus
	result := r.db.Model(&models.PaymentRecord{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	return result.RowsAffected, result.Error
}
