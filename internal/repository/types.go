package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	ShopID      uint
	Status      *int
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PaymentRecordListFilter 查询支付记录列表的过滤条件
type PaymentRecordListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	ShopID      uint
	OrderID     uint
	OrderNo     string
	PayType     string
	Status      *int
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CouponListFilter 查询优惠券列表的过滤条件
type CouponListFilter struct {
	Page       int
	PageSize   int
	ShopID     uint
	Status     *int
	OnlyActive bool
}
