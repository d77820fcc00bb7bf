package constants

// 订单状态常量（状态机只允许前进或跳转到取消）
const (
	OrderStatusCancelled = 0 // 已取消
	OrderStatusPlaced    = 1 // 客户下单
	OrderStatusConfirmed = 2 // 商家确认
	OrderStatusPrepared  = 3 // 备货完成
	OrderStatusDelivered = 4 // 已发货
	OrderStatusCompleted = 5 // 已完成
)

// 订单支付状态常量
const (
	OrderPayStatusUnpaid  = 0
	OrderPayStatusPaid    = 1
	OrderPayStatusTimeout = 2
)

// 订单操作类型常量
const (
	OrderOperateConfirm          = "CONFIRM"
	OrderOperatePrepare          = "PREPARE"
	OrderOperateDeliver          = "DELIVER"
	OrderOperateConfirmReceipt   = "CONFIRM_RECEIPT"
	OrderOperateCancelByCustomer = "CANCEL_BY_CUSTOMER"
	OrderOperateCancelByMerchant = "CANCEL_BY_MERCHANT"
	OrderOperatePaySuccess       = "PAY_SUCCESS"
	OrderOperatePayTimeout       = "PAY_TIMEOUT"
)

// 支付记录状态常量
const (
	PayStatusUnpaid  = 0
	PayStatusSuccess = 1
	PayStatusFailed  = 2
	PayStatusTimeout = 3
)

// 支付方式常量
const (
	PayTypeAlipay     = "ALIPAY"
	PayTypeWechat     = "WECHAT"
	PayTypeCreditCard = "CREDIT_CARD"
)

// 支付渠道状态常量
const (
	PaymentChannelDisabled = 0
	PaymentChannelEnabled  = 1
)

// 支付交互方式常量
const (
	PaymentInteractionQR       = "qr"
	PaymentInteractionRedirect = "redirect"
)

// 商品状态常量
const (
	ProductStatusInactive = 0
	ProductStatusActive   = 1
)

// 优惠券类型常量
const (
	CouponTypeFixedAmount = 1 // 满减券
	CouponTypeDiscount    = 2 // 折扣券
)

// 优惠券状态常量
const (
	CouponStatusOffline = 0
	CouponStatusOnline  = 1
)

// 用户优惠券状态常量
const (
	UserCouponStatusUnused  = 1
	UserCouponStatusUsed    = 2
	UserCouponStatusExpired = 3
)

// 折扣活动状态常量
const (
	ActivityStatusOffline = 0
	ActivityStatusOnline  = 1
)

// 用户角色常量
const (
	RoleCustomer = "customer"
	RoleMerchant = "merchant"
	RoleAdmin    = "admin"
)

// 用户状态常量
const (
	UserStatusDisabled = 0
	UserStatusActive   = 1
)

// 异步任务类型常量
const (
	TaskOrderTimeoutCancel = "order:timeout_cancel"
)

// 异步队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)
