package service

import "errors"

// 错误类别哨兵。业务错误通过 %w 包装到类别上，HTTP 层按类别映射状态码
var (
	ErrValidation           = errors.New("参数校验失败")
	ErrNotFound             = errors.New("资源不存在")
	ErrPermissionDenied     = errors.New("无权访问该资源")
	ErrStateConflict        = errors.New("状态冲突")
	ErrExternalVerification = errors.New("外部验证失败")
)

// 订单相关错误
var (
	ErrOrderNotFound        = wrap(ErrNotFound, "订单不存在")
	ErrOrderNotOwned        = wrap(ErrPermissionDenied, "订单不属于当前用户")
	ErrOrderStatusConflict  = wrap(ErrStateConflict, "订单状态不允许该操作")
	ErrOrderConcurrentWrite = wrap(ErrStateConflict, "订单已被其他操作更新")
	ErrInvalidOrderItem     = wrap(ErrValidation, "订单项不合法")
	ErrEmptyCart            = wrap(ErrValidation, "购物车为空")
)

// 商品与库存相关错误
var (
	ErrProductNotFound    = wrap(ErrNotFound, "商品不存在")
	ErrProductOffline     = wrap(ErrStateConflict, "商品已下架")
	ErrStockInsufficient  = wrap(ErrStateConflict, "库存不足")
	ErrStockWriteConflict = wrap(ErrStateConflict, "库存并发冲突，请重试")
)

// 优惠券与活动相关错误
var (
	ErrCouponNotFound       = wrap(ErrNotFound, "优惠券不存在")
	ErrCouponInvalid        = wrap(ErrValidation, "优惠券配置不合法")
	ErrCouponSoldOut        = wrap(ErrStateConflict, "优惠券已领完")
	ErrCouponAlreadyClaimed = wrap(ErrStateConflict, "该优惠券已领取过")
	ErrCouponNotUsable      = wrap(ErrStateConflict, "优惠券不可用")
	ErrActivityInvalid      = wrap(ErrValidation, "折扣活动配置不合法")
)

// 支付相关错误
var (
	ErrPaymentNotFound       = wrap(ErrNotFound, "支付记录不存在")
	ErrPaymentChannelClosed  = wrap(ErrStateConflict, "支付渠道未启用")
	ErrPaymentExpired        = wrap(ErrStateConflict, "订单已超出支付时限")
	ErrPaymentStateConflict  = wrap(ErrStateConflict, "支付记录状态不允许该操作")
	ErrPaymentSignInvalid    = wrap(ErrExternalVerification, "支付回调验签失败")
	ErrPaymentAmountMismatch = wrap(ErrExternalVerification, "支付回调金额不一致")
)

// 评价相关错误
var (
	ErrOrderItemNotFound = wrap(ErrNotFound, "订单详情不存在")
	ErrCommentInvalid    = wrap(ErrValidation, "评价内容不合法")
	ErrCommentNotAllowed = wrap(ErrStateConflict, "订单未完成，无法评价")
	ErrCommentDuplicated = wrap(ErrStateConflict, "该商品已评价")
)

// 用户相关错误
var (
	ErrUserNotFound       = wrap(ErrNotFound, "用户不存在")
	ErrUserDisabled       = wrap(ErrStateConflict, "用户已被禁用")
	ErrUsernameTaken      = wrap(ErrStateConflict, "用户名已存在")
	ErrInvalidCredentials = wrap(ErrValidation, "用户名或密码错误")
	ErrCaptchaInvalid     = wrap(ErrValidation, "验证码错误")
)

type wrappedError struct {
	kind error
	msg  string
}

func wrap(kind error, msg string) error {
	return &wrappedError{kind: kind, msg: msg}
}

func (e *wrappedError) Error() string {
	return e.msg
}

func (e *wrappedError) Unwrap() error {
	return e.kind
}
