package payment

import (
	"context"
	"errors"
	"net/url"

	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/payment/alipay"
	"github.com/wuyi-mall/internal/payment/creditcard"
	"github.com/wuyi-mall/internal/payment/wechat"
)

var (
	ErrProviderUnknown  = errors.New("payment provider unknown")
	ErrSignatureInvalid = errors.New("payment callback signature invalid")
)

// CreateInput 渠道无关的下单输入
type CreateInput struct {
	OrderNo    string
	Amount     string
	Subject    string
	ClientIP   string
	CardNumber string // 仅信用卡渠道使用，落库前已脱敏
}

// PayParams 渠道无关的支付参数
type PayParams struct {
	Interaction string                 `json:"interaction"` // qr / redirect
	PayURL      string                 `json:"pay_url,omitempty"`
	QRCode      string                 `json:"qr_code,omitempty"`
	TradeNo     string                 `json:"trade_no,omitempty"`
	Raw         map[string]interface{} `json:"raw,omitempty"`
}

// CallbackRequest 回调原始请求。表单类渠道用 Form，报文类渠道用 Headers+Body
type CallbackRequest struct {
	Form    url.Values
	Headers map[string]string
	Body    []byte
}

// CallbackData 验签通过后解析出的回调业务字段
type CallbackData struct {
	TradeNo string
	OrderNo string
	Amount  string
	Success bool
}

// Provider 支付渠道能力接口。ParseCallback 先验签，
// 验签失败返回 ErrSignatureInvalid 且不产出任何业务字段
type Provider interface {
	Code() string
	BuildPayParams(ctx context.Context, channelConfig map[string]interface{}, input CreateInput) (*PayParams, error)
	ParseCallback(ctx context.Context, channelConfig map[string]interface{}, req CallbackRequest) (*CallbackData, error)
}

var registry = map[string]Provider{
	constants.PayTypeAlipay:     &alipayProvider{},
	constants.PayTypeWechat:     &wechatProvider{},
	constants.PayTypeCreditCard: &creditCardProvider{},
}

// Resolve 按渠道编码获取 Provider
func Resolve(code string) (Provider, error) {
	provider, ok := registry[code]
	if !ok {
		return nil, ErrProviderUnknown
	}
	return provider, nil
}

type alipayProvider struct{}

func (p *alipayProvider) Code() string {
	return constants.PayTypeAlipay
}

func (p *alipayProvider) BuildPayParams(ctx context.Context, channelConfig map[string]interface{}, input CreateInput) (*PayParams, error) {
	cfg, err := alipay.ParseConfig(channelConfig)
	if err != nil {
		return nil, err
	}
	result, err := alipay.CreatePayment(ctx, cfg, alipay.CreateInput{
		OrderNo:  input.OrderNo,
		Amount:   input.Amount,
		Subject:  input.Subject,
		ClientIP: input.ClientIP,
	})
	if err != nil {
		return nil, err
	}
	params := &PayParams{
		Interaction: constants.PaymentInteractionRedirect,
		PayURL:      result.PayURL,
		QRCode:      result.QRCode,
		TradeNo:     result.TradeNo,
		Raw:         result.Raw,
	}
	if params.PayURL == "" && params.QRCode != "" {
		params.Interaction = constants.PaymentInteractionQR
	}
	return params, nil
}

func (p *alipayProvider) ParseCallback(ctx context.Context, channelConfig map[string]interface{}, req CallbackRequest) (*CallbackData, error) {
	cfg, err := alipay.ParseConfig(channelConfig)
	if err != nil {
		return nil, err
	}
	if err := alipay.VerifyCallback(cfg, req.Form); err != nil {
		return nil, ErrSignatureInvalid
	}
	data, err := alipay.ParseCallback(req.Form)
	if err != nil {
		return nil, err
	}
	return &CallbackData{
		TradeNo: data.TradeNo,
		OrderNo: data.OrderNo,
		Amount:  data.Amount,
		Success: data.Success,
	}, nil
}

type wechatProvider struct{}

func (p *wechatProvider) Code() string {
	return constants.PayTypeWechat
}

func (p *wechatProvider) BuildPayParams(ctx context.Context, channelConfig map[string]interface{}, input CreateInput) (*PayParams, error) {
	cfg, err := wechat.ParseConfig(channelConfig)
	if err != nil {
		return nil, err
	}
	result, err := wechat.CreatePayment(ctx, cfg, wechat.CreateInput{
		OrderNo:     input.OrderNo,
		Amount:      input.Amount,
		Description: input.Subject,
		ClientIP:    input.ClientIP,
	})
	if err != nil {
		return nil, err
	}
	return &PayParams{
		Interaction: constants.PaymentInteractionQR,
		QRCode:      result.QRCode,
		TradeNo:     result.PrepayID,
		Raw:         result.Raw,
	}, nil
}

func (p *wechatProvider) ParseCallback(ctx context.Context, channelConfig map[string]interface{}, req CallbackRequest) (*CallbackData, error) {
	cfg, err := wechat.ParseConfig(channelConfig)
	if err != nil {
		return nil, err
	}
	data, err := wechat.VerifyAndParseCallback(ctx, cfg, req.Headers, req.Body)
	if err != nil {
		if errors.Is(err, wechat.ErrSignatureInvalid) {
			return nil, ErrSignatureInvalid
		}
		return nil, err
	}
	return &CallbackData{
		TradeNo: data.TradeNo,
		OrderNo: data.OrderNo,
		Amount:  data.Amount,
		Success: data.Success,
	}, nil
}

type creditCardProvider struct{}

func (p *creditCardProvider) Code() string {
	return constants.PayTypeCreditCard
}

func (p *creditCardProvider) BuildPayParams(ctx context.Context, channelConfig map[string]interface{}, input CreateInput) (*PayParams, error) {
	cfg, err := creditcard.ParseConfig(channelConfig)
	if err != nil {
		return nil, err
	}
	result, err := creditcard.CreatePayment(ctx, cfg, creditcard.CreateInput{
		OrderNo:    input.OrderNo,
		Amount:     input.Amount,
		CardNumber: input.CardNumber,
		ClientIP:   input.ClientIP,
	})
	if err != nil {
		return nil, err
	}
	return &PayParams{
		Interaction: constants.PaymentInteractionRedirect,
		PayURL:      result.PayURL,
		TradeNo:     result.TradeNo,
		Raw:         result.Raw,
	}, nil
}

func (p *creditCardProvider) ParseCallback(ctx context.Context, channelConfig map[string]interface{}, req CallbackRequest) (*CallbackData, error) {
	cfg, err := creditcard.ParseConfig(channelConfig)
	if err != nil {
		return nil, err
	}
	if err := creditcard.VerifyCallback(cfg, req.Form); err != nil {
		return nil, ErrSignatureInvalid
	}
	data, err := creditcard.ParseCallback(req.Form)
	if err != nil {
		return nil, err
	}
	return &CallbackData{
		TradeNo: data.TradeNo,
		OrderNo: data.OrderNo,
		Amount:  data.Amount,
		Success: data.Success,
	}, nil
}
