package creditcard

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// StatusSuccess 回调中表示支付成功的状态值
const StatusSuccess = "SUCCESS"

var (
	ErrConfigInvalid    = errors.New("creditcard config invalid")
	ErrCardInvalid      = errors.New("creditcard card number invalid")
	ErrRequestFailed    = errors.New("creditcard request failed")
	ErrResponseInvalid  = errors.New("creditcard response invalid")
	ErrSignatureInvalid = errors.New("creditcard signature invalid")
	ErrCallbackInvalid  = errors.New("creditcard callback invalid")
)

// Config 信用卡渠道配置
type Config struct {
	GatewayURL string `json:"gateway_url"` // 网关地址
	MerchantID string `json:"merchant_id"` // 商户号
	SecretKey  string `json:"secret_key"`  // 签名密钥
	NotifyURL  string `json:"notify_url"`  // 异步通知地址
}

// CreateInput 下单输入
type CreateInput struct {
	OrderNo    string
	Amount     string
	CardNumber string
	ClientIP   string
}

// CreateResult 下单结果
type CreateResult struct {
	PayURL  string
	TradeNo string
	Raw     map[string]interface{}
}

// CallbackData 回调解析结果（验签通过后才会产生）
type CallbackData struct {
	TradeNo string
	OrderNo string
	Amount  string
	Success bool
	Raw     map[string]string
}

// ParseConfig 解析渠道配置
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty config", ErrConfigInvalid)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal config failed", ErrConfigInvalid)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config failed", ErrConfigInvalid)
	}
	cfg.GatewayURL = strings.TrimRight(strings.TrimSpace(cfg.GatewayURL), "/")
	return &cfg, nil
}

// ValidateConfig 校验配置完整性
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.GatewayURL) == "" {
		return fmt.Errorf("%w: gateway_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.MerchantID) == "" {
		return fmt.Errorf("%w: merchant_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.NotifyURL) == "" {
		return fmt.Errorf("%w: notify_url is required", ErrConfigInvalid)
	}
	return nil
}

// MaskCardNumber 卡号脱敏，保留前 6 后 4
func MaskCardNumber(cardNumber string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, strings.TrimSpace(cardNumber))
	if len(digits) < 13 || len(digits) > 19 {
		return "", ErrCardInvalid
	}
	return digits[:6] + "****" + digits[len(digits)-4:], nil
}

// CreatePayment 发起信用卡支付，卡号只以脱敏形式出现在请求与记录中
func CreatePayment(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if input.OrderNo == "" || input.Amount == "" {
		return nil, fmt.Errorf("%w: order input is invalid", ErrConfigInvalid)
	}
	maskedCard, err := MaskCardNumber(input.CardNumber)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"merchant_id": cfg.MerchantID,
		"order_no":    input.OrderNo,
		"amount":      input.Amount,
		"card_no":     maskedCard,
		"client_ip":   input.ClientIP,
		"notify_url":  cfg.NotifyURL,
	}
	params["sign"] = Sign(cfg.SecretKey, params)

	respBytes, err := postForm(ctx, cfg.GatewayURL, params)
	if err != nil {
		return nil, ErrRequestFailed
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)
	var resp struct {
		Code    int    `json:"code"`
		Msg     string `json:"msg"`
		TradeNo string `json:"transaction_id"`
		PayURL  string `json:"pay_url"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, ErrResponseInvalid
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Msg)
	}
	return &CreateResult{
		PayURL:  strings.TrimSpace(resp.PayURL),
		TradeNo: strings.TrimSpace(resp.TradeNo),
		Raw:     raw,
	}, nil
}

// Sign 对参数做 HMAC-SHA256 签名
func Sign(secretKey string, params map[string]string) string {
	content := buildSignContent(params)
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(content))
	return strings.ToLower(hex.EncodeToString(mac.Sum(nil)))
}

// VerifyCallback 验证异步通知签名
func VerifyCallback(cfg *Config, form url.Values) error {
	if cfg == nil {
		return ErrConfigInvalid
	}
	sign := strings.TrimSpace(form.Get("sign"))
	if sign == "" {
		return ErrSignatureInvalid
	}
	params := make(map[string]string, len(form))
	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		params[key] = values[0]
	}
	expected := Sign(cfg.SecretKey, params)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(sign))) {
		return ErrSignatureInvalid
	}
	return nil
}

// ParseCallback 从已验签的通知表单中提取业务字段
func ParseCallback(form url.Values) (*CallbackData, error) {
	tradeNo := strings.TrimSpace(form.Get("transaction_id"))
	orderNo := strings.TrimSpace(form.Get("order_no"))
	amount := strings.TrimSpace(form.Get("amount"))
	status := strings.TrimSpace(form.Get("status"))
	if orderNo == "" || amount == "" {
		return nil, ErrCallbackInvalid
	}
	raw := make(map[string]string, len(form))
	for key, values := range form {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}
	return &CallbackData{
		TradeNo: tradeNo,
		OrderNo: orderNo,
		Amount:  amount,
		Success: strings.EqualFold(status, StatusSuccess),
		Raw:     raw,
	}, nil
}

func postForm(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	values := url.Values{}
	for k, v := range params {
		if v == "" {
			continue
		}
		values.Set(k, v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ErrRequestFailed
	}
	return io.ReadAll(resp.Body)
}

// buildSignContent 升序拼接非空参数，跳过 sign
func buildSignContent(params map[string]string) string {
	var keys []string
	for k, v := range params {
		if v == "" || k == "sign" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, params[k]))
	}
	return strings.Join(pairs, "&")
}
