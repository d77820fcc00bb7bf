package alipay

import (
	"context"
	"crypto"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	SignTypeMD5 = "MD5"
	SignTypeRSA = "RSA2"

	// TradeStatusSuccess 支付宝回调中表示支付成功的交易状态
	TradeStatusSuccess = "TRADE_SUCCESS"
)

var (
	ErrConfigInvalid    = errors.New("alipay config invalid")
	ErrRequestFailed    = errors.New("alipay request failed")
	ErrResponseInvalid  = errors.New("alipay response invalid")
	ErrSignatureInvalid = errors.New("alipay signature invalid")
	ErrCallbackInvalid  = errors.New("alipay callback invalid")
)

// Config 支付宝渠道配置
type Config struct {
	GatewayURL string `json:"gateway_url"` // 网关地址
	AppID      string `json:"app_id"`      // 应用ID
	SignType   string `json:"sign_type"`   // 签名类型（MD5/RSA2）
	SignKey    string `json:"sign_key"`    // 签名密钥（MD5）
	PrivateKey string `json:"private_key"` // 商户私钥（RSA2）
	PublicKey  string `json:"public_key"`  // 平台公钥（RSA2 验签）
	NotifyURL  string `json:"notify_url"`  // 异步通知地址
	ReturnURL  string `json:"return_url"`  // 同步跳转地址
}

// CreateInput 下单输入
type CreateInput struct {
	OrderNo  string
	Amount   string
	Subject  string
	ClientIP string
}

// CreateResult 下单结果
type CreateResult struct {
	PayURL  string
	QRCode  string
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
	cfg.normalize()
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
	if strings.TrimSpace(cfg.AppID) == "" {
		return fmt.Errorf("%w: app_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.NotifyURL) == "" {
		return fmt.Errorf("%w: notify_url is required", ErrConfigInvalid)
	}
	switch cfg.SignType {
	case SignTypeRSA:
		if strings.TrimSpace(cfg.PrivateKey) == "" {
			return fmt.Errorf("%w: private_key is required for RSA2", ErrConfigInvalid)
		}
		if strings.TrimSpace(cfg.PublicKey) == "" {
			return fmt.Errorf("%w: public_key is required for RSA2", ErrConfigInvalid)
		}
	default:
		if strings.TrimSpace(cfg.SignKey) == "" {
			return fmt.Errorf("%w: sign_key is required for MD5", ErrConfigInvalid)
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.SignType = strings.ToUpper(strings.TrimSpace(c.SignType))
	if c.SignType == "" {
		c.SignType = SignTypeMD5
	}
	c.GatewayURL = strings.TrimRight(strings.TrimSpace(c.GatewayURL), "/")
}

// CreatePayment 发起支付宝下单，返回跳转链接或二维码内容
func CreatePayment(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if input.OrderNo == "" || input.Amount == "" {
		return nil, fmt.Errorf("%w: order input is invalid", ErrConfigInvalid)
	}
	if input.Subject == "" {
		input.Subject = input.OrderNo
	}

	params := map[string]string{
		"app_id":       cfg.AppID,
		"out_trade_no": input.OrderNo,
		"total_amount": input.Amount,
		"subject":      input.Subject,
		"notify_url":   cfg.NotifyURL,
		"return_url":   cfg.ReturnURL,
		"client_ip":    input.ClientIP,
	}
	sign, err := Sign(cfg, params)
	if err != nil {
		return nil, err
	}
	params["sign"] = sign
	params["sign_type"] = cfg.SignType

	respBytes, err := postForm(ctx, cfg.GatewayURL, params)
	if err != nil {
		return nil, ErrRequestFailed
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)
	var resp struct {
		Code    int    `json:"code"`
		Msg     string `json:"msg"`
		TradeNo string `json:"trade_no"`
		PayURL  string `json:"pay_url"`
		QRCode  string `json:"qr_code"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, ErrResponseInvalid
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Msg)
	}
	return &CreateResult{
		PayURL:  strings.TrimSpace(resp.PayURL),
		QRCode:  strings.TrimSpace(resp.QRCode),
		TradeNo: strings.TrimSpace(resp.TradeNo),
		Raw:     raw,
	}, nil
}

// Sign 对请求参数签名
func Sign(cfg *Config, params map[string]string) (string, error) {
	content := buildSignContent(params)
	switch cfg.SignType {
	case SignTypeRSA:
		return signRSA(content, cfg.PrivateKey)
	default:
		return signMD5(content + cfg.SignKey), nil
	}
}

// VerifyCallback 验证异步通知签名，验签失败时不得信任任何字段
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
	content := buildSignContent(params)
	switch cfg.SignType {
	case SignTypeRSA:
		return verifyRSA(content, sign, cfg.PublicKey)
	default:
		expected := signMD5(content + cfg.SignKey)
		if !strings.EqualFold(expected, sign) {
			return ErrSignatureInvalid
		}
	}
	return nil
}

// ParseCallback 从已验签的通知表单中提取业务字段
func ParseCallback(form url.Values) (*CallbackData, error) {
	tradeNo := strings.TrimSpace(form.Get("trade_no"))
	orderNo := strings.TrimSpace(form.Get("out_trade_no"))
	amount := strings.TrimSpace(form.Get("total_amount"))
	status := strings.TrimSpace(form.Get("trade_status"))
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
		Success: strings.EqualFold(status, TradeStatusSuccess),
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

// buildSignContent 升序拼接非空参数，跳过 sign/sign_type
func buildSignContent(params map[string]string) string {
	var keys []string
	for k, v := range params {
		if v == "" {
			continue
		}
		if k == "sign" || k == "sign_type" {
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

func signMD5(content string) string {
	sum := md5.Sum([]byte(content))
	return strings.ToLower(hex.EncodeToString(sum[:]))
}

func signRSA(content, privateKey string) (string, error) {
	key, err := parseRSAPrivateKey(privateKey)
	if err != nil {
		return "", err
	}
	hashed := sha256.Sum256([]byte(content))
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hashed[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

func verifyRSA(content, signature, publicKey string) error {
	key, err := parseRSAPublicKey(publicKey)
	if err != nil {
		return ErrSignatureInvalid
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return ErrSignatureInvalid
	}
	hashed := sha256.Sum256([]byte(content))
	if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, hashed[:], raw); err != nil {
		return ErrSignatureInvalid
	}
	return nil
}

func parseRSAPrivateKey(raw string) (*rsa.PrivateKey, error) {
	normalized := normalizeKey(raw)
	block, _ := pem.Decode([]byte(normalized))
	if block != nil {
		if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
			if rsaKey, ok := key.(*rsa.PrivateKey); ok {
				return rsaKey, nil
			}
		}
		if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
			return key, nil
		}
	}
	decoded, err := decodeKeyBody(normalized)
	if err != nil {
		return nil, ErrConfigInvalid
	}
	if key, err := x509.ParsePKCS8PrivateKey(decoded); err == nil {
		if rsaKey, ok := key.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
	}
	if key, err := x509.ParsePKCS1PrivateKey(decoded); err == nil {
		return key, nil
	}
	return nil, ErrConfigInvalid
}

func parseRSAPublicKey(raw string) (*rsa.PublicKey, error) {
	normalized := normalizeKey(raw)
	block, _ := pem.Decode([]byte(normalized))
	if block != nil {
		if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
			if rsaKey, ok := key.(*rsa.PublicKey); ok {
				return rsaKey, nil
			}
		}
		if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
			return key, nil
		}
	}
	decoded, err := decodeKeyBody(normalized)
	if err != nil {
		return nil, ErrConfigInvalid
	}
	if key, err := x509.ParsePKIXPublicKey(decoded); err == nil {
		if rsaKey, ok := key.(*rsa.PublicKey); ok {
			return rsaKey, nil
		}
	}
	if key, err := x509.ParsePKCS1PublicKey(decoded); err == nil {
		return key, nil
	}
	return nil, ErrConfigInvalid
}

func normalizeKey(raw string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), "\\n", "\n")
	return strings.ReplaceAll(normalized, "\r\n", "\n")
}

func decodeKeyBody(raw string) ([]byte, error) {
	lines := strings.Split(raw, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "-----BEGIN ") || strings.HasPrefix(trimmed, "-----END ") {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return nil, ErrConfigInvalid
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.Join(parts, ""))
	if err != nil {
		return nil, ErrConfigInvalid
	}
	return decoded, nil
}
