package alipay

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/url"
	"testing"
)

func testConfig() *Config {
	cfg := &Config{
		GatewayURL: "https://openapi.alipay.example/gateway",
		AppID:      "2021000000000001",
		SignType:   SignTypeMD5,
		SignKey:    "test-sign-key",
		NotifyURL:  "https://mall.example/api/pay/callback/alipay",
	}
	cfg.normalize()
	return cfg
}

func TestBuildSignContentSkipsSignFields(t *testing.T) {
	params := map[string]string{
		"b_key":     "2",
		"a_key":     "1",
		"empty":     "",
		"sign":      "should-not-appear",
		"sign_type": "MD5",
	}
	content := buildSignContent(params)
	expected := "a_key=1&b_key=2"
	if content != expected {
		t.Fatalf("sign content = %q, want %q", content, expected)
	}
}

func TestVerifyCallbackMD5(t *testing.T) {
	cfg := testConfig()
	params := map[string]string{
		"trade_no":     "2026010122001400001",
		"out_trade_no": "20260101123456000001",
		"total_amount": "99.00",
		"trade_status": "TRADE_SUCCESS",
	}
	sign, err := Sign(cfg, params)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("sign", sign)
	form.Set("sign_type", SignTypeMD5)

	if err := VerifyCallback(cfg, form); err != nil {
		t.Fatalf("VerifyCallback: %v", err)
	}
}

func TestVerifyCallbackTamperedAmount(t *testing.T) {
	cfg := testConfig()
	params := map[string]string{
		"trade_no":     "2026010122001400001",
		"out_trade_no": "20260101123456000001",
		"total_amount": "99.00",
		"trade_status": "TRADE_SUCCESS",
	}
	sign, err := Sign(cfg, params)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("sign", sign)
	form.Set("total_amount", "0.01")

	if err := VerifyCallback(cfg, form); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("VerifyCallback err = %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyCallbackMissingSign(t *testing.T) {
	form := url.Values{}
	form.Set("out_trade_no", "20260101123456000001")
	if err := VerifyCallback(testConfig(), form); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("VerifyCallback err = %v, want ErrSignatureInvalid", err)
	}
}

func TestParseCallback(t *testing.T) {
	form := url.Values{}
	form.Set("trade_no", "2026010122001400001")
	form.Set("out_trade_no", "20260101123456000001")
	form.Set("total_amount", "99.00")
	form.Set("trade_status", "TRADE_SUCCESS")

	data, err := ParseCallback(form)
	if err != nil {
		t.Fatalf("ParseCallback: %v", err)
	}
	if data.TradeNo != "2026010122001400001" {
		t.Fatalf("TradeNo = %q", data.TradeNo)
	}
	if data.OrderNo != "20260101123456000001" {
		t.Fatalf("OrderNo = %q", data.OrderNo)
	}
	if data.Amount != "99.00" {
		t.Fatalf("Amount = %q", data.Amount)
	}
	if !data.Success {
		t.Fatal("Success = false, want true")
	}
}

func TestParseCallbackNotSuccess(t *testing.T) {
	form := url.Values{}
	form.Set("out_trade_no", "20260101123456000001")
	form.Set("total_amount", "99.00")
	form.Set("trade_status", "WAIT_BUYER_PAY")

	data, err := ParseCallback(form)
	if err != nil {
		t.Fatalf("ParseCallback: %v", err)
	}
	if data.Success {
		t.Fatal("Success = true, want false")
	}
}

func TestParseCallbackMissingOrderNo(t *testing.T) {
	form := url.Values{}
	form.Set("total_amount", "99.00")
	if _, err := ParseCallback(form); !errors.Is(err, ErrCallbackInvalid) {
		t.Fatalf("ParseCallback err = %v, want ErrCallbackInvalid", err)
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := testConfig()
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}

	broken := *cfg
	broken.SignKey = ""
	if err := ValidateConfig(&broken); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("ValidateConfig err = %v, want ErrConfigInvalid", err)
	}

	rsaCfg := *cfg
	rsaCfg.SignType = SignTypeRSA
	if err := ValidateConfig(&rsaCfg); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("ValidateConfig err = %v, want ErrConfigInvalid for missing keys", err)
	}
}

func TestVerifyCallbackRSA(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	privBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		t.Fatalf("marshal private key: %v", err)
	}
	pubBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}

	cfg := testConfig()
	cfg.SignType = SignTypeRSA
	cfg.PrivateKey = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privBytes}))
	cfg.PublicKey = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes}))

	params := map[string]string{
		"trade_no":     "2026010122001400001",
		"out_trade_no": "20260101123456000001",
		"total_amount": "99.00",
		"trade_status": "TRADE_SUCCESS",
	}
	sign, err := Sign(cfg, params)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("sign", sign)
	form.Set("sign_type", SignTypeRSA)
	if err := VerifyCallback(cfg, form); err != nil {
		t.Fatalf("VerifyCallback: %v", err)
	}

	form.Set("total_amount", "0.01")
	if err := VerifyCallback(cfg, form); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("VerifyCallback err = %v, want ErrSignatureInvalid", err)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(map[string]interface{}{
		"gateway_url": "https://openapi.alipay.example/gateway/",
		"app_id":      "2021000000000001",
		"sign_key":    "k",
		"notify_url":  "https://mall.example/api/pay/callback/alipay",
	})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.SignType != SignTypeMD5 {
		t.Fatalf("SignType = %q, want MD5 default", cfg.SignType)
	}
	if cfg.GatewayURL != "https://openapi.alipay.example/gateway" {
		t.Fatalf("GatewayURL = %q, want trailing slash trimmed", cfg.GatewayURL)
	}
}
