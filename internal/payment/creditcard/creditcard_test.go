package creditcard

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

func testConfig() *Config {
	return &Config{
		GatewayURL: "https://pay.cardgw.example/api/charge",
		MerchantID: "M100001",
		SecretKey:  "test-secret-key",
		NotifyURL:  "https://mall.example/api/pay/callback/credit_card",
	}
}

func TestMaskCardNumber(t *testing.T) {
	tests := []struct {
		name    string
		card    string
		want    string
		wantErr bool
	}{
		{name: "plain 16 digits", card: "6222020200112233", want: "622202****2233"},
		{name: "with spaces", card: "6222 0202 0011 2233", want: "622202****2233"},
		{name: "with dashes", card: "6222-0202-0011-2233", want: "622202****2233"},
		{name: "too short", card: "123456789012", wantErr: true},
		{name: "too long", card: "12345678901234567890", wantErr: true},
		{name: "empty", card: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MaskCardNumber(tt.card)
			if tt.wantErr {
				if !errors.Is(err, ErrCardInvalid) {
					t.Fatalf("MaskCardNumber err = %v, want ErrCardInvalid", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("MaskCardNumber: %v", err)
			}
			if got != tt.want {
				t.Fatalf("MaskCardNumber = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaskCardNumberNeverKeepsMiddleDigits(t *testing.T) {
	masked, err := MaskCardNumber("6222020200112233")
	if err != nil {
		t.Fatalf("MaskCardNumber: %v", err)
	}
	if strings.Contains(masked, "0200") {
		t.Fatalf("masked card %q leaks middle digits", masked)
	}
	if !strings.Contains(masked, "****") {
		t.Fatalf("masked card %q has no mask", masked)
	}
}

func TestVerifyCallbackRoundTrip(t *testing.T) {
	cfg := testConfig()
	params := map[string]string{
		"transaction_id": "CC20260101000001",
		"order_no":       "20260101123456000001",
		"amount":         "199.50",
		"status":         "SUCCESS",
	}
	sign := Sign(cfg.SecretKey, params)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("sign", sign)

	if err := VerifyCallback(cfg, form); err != nil {
		t.Fatalf("VerifyCallback: %v", err)
	}
}

func TestVerifyCallbackTampered(t *testing.T) {
	cfg := testConfig()
	params := map[string]string{
		"transaction_id": "CC20260101000001",
		"order_no":       "20260101123456000001",
		"amount":         "199.50",
		"status":         "SUCCESS",
	}
	sign := Sign(cfg.SecretKey, params)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("sign", sign)
	form.Set("amount", "1.00")

	if err := VerifyCallback(cfg, form); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("VerifyCallback err = %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyCallbackWrongKey(t *testing.T) {
	cfg := testConfig()
	params := map[string]string{
		"order_no": "20260101123456000001",
		"amount":   "199.50",
	}
	sign := Sign("another-key", params)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("sign", sign)

	if err := VerifyCallback(cfg, form); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("VerifyCallback err = %v, want ErrSignatureInvalid", err)
	}
}

func TestParseCallback(t *testing.T) {
	form := url.Values{}
	form.Set("transaction_id", "CC20260101000001")
	form.Set("order_no", "20260101123456000001")
	form.Set("amount", "199.50")
	form.Set("status", "SUCCESS")

	data, err := ParseCallback(form)
	if err != nil {
		t.Fatalf("ParseCallback: %v", err)
	}
	if data.TradeNo != "CC20260101000001" || data.OrderNo != "20260101123456000001" {
		t.Fatalf("unexpected callback data: %+v", data)
	}
	if !data.Success {
		t.Fatal("Success = false, want true")
	}

	form.Set("status", "FAILED")
	data, err = ParseCallback(form)
	if err != nil {
		t.Fatalf("ParseCallback: %v", err)
	}
	if data.Success {
		t.Fatal("Success = true, want false")
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(testConfig()); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	broken := testConfig()
	broken.SecretKey = ""
	if err := ValidateConfig(broken); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("ValidateConfig err = %v, want ErrConfigInvalid", err)
	}
}
