package service

import (
	"errors"
	"testing"

	"github.com/wuyi-mall/internal/config"
	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/models"
)

func newAuthService(env *serviceTestEnv) *AuthService {
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "unit-test-secret"
	cfg.JWT.ExpireHours = 2
	captcha := NewCaptchaService(config.CaptchaConfig{Enabled: false})
	return NewAuthService(cfg, env.userRepo, captcha)
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupServiceTest(t)
	auth := newAuthService(env)

	user, err := auth.Register(RegisterInput{Username: "alice", Password: "123456"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Role != constants.RoleCustomer {
		t.Fatalf("default role want customer, got %s", user.Role)
	}
	if user.Password == "123456" {
		t.Fatalf("password stored in plaintext")
	}

	logged, token, expiresAt, err := auth.Login(LoginInput{Username: "alice", Password: "123456"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if logged.ID != user.ID {
		t.Fatalf("logged user mismatch: %d vs %d", logged.ID, user.ID)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatalf("expected token and expiry")
	}

	claims, err := auth.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse jwt failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "alice" || claims.Role != constants.RoleCustomer {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := setupServiceTest(t)
	auth := newAuthService(env)

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"用户名过短", RegisterInput{Username: "ab", Password: "123456"}},
		{"密码过短", RegisterInput{Username: "carol", Password: "12345"}},
		{"商家缺商铺", RegisterInput{Username: "carol", Password: "123456", Role: constants.RoleMerchant}},
		{"管理员不可注册", RegisterInput{Username: "carol", Password: "123456", Role: constants.RoleAdmin}},
	}
	for _, tc := range cases {
		if _, err := auth.Register(tc.input); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: want ErrValidation, got %v", tc.name, err)
		}
	}

	if _, err := auth.Register(RegisterInput{Username: "dave", Password: "123456"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := auth.Register(RegisterInput{Username: "dave", Password: "654321"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("want ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterMerchantBindsShop(t *testing.T) {
	env := setupServiceTest(t)
	auth := newAuthService(env)

	user, err := auth.Register(RegisterInput{Username: "shop1", Password: "123456", Role: constants.RoleMerchant, ShopID: 3})
	if err != nil {
		t.Fatalf("register merchant failed: %v", err)
	}
	if user.Role != constants.RoleMerchant || user.ShopID != 3 {
		t.Fatalf("merchant binding wrong: role=%s shop=%d", user.Role, user.ShopID)
	}

	token, _, err := auth.GenerateJWT(user)
	if err != nil {
		t.Fatalf("generate jwt failed: %v", err)
	}
	claims, err := auth.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse jwt failed: %v", err)
	}
	if claims.ShopID != 3 {
		t.Fatalf("claims shop want 3, got %d", claims.ShopID)
	}
}

func TestLoginRejections(t *testing.T) {
	env := setupServiceTest(t)
	auth := newAuthService(env)
	if _, err := auth.Register(RegisterInput{Username: "erin", Password: "123456"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, _, _, err := auth.Login(LoginInput{Username: "erin", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: want ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := auth.Login(LoginInput{Username: "nobody", Password: "123456"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: want ErrInvalidCredentials, got %v", err)
	}

	if err := env.db.Model(&models.User{}).Where("username = ?", "erin").
		Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	if _, _, _, err := auth.Login(LoginInput{Username: "erin", Password: "123456"}); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("disabled user: want ErrUserDisabled, got %v", err)
	}
}

func TestParseJWTRejectsForgedToken(t *testing.T) {
	env := setupServiceTest(t)
	auth := newAuthService(env)
	user, err := auth.Register(RegisterInput{Username: "frank", Password: "123456"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	otherCfg := &config.Config{}
	otherCfg.JWT.SecretKey = "another-secret"
	otherCfg.JWT.ExpireHours = 2
	forger := NewAuthService(otherCfg, env.userRepo, NewCaptchaService(config.CaptchaConfig{Enabled: false}))
	forged, _, err := forger.GenerateJWT(user)
	if err != nil {
		t.Fatalf("generate forged jwt failed: %v", err)
	}
	if _, err := auth.ParseJWT(forged); err == nil {
		t.Fatalf("expected forged token to be rejected")
	}
	if _, err := auth.ParseJWT("not-a-token"); err == nil {
		t.Fatalf("expected malformed token to be rejected")
	}
}

func TestChangePassword(t *testing.T) {
	env := setupServiceTest(t)
	auth := newAuthService(env)
	user, err := auth.Register(RegisterInput{Username: "grace", Password: "123456"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := auth.ChangePassword(user.ID, "wrong", "abcdef"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
	if err := auth.ChangePassword(user.ID, "123456", "short"); !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if err := auth.ChangePassword(9999, "123456", "abcdef"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}

	if err := auth.ChangePassword(user.ID, "123456", "abcdef"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, _, _, err := auth.Login(LoginInput{Username: "grace", Password: "123456"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should no longer work, got %v", err)
	}
	if _, _, _, err := auth.Login(LoginInput{Username: "grace", Password: "abcdef"}); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}
