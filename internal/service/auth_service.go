package service

import (
	"errors"
	"strings"
	"time"

	"github.com/wuyi-mall/internal/config"
	"github.com/wuyi-mall/internal/constants"
	"github.com/wuyi-mall/internal/logger"
	"github.com/wuyi-mall/internal/models"
	"github.com/wuyi-mall/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService 认证服务
type AuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	captcha  *CaptchaService
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, userRepo repository.UserRepository, captcha *CaptchaService) *AuthService {
	return &AuthService{
		cfg:      cfg,
		userRepo: userRepo,
		captcha:  captcha,
	}
}

// JWTClaims JWT 声明
type JWTClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	ShopID   uint   `json:"shop_id,omitempty"`
	jwt.RegisteredClaims
}

// RegisterInput 注册输入
type RegisterInput struct {
	Username string
	Password string
	Role     string
	ShopID   uint
}

// Register 注册用户。商家角色需给定商铺 ID，管理员不开放注册
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if len(username) < 3 || len(username) > 64 {
		return nil, wrap(ErrValidation, "用户名长度需在 3 到 64 之间")
	}
	if len(input.Password) < 6 {
		return nil, wrap(ErrValidation, "密码长度不能少于 6 位")
	}

	role := input.Role
	if role == "" {
		role = constants.RoleCustomer
	}
	switch role {
	case constants.RoleCustomer:
	case constants.RoleMerchant:
		if input.ShopID == 0 {
			return nil, wrap(ErrValidation, "商家注册需指定商铺")
		}
	default:
		return nil, wrap(ErrValidation, "不支持的注册角色")
	}

	existing, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Password: string(hash),
		Role:     role,
		Status:   constants.UserStatusActive,
	}
	if role == constants.RoleMerchant {
		user.ShopID = input.ShopID
	}
	if err := s.userRepo.Create(user); err != nil {
		// 唯一索引兜底并发注册
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	logger.Infow("user_registered",
		"user_id", user.ID,
		"username", user.Username,
		"role", user.Role,
	)
	return user, nil
}

// LoginInput 登录输入
type LoginInput struct {
	Username    string
	Password    string
	CaptchaID   string
	CaptchaCode string
}

// Login 登录，返回用户、JWT 与过期时间
func (s *AuthService) Login(input LoginInput) (*models.User, string, time.Time, error) {
	if s.captcha != nil {
		if err := s.captcha.Verify(input.CaptchaID, input.CaptchaCode); err != nil {
			return nil, "", time.Time{}, err
		}
	}

	user, err := s.userRepo.GetByUsername(strings.TrimSpace(input.Username))
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if user.Status != constants.UserStatusActive {
		return nil, "", time.Time{}, ErrUserDisabled
	}

	token, expiresAt, err := s.GenerateJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	logger.Infow("user_login", "user_id", user.ID, "username", user.Username)
	return user, token, expiresAt, nil
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(user *models.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.JWT.ExpireHours) * time.Hour)

	claims := JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		ShopID:   user.ShopID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// GetProfile 获取当前用户信息
func (s *AuthService) GetProfile(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ChangePassword 修改密码
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}
	if len(newPassword) < 6 {
		return wrap(ErrValidation, "密码长度不能少于 6 位")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hash)
	return s.userRepo.Save(user)
}
