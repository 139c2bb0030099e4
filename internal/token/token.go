package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"accounthub/internal/config"
	"accounthub/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// 令牌类型，签入 claims 并在兑换时校验。
const (
	TypeLogin    = "login"
	TypeRegister = "register"
)

var (
	// ErrTokenExpired 令牌已过期（签名本身有效）。
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid 令牌签名或结构无效。
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims 签入令牌的声明集。
//
// Subject 为用户 ID，TokenType 区分登录令牌与邮箱验证令牌，
// 兑换时必须与上下文匹配（register 令牌不能当作登录凭证）。
type Claims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"type"`
}

// SubjectID 解析 Subject 中的用户 ID。
func (c *Claims) SubjectID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrTokenInvalid
	}
	return uint(id), nil
}

// LoginTokens 登录成功签发的令牌对。
type LoginTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service 负责令牌的签发与校验。
//
// 三类令牌使用各自独立的密钥与有效期（配置加载后只读），
// 签发与校验均为纯函数，无任何副作用，可并发调用。
type Service struct {
	cfg *config.TokenConfig
	now func() time.Time
}

// NewService 创建令牌服务。
func NewService(cfg *config.TokenConfig) *Service {
	return &Service{cfg: cfg, now: time.Now}
}

// IssueLoginTokens 为同一份声明分别用 access / refresh 密钥签名，
// 返回登录令牌对。
func (s *Service) IssueLoginTokens(user *model.User) (*LoginTokens, error) {
	accessToken, err := s.sign(user, TypeLogin, s.cfg.AccessSecret, s.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := s.sign(user, TypeLogin, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &LoginTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// IssueRegisterToken 签发邮箱验证令牌。
func (s *Service) IssueRegisterToken(user *model.User) (string, error) {
	registerToken, err := s.sign(user, TypeRegister, s.cfg.RegisterSecret, s.cfg.RegisterTTL)
	if err != nil {
		return "", fmt.Errorf("sign register token: %w", err)
	}
	return registerToken, nil
}

// Verify 校验令牌的签名与有效期并返回声明集。
//
// 令牌类型在此处不做校验，由调用方在校验成功后检查 TokenType。
func (s *Service) Verify(tokenStr string, secret string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyAccess 用 access 密钥校验登录令牌，供认证中间件使用。
func (s *Service) VerifyAccess(tokenStr string) (*Claims, error) {
	claims, err := s.Verify(tokenStr, s.cfg.AccessSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TypeLogin {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyRegister 用 register 密钥做结构校验。
// 令牌类型由编排方检查。
func (s *Service) VerifyRegister(tokenStr string) (*Claims, error) {
	return s.Verify(tokenStr, s.cfg.RegisterSecret)
}

// VerifyRefresh 用 refresh 密钥校验登录令牌。
func (s *Service) VerifyRefresh(tokenStr string) (*Claims, error) {
	claims, err := s.Verify(tokenStr, s.cfg.RefreshSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TypeLogin {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *Service) sign(user *model.User, tokenType string, secret string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenType,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}
