package auth

import (
	"context"
	"errors"
	"log/slog"

	"accounthub/internal/model"
	"accounthub/internal/pkg/metrics"
	"accounthub/internal/store"
	"accounthub/internal/token"

	"golang.org/x/crypto/bcrypt"
)

// UserStore 认证流程依赖的用户持久化操作。
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Save(ctx context.Context, user *model.User) error
}

// Mailer 邮件发送接口。发送失败不会回滚触发它的业务流程。
type Mailer interface {
	SendVerificationLink(toEmail string, username string, link string) error
	SendPasswordReset(toEmail string, username string) error
}

// Service 编排登录、注册、邮箱验证与忘记密码流程。
type Service struct {
	users       UserStore
	tokens      *token.Service
	mailer      Mailer
	logger      *slog.Logger
	redirectURL string
}

// NewService 创建认证服务。redirectURL 为邮箱验证链接前缀，token 拼接在末尾。
func NewService(users UserStore, tokens *token.Service, mailer Mailer, logger *slog.Logger, redirectURL string) *Service {
	return &Service{
		users:       users,
		tokens:      tokens,
		mailer:      mailer,
		logger:      logger,
		redirectURL: redirectURL,
	}
}

// Login 校验用户名密码并签发登录令牌对。不产生任何持久化写入。
func (s *Service) Login(ctx context.Context, username, password string) (*token.LoginTokens, error) {
	user, err := s.verifyCredentials(ctx, username, password)
	if err != nil {
		metrics.Inc(metrics.LoginTotal, "denied")
		return nil, err
	}

	tokens, err := s.tokens.IssueLoginTokens(user)
	if err != nil {
		metrics.Inc(metrics.LoginTotal, "error")
		return nil, err
	}

	metrics.Inc(metrics.LoginTotal, "ok")
	s.logger.Info("user logged in", slog.String("username", user.Username), slog.String("role", user.Role))
	return tokens, nil
}

// verifyCredentials 按用户名查找用户并校验密码。
//
// 未验证的账号即使密码正确也不能获得会话，因此验证状态检查先于密码比对。
func (s *Service) verifyCredentials(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.IsVerified {
		return nil, ErrNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Register 创建未验证的用户并签发邮箱验证令牌。
//
// 该令牌是待验证状态的唯一凭据（不落库），随验证链接发送到用户邮箱；
// 邮件发送异步进行，失败只记录日志，不回滚已创建的用户。
func (s *Service) Register(ctx context.Context, username, email, password, confirmPassword string) (string, error) {
	if password != confirmPassword {
		metrics.Inc(metrics.RegisterTotal, "denied")
		return "", ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		metrics.Inc(metrics.RegisterTotal, "error")
		return "", err
	}

	user := &model.User{
		Username:   username,
		Email:      email,
		Password:   string(hash),
		Role:       model.RoleUser,
		IsVerified: false,
		IsActive:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		metrics.Inc(metrics.RegisterTotal, "error")
		return "", err
	}

	registerToken, err := s.tokens.IssueRegisterToken(user)
	if err != nil {
		metrics.Inc(metrics.RegisterTotal, "error")
		return "", err
	}

	link := s.redirectURL + registerToken
	go func() {
		if err := s.mailer.SendVerificationLink(user.Email, user.Username, link); err != nil {
			s.logger.Warn("send verification email failed",
				slog.String("email", user.Email), slog.String("error", err.Error()))
		}
	}()

	metrics.Inc(metrics.RegisterTotal, "ok")
	s.logger.Info("user registered", slog.String("username", username), slog.String("email", email))
	return registerToken, nil
}

// VerifyEmail 兑换邮箱验证令牌，将用户置为已验证。验证状态单调，不可回退。
func (s *Service) VerifyEmail(ctx context.Context, tokenStr string) (*model.User, error) {
	claims, err := s.tokens.VerifyRegister(tokenStr)
	if err != nil {
		metrics.Inc(metrics.EmailVerifyTotal, "denied")
		return nil, err
	}
	if claims.TokenType != token.TypeRegister {
		metrics.Inc(metrics.EmailVerifyTotal, "denied")
		return nil, token.ErrTokenInvalid
	}

	id, err := claims.SubjectID()
	if err != nil {
		metrics.Inc(metrics.EmailVerifyTotal, "denied")
		return nil, token.ErrTokenInvalid
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		metrics.Inc(metrics.EmailVerifyTotal, "denied")
		if errors.Is(err, store.ErrNotFound) {
			return nil, token.ErrTokenInvalid
		}
		return nil, err
	}

	if user.IsVerified {
		metrics.Inc(metrics.EmailVerifyTotal, "denied")
		return nil, ErrAlreadyVerified
	}

	user.IsVerified = true
	if err := s.users.Save(ctx, user); err != nil {
		metrics.Inc(metrics.EmailVerifyTotal, "error")
		return nil, err
	}

	metrics.Inc(metrics.EmailVerifyTotal, "ok")
	s.logger.Info("email verified", slog.String("username", user.Username))
	return user, nil
}

// ForgetPassword 发起密码重置：校验账号状态后发送重置通知邮件。
func (s *Service) ForgetPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !user.IsActive {
		return ErrNotActive
	}
	if !user.IsVerified {
		return ErrNotVerified
	}

	go func() {
		if err := s.mailer.SendPasswordReset(user.Email, user.Username); err != nil {
			s.logger.Warn("send password reset email failed",
				slog.String("email", user.Email), slog.String("error", err.Error()))
		}
	}()

	s.logger.Info("password reset requested", slog.String("email", email))
	return nil
}
