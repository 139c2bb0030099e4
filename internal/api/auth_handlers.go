package api

import (
	"errors"
	"log/slog"
	"net/http"

	"accounthub/internal/auth"
	"accounthub/internal/store"
	"accounthub/internal/token"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8,max=12"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,min=8,max=12"`
}

type forgetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// handleLogin 校验凭证并返回登录令牌对。
//
// 用户不存在与密码错误统一返回 "User not found"，避免泄露账号是否存在。
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	tokens, err := s.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"message": "User not found"})
		case errors.Is(err, auth.ErrNotVerified):
			c.JSON(http.StatusBadRequest, gin.H{"message": "user is not verified"})
		default:
			s.logger.Error("login failed", slog.String("username", req.Username), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// handleRegister 创建未验证用户并发送邮箱验证链接。
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	_, err := s.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		var dup *store.DuplicateKeyError
		switch {
		case errors.Is(err, auth.ErrPasswordMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"message": "password and confirm password not match"})
		case errors.As(err, &dup):
			respondDuplicateKey(c, dup)
		default:
			s.logger.Error("register failed", slog.String("username", req.Username), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "register success"})
}

// handleVerifyEmail 兑换邮箱验证令牌。
func (s *Server) handleVerifyEmail(c *gin.Context) {
	tokenStr := c.Param("token")

	if _, err := s.authSvc.VerifyEmail(c.Request.Context(), tokenStr); err != nil {
		switch {
		case errors.Is(err, token.ErrTokenExpired):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Token expired"})
		case errors.Is(err, token.ErrTokenInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid token"})
		case errors.Is(err, auth.ErrAlreadyVerified):
			c.JSON(http.StatusBadRequest, gin.H{"message": "user already verified"})
		default:
			s.logger.Error("email verification failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User email verified successfully."})
}

// handleForgetPassword 发起密码重置邮件。
func (s *Server) handleForgetPassword(c *gin.Context) {
	var req forgetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	if err := s.authSvc.ForgetPassword(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		case errors.Is(err, auth.ErrNotActive):
			c.JSON(http.StatusBadRequest, gin.H{"message": "user is not active"})
		case errors.Is(err, auth.ErrNotVerified):
			c.JSON(http.StatusBadRequest, gin.H{"message": "user is not verified"})
		default:
			s.logger.Error("forget password failed", slog.String("email", req.Email), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email has been sent."})
}
