package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"accounthub/internal/api/middleware"
	"accounthub/internal/model"
	"accounthub/internal/store"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=12"`
	Role     string `json:"role" binding:"omitempty,oneof=admin user"`
}

type updateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=1"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8,max=12"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin user"`
	IsActive *bool   `json:"isActive"`
}

// handleCreateUser 管理员直接创建用户。
//
// 密码在此处显式哈希后入库，持久层不做任何隐式处理。
func (s *Server) handleCreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hash),
		Role:     role,
		IsActive: true,
	}
	if err := s.users.Create(c.Request.Context(), user); err != nil {
		var dup *store.DuplicateKeyError
		if errors.As(err, &dup) {
			respondDuplicateKey(c, dup)
			return
		}
		s.logger.Error("create user failed", slog.String("username", req.Username), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// handleListUsers 分页列出用户。
func (s *Server) handleListUsers(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	limit := parseIntQuery(c, "limit", 10)

	result, err := s.users.ListPage(c.Request.Context(), page, limit)
	if err != nil {
		s.logger.Error("list users failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleProfile 返回当前认证主体的信息。
func (s *Server) handleProfile(c *gin.Context) {
	principal := middleware.Principal(c)
	if principal == nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden resource"})
		return
	}
	c.JSON(http.StatusOK, principal)
}

// handleGetUser 按 ID 查询用户。
func (s *Server) handleGetUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	user, err := s.users.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
			return
		}
		s.logger.Error("get user failed", slog.Uint64("id", uint64(id)), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// handleUpdateUser 按 ID 更新用户字段，密码更新时同样显式哈希。
func (s *Server) handleUpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			return
		}
		updates["password"] = string(hash)
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "no fields to update"})
		return
	}

	user, err := s.users.UpdateByID(c.Request.Context(), id, updates)
	if err != nil {
		var dup *store.DuplicateKeyError
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		case errors.As(err, &dup):
			respondDuplicateKey(c, dup)
		default:
			s.logger.Error("update user failed", slog.Uint64("id", uint64(id)), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

// handleDeleteUser 按 ID 删除用户。
func (s *Server) handleDeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := s.users.DeleteByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
			return
		}
		s.logger.Error("delete user failed", slog.Uint64("id", uint64(id)), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully."})
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return 0, false
	}
	return uint(id), true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 1 {
		return fallback
	}
	return i
}
