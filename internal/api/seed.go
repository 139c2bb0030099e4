package api

import (
	"context"
	"errors"
	"log/slog"

	"accounthub/internal/model"
	"accounthub/internal/pkg/random"
	"accounthub/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// SeedAdminUser 初始化管理员账号。
//
// 仅在不存在 "admin" 用户时创建，初始密码随机生成并打印到日志，
// 首次登录后应立即修改。
func (s *Server) SeedAdminUser(ctx context.Context) error {
	const adminUsername = "admin"

	_, err := s.users.FindByUsername(ctx, adminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	password, err := random.String(12)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &model.User{
		Username:   adminUsername,
		Email:      "admin@accounthub.local",
		Password:   string(hash),
		Role:       model.RoleAdmin,
		IsVerified: true,
		IsActive:   true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		var dup *store.DuplicateKeyError
		// 多实例并发启动时另一个实例已建好
		if errors.As(err, &dup) {
			return nil
		}
		return err
	}

	s.logger.Warn("admin user created, change the password after first login",
		slog.String("username", adminUsername),
		slog.String("password", password),
	)
	return nil
}
