package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"accounthub/internal/model"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrNotFound 查询不到对应的用户。
var ErrNotFound = errors.New("user not found")

// DuplicateKeyError 表示唯一索引冲突（username / email 已存在）。
//
// 并发注册同名用户时由 MySQL 唯一索引裁决，输掉的一方收到该错误。
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s must be unique", e.Field)
}

// UserStore 封装用户表的持久化操作。
type UserStore struct {
	db *gorm.DB
}

// NewUserStore 创建用户存储。
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create 创建用户，唯一索引冲突时返回 *DuplicateKeyError。
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if dup := asDuplicateKey(err); dup != nil {
			return dup
		}
		return err
	}
	return nil
}

// FindByID 按 ID 查找用户。
func (s *UserStore) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByUsername 按用户名查找用户。
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail 按邮箱查找用户。
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Save 保存用户的全部字段。
func (s *UserStore) Save(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

// UpdateByID 按 ID 更新部分字段，返回更新后的用户。
func (s *UserStore) UpdateByID(ctx context.Context, id uint, updates map[string]interface{}) (*model.User, error) {
	result := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if dup := asDuplicateKey(result.Error); dup != nil {
			return nil, dup
		}
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindByID(ctx, id)
}

// DeleteByID 按 ID 删除用户。
func (s *UserStore) DeleteByID(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&model.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Page 分页查询结果。
type Page struct {
	CurrentPage int          `json:"currentPage"`
	TotalPages  int          `json:"totalPages"`
	TotalItems  int64        `json:"totalItems"`
	Data        []model.User `json:"data"`
}

// ListPage 按创建时间分页列出用户。
func (s *UserStore) ListPage(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var users []model.User
	offset := (page - 1) * limit
	if err := s.db.WithContext(ctx).Order("created_at").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}

	return &Page{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		Data:        users,
	}, nil
}

// asDuplicateKey 识别 MySQL 1062 错误并提取冲突字段名。
func asDuplicateKey(err error) *DuplicateKeyError {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) || mysqlErr.Number != 1062 {
		return nil
	}
	return &DuplicateKeyError{Field: duplicateField(mysqlErr.Message)}
}

// duplicateField 从形如
// "Duplicate entry 'harumi' for key 'users.idx_users_username'" 的消息中提取字段名。
func duplicateField(message string) string {
	const marker = "for key '"
	idx := strings.LastIndex(message, marker)
	if idx < 0 {
		return "field"
	}
	key := strings.TrimSuffix(message[idx+len(marker):], "'")
	if dot := strings.LastIndex(key, "."); dot >= 0 {
		key = key[dot+1:]
	}
	key = strings.TrimPrefix(key, "idx_users_")
	key = strings.TrimPrefix(key, "uni_users_")
	if key == "" {
		return "field"
	}
	return key
}
