package model

import "time"

// 用户角色。
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User 表示系统用户。
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`                                  // 用户 ID
	Username   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"` // 用户名（唯一）
	Email      string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"email"`   // 邮箱（唯一）
	Password   string    `gorm:"not null" json:"-"`                                     // bcrypt 哈希
	Role       string    `gorm:"type:varchar(16);default:user" json:"role"`             // 角色: admin / user
	IsVerified bool      `gorm:"default:false" json:"isVerified"`                       // 邮箱是否已验证
	IsActive   bool      `gorm:"default:true" json:"isActive"`                          // 账号是否启用
	CreatedAt  time.Time `json:"createdAt"`                                             // 创建时间
}
