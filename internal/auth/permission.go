package auth

import "accounthub/internal/model"

// Permission 路由声明的访问要求：具体角色，或 PermissionAuthorize
// 表示仅要求已认证（角色不限）。
type Permission string

const (
	PermissionAdmin     Permission = model.RoleAdmin
	PermissionUser      Permission = model.RoleUser
	PermissionAuthorize Permission = "authorize"
)

// Authorize 判定主体是否满足路由声明的权限要求。
//
// 纯函数，无副作用：
//   - 路由未声明权限 → 放行；
//   - 声明中包含 PermissionAuthorize → 仅要求 principal 非空；
//   - 否则要求 principal 的角色属于声明集合。
//
// 拒绝时由调用方负责返回授权失败响应。
func Authorize(required []Permission, principal *model.User) bool {
	if len(required) == 0 {
		return true
	}
	for _, p := range required {
		if p == PermissionAuthorize {
			return principal != nil
		}
	}
	if principal == nil {
		return false
	}
	for _, p := range required {
		if string(p) == principal.Role {
			return true
		}
	}
	return false
}
