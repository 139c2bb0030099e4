package auth

import "errors"

// 认证流程的业务错误，由 HTTP 层翻译为对应的响应。
var (
	// ErrUserNotFound 用户不存在。
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials 密码不匹配。对外与 ErrUserNotFound 统一呈现，
	// 避免泄露账号是否存在。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotVerified 邮箱尚未验证。
	ErrNotVerified = errors.New("user is not verified")
	// ErrNotActive 账号已被停用。
	ErrNotActive = errors.New("user is not active")
	// ErrAlreadyVerified 邮箱已验证过，验证状态不可回退。
	ErrAlreadyVerified = errors.New("user already verified")
	// ErrPasswordMismatch 两次输入的密码不一致。
	ErrPasswordMismatch = errors.New("password and confirm password not match")
)
