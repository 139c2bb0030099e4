package middleware

import (
	"context"
	"strings"

	"accounthub/internal/model"
	"accounthub/internal/token"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// PrincipalStore 根据令牌主体加载用户。
type PrincipalStore interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

// Authenticate 解析 Bearer 令牌并将认证主体写入上下文。
//
// 该中间件本身从不拒绝请求：缺失或无效的令牌只会让主体保持为空，
// 访问裁决完全交给各路由声明的权限检查。
func Authenticate(tokens *token.Service, users PrincipalStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Next()
			return
		}

		claims, err := tokens.VerifyAccess(parts[1])
		if err != nil {
			c.Next()
			return
		}

		id, err := claims.SubjectID()
		if err != nil {
			c.Next()
			return
		}

		user, err := users.FindByID(c.Request.Context(), id)
		if err != nil {
			c.Next()
			return
		}

		c.Set(principalKey, user)
		c.Next()
	}
}

// Principal 返回上下文中的认证主体，未认证时为 nil。
func Principal(c *gin.Context) *model.User {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	user, ok := v.(*model.User)
	if !ok {
		return nil
	}
	return user
}

// SetPrincipal 将认证主体写入上下文，供测试构造请求环境。
func SetPrincipal(c *gin.Context, user *model.User) {
	c.Set(principalKey, user)
}
