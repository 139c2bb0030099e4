package api

import (
	"errors"
	"fmt"
	"net/http"
	"unicode"

	"accounthub/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondBindingError 将请求绑定错误翻译为字段级 422 响应。
//
// 响应形如 {"error":{"username":["username should not be empty"]},"message":"Error Validation"}。
func respondBindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fieldErrors := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			field := lowerFirst(fe.Field())
			fieldErrors[field] = append(fieldErrors[field], constraintMessage(field, fe))
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   fieldErrors,
			"message": "Error Validation",
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
}

// respondDuplicateKey 将唯一索引冲突翻译为字段级 422 响应。
func respondDuplicateKey(c *gin.Context, dup *store.DuplicateKeyError) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error": map[string][]string{
			dup.Field: {fmt.Sprintf("%s must be unique", dup.Field)},
		},
		"message": "Error Validation",
	})
}

func constraintMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s should not be empty", field)
	case "email":
		return fmt.Sprintf("%s must be an email", field)
	case "min":
		return fmt.Sprintf("%s must be longer than or equal to %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be shorter than or equal to %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of the following values: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
