package handlers

import (
	"notehub/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// 注册自定义校验规则
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// userrole 限定用户角色取值
		v.RegisterValidation("userrole", func(fl validator.FieldLevel) bool {
			return models.Role(fl.Field().String()).Valid()
		})
	}
}
