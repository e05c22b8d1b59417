package dto

import (
	"github.com/go-playground/validator/v10"

	"lecture-scheduler/backend/internal/model"
)

// RegisterValidators 注册自定义校验标签
//   - lecture_status: scheduled | completed | cancelled
//   - user_role:      admin | instructor
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("lecture_status", func(fl validator.FieldLevel) bool {
		return model.IsValidLectureStatus(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		r := fl.Field().String()
		return r == model.RoleAdmin || r == model.RoleInstructor
	})
}
