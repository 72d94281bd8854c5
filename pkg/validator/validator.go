package validator

import (
	"github.com/go-playground/validator/v10"

	apperrors "github.com/classcaption-team/classcaption/errors"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance
func New() *CustomValidator {
	return &CustomValidator{v: validator.New()}
}

// Validate performs struct validation, converting field failures into an
// AppError carrying per-field details
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}

	appErr := apperrors.ErrBadRequest("request validation failed")
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			appErr = appErr.WithDetail(fe.Field(), fe.Tag())
		}
	}
	return appErr
}
