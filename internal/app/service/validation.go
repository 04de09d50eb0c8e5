package service

import (
	"assignment_desk/internal/common"
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest checks req's `validate` tags and reports any failure as a
// validation error carrying message.
func validateRequest(req interface{}, message string) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return common.NewError(common.ErrValidation, message)
		}
		return common.Errorf("validating request: %w", err)
	}
	return nil
}
