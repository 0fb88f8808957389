package notification

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("kind", func(fl validator.FieldLevel) bool {
		return Type(fl.Field().String()).Known()
	})
	return v
}

// Validate checks the required fields of a built record.
//
// Build never calls it: the taxonomy maps input to output verbatim, and
// rejecting malformed input is left to boundaries that want it (the CLI and
// the relay).
func Validate(r Record) error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid %s notification: %w", r.Type, err)
	}
	return nil
}
