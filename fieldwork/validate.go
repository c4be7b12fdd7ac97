// ABOUTME: Visit input validation rules
// ABOUTME: Registers the sales_status tag against the fixed status enumeration
package fieldwork

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/harperreed/workly/models"
)

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	err := v.RegisterValidation("sales_status", func(fl validator.FieldLevel) bool {
		return models.IsKnownStatus(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register sales_status rule: %w", err)
	}
	return v, nil
}

func mustValidator() *validator.Validate {
	v, err := newValidator()
	if err != nil {
		panic(err)
	}
	return v
}
