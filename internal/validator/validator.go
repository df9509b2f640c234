// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("education", validateEducation)
		_ = v.RegisterValidation("employment", validateEmployment)
		_ = v.RegisterValidation("role", validateRole)
		_ = v.RegisterValidation("account_status", validateAccountStatus)
	}
}

// validateEducation accepts the education values the scoring model was
// trained on.
func validateEducation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Graduate", "Not Graduate":
		return true
	}
	return false
}

// validateEmployment accepts the self-employment flag values.
func validateEmployment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Yes", "No":
		return true
	}
	return false
}

func validateRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "user", "admin":
		return true
	}
	return false
}

func validateAccountStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "active", "inactive":
		return true
	}
	return false
}
