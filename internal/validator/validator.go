// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"marketwatch/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("asset_kind", validateAssetKind)
	}
}

// validateAssetKind accepts the closed set of referencable asset kinds,
// matched case-insensitively like the wire format.
func validateAssetKind(fl validator.FieldLevel) bool {
	_, ok := models.ParseAssetKind(fl.Field().String())
	return ok
}
