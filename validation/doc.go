// Package validation checks configuration structs and pipeline definitions.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Both report an
// INVALID_INPUT *errors.AppError whose "fields" detail lists every failure.
//
// # Struct Tag Validation
//
//	type ExecConfig struct {
//	    Workers int `mapstructure:"workers" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("name", def.Name).Identifier("name", def.Name)
//	if appErr := v.Validate(); appErr != nil { ... }
package validation
