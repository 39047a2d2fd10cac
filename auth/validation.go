package auth

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-auth-sessions/users"
)

// Request shapes accepted by the public operations
type (
	RegisterInput struct {
		Name     string `json:"name" validate:"required,min=3,max=100"`
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,password"`
	}

	LoginInput struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
		DeviceID string `json:"device_id" validate:"omitempty,max=128"`
	}

	RefreshInput struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	ForgotPasswordInput struct {
		Email string `json:"email" validate:"required,email"`
	}

	ResetPasswordInput struct {
		Email       string `json:"email" validate:"required,email"`
		OTP         string `json:"otp" validate:"required,len=6,numeric"`
		NewPassword string `json:"new_password" validate:"required,password"`
	}

	EndSessionsInput struct {
		DeviceIDs []string `json:"device_ids" validate:"required,min=1,dive,required,max=128"`
	}
)

// ValidationError lists the offending fields by their JSON name
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// passwordTooLong reports a password bcrypt would refuse against field
func passwordTooLong(field string) *ValidationError {
	return &ValidationError{Fields: map[string]string{
		field: fmt.Sprintf("password must be at most %d bytes long", users.MaxPasswordBytes),
	}}
}

// Validator checks request inputs before they reach the service.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the password strength rule registered
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return users.ValidatePasswordStrength(fl.Field().String()) == nil
	})
	return &Validator{validate: v}
}

// Validate returns a *ValidationError naming every failing field, or nil
func (v *Validator) Validate(input any) error {
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		name := fe.Field()
		if ns := fe.Namespace(); strings.Contains(ns, "[") {
			_, name, _ = strings.Cut(ns, ".")
		}
		out.Fields[name] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "password":
		return users.ValidatePasswordStrength(fmt.Sprint(fe.Value())).Error()
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain digits only"
	case "min":
		return fmt.Sprintf("must be at least %s long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s long", fe.Param())
	default:
		return "is invalid"
	}
}
