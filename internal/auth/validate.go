package auth

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// エラーの path を JSON のフィールド名で返す
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "hasupper", func(r rune) bool { return r >= 'A' && r <= 'Z' })
	mustRegister(v, "hasdigit", func(r rune) bool { return r >= '0' && r <= '9' })
	mustRegister(v, "hassymbol", func(r rune) bool {
		return !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
	})
	return v
}

// mustRegister は文字列に match を満たす文字が1つ以上含まれることを検証するタグを登録します。
func mustRegister(v *validator.Validate, tag string, match func(rune) bool) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), match) >= 0
	})
	if err != nil {
		panic(err)
	}
}

// validateStruct は検証エラーを messages（"path.tag" → メッセージ）で FieldError に変換します。
func validateStruct(req any, messages map[string]string) []FieldError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid " + fe.Field()
		}
		fields = append(fields, FieldError{Message: msg, Path: fe.Field()})
	}
	return fields
}

var signupMessages = map[string]string{
	"name.required":            "Name is required",
	"name.max":                 "Name cannot exceed 50 characters",
	"email.required":           "Please enter a valid email address",
	"email.email":              "Please enter a valid email address",
	"email.min":                "Email must be at least 5 characters",
	"email.max":                "Email cannot exceed 100 characters",
	"password.min":             "Password must be at least 8 characters",
	"password.max":             "Password cannot exceed 64 characters",
	"password.hasupper":        "Must contain at least one uppercase letter (A-Z)",
	"password.hasdigit":        "Must contain at least one number (0-9)",
	"password.hassymbol":       "Must contain at least one special character (e.g., !@#$%^&*)",
	"confirmPassword.required": "Confirm Password is required",
	"confirmPassword.eqfield":  "Passwords do not match",
}

var loginMessages = map[string]string{
	"email.required":    "Invalid Email",
	"email.email":       "Invalid Email",
	"password.required": "Password is required",
}

var forgotMessages = map[string]string{
	"email.required": "Invalid Email",
	"email.email":    "Invalid Email",
}

var resetMessages = map[string]string{
	"email.required":          "Invalid Email",
	"email.email":             "Invalid Email",
	"newPassword.min":         "Password must be at least 8 characters long",
	"newPassword.max":         "Password cannot exceed 64 characters",
	"newPassword.hasupper":    "Password must contain at least one uppercase letter [A-Z]",
	"newPassword.hasdigit":    "Password must contain at least one number [0-9]",
	"newPassword.hassymbol":   "Must contain at least one special character (e.g., !@#$%^&*)",
	"confirmPassword.eqfield": "Passwords do not match",
}
