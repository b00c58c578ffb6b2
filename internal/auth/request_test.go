package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	t.Run("empty bodies", func(t *testing.T) {
		for _, raw := range []string{"", "  ", "{}", " { } "} {
			var in LoginInput
			empty, err := decodeJSON([]byte(raw), &in, false)
			require.NoError(t, err)
			assert.True(t, empty, "%q", raw)
		}
	})

	t.Run("not an object", func(t *testing.T) {
		var in LoginInput
		_, err := decodeJSON([]byte(`["a"]`), &in, false)
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, KindBadRequest, apiErr.Kind)
	})

	t.Run("unknown field in strict mode", func(t *testing.T) {
		var in SignupInput
		_, err := decodeJSON([]byte(`{"name":"a","role":"admin"}`), &in, true)
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, KindValidation, apiErr.Kind)
		require.Len(t, apiErr.Fields, 1)
		assert.Equal(t, "Unrecognized key(s) in object: 'role'", apiErr.Fields[0].Message)
	})

	t.Run("unknown field tolerated otherwise", func(t *testing.T) {
		var in LoginInput
		_, err := decodeJSON([]byte(`{"email":"a@x.com","remember":true}`), &in, false)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", in.Email)
	})

	t.Run("wrong type", func(t *testing.T) {
		var in LoginInput
		_, err := decodeJSON([]byte(`{"email":42}`), &in, false)
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		require.Len(t, apiErr.Fields, 1)
		assert.Equal(t, "email", apiErr.Fields[0].Path)
	})
}

func TestFlexString(t *testing.T) {
	tests := map[string]string{
		`{"code":"123456"}`:   "123456",
		`{"code":123456}`:     "123456",
		`{"code":" 042 "}`:    "042",
		`{"code":null}`:       "",
		`{"email":"a@x.com"}`: "",
	}
	for raw, want := range tests {
		var in VerifyEmailInput
		_, err := decodeJSON([]byte(raw), &in, false)
		require.NoError(t, err, raw)
		assert.Equal(t, want, in.Code.String(), raw)
	}

	var in VerifyEmailInput
	_, err := decodeJSON([]byte(`{"code":true}`), &in, false)
	assert.Error(t, err)
}

func TestValidateSignup(t *testing.T) {
	valid := SignupInput{Name: "Alice", Email: "alice@example.com", Password: "Secret#123", ConfirmPassword: "Secret#123"}
	assert.Empty(t, validateStruct(valid, signupMessages))

	tests := []struct {
		name   string
		mutate func(*SignupInput)
		path   string
		msg    string
	}{
		{"missing name", func(in *SignupInput) { in.Name = "" }, "name", "Name is required"},
		{"long name", func(in *SignupInput) { in.Name = string(make([]rune, 51)) }, "name", "Name cannot exceed 50 characters"},
		{"bad email", func(in *SignupInput) { in.Email = "alice" }, "email", "Please enter a valid email address"},
		{"short password", func(in *SignupInput) { in.Password, in.ConfirmPassword = "S#1a", "S#1a" }, "password", "Password must be at least 8 characters"},
		{"no uppercase", func(in *SignupInput) { in.Password, in.ConfirmPassword = "secret#123", "secret#123" }, "password", "Must contain at least one uppercase letter (A-Z)"},
		{"no digit", func(in *SignupInput) { in.Password, in.ConfirmPassword = "Secret#abc", "Secret#abc" }, "password", "Must contain at least one number (0-9)"},
		{"no symbol", func(in *SignupInput) { in.Password, in.ConfirmPassword = "Secret1234", "Secret1234" }, "password", "Must contain at least one special character (e.g., !@#$%^&*)"},
		{"missing confirm", func(in *SignupInput) { in.ConfirmPassword = "" }, "confirmPassword", "Confirm Password is required"},
		{"mismatch", func(in *SignupInput) { in.ConfirmPassword = "Secret#124" }, "confirmPassword", "Passwords do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			fields := validateStruct(in, signupMessages)
			assert.Contains(t, fields, FieldError{Message: tt.msg, Path: tt.path})
		})
	}
}

func TestValidateReset(t *testing.T) {
	fields := validateStruct(ResetPasswordInput{
		Email:           "alice@example.com",
		NewPassword:     "Secret#123",
		ConfirmPassword: "Secret#999",
	}, resetMessages)
	assert.Equal(t, []FieldError{{Message: "Passwords do not match", Path: "confirmPassword"}}, fields)
}
