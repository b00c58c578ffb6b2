package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SignupInput は POST /signup の入力です。未知のフィールドは拒否します。
type SignupInput struct {
	Name            string `json:"name" validate:"required,max=50"`
	Email           string `json:"email" validate:"required,email,min=5,max=100"`
	Password        string `json:"password" validate:"min=8,max=64,hasupper,hasdigit,hassymbol"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// VerifyEmailInput は POST /verify-email の入力です。
type VerifyEmailInput struct {
	Code  FlexString `json:"code"`
	Email string     `json:"email"`
}

// LoginInput は POST /login の入力です。
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordInput は POST /forgot-password の入力です。
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordInput は PUT /reset-password の入力です。トークンはボディからのみ受け取ります。
type ResetPasswordInput struct {
	Token           FlexString `json:"token" validate:"-"`
	Email           string     `json:"email" validate:"required,email"`
	NewPassword     string     `json:"newPassword" validate:"min=8,max=64,hasupper,hasdigit,hassymbol"`
	ConfirmPassword string     `json:"confirmPassword" validate:"eqfield=NewPassword"`
}

// FlexString は JSON の文字列・数値のどちらでも受け付ける文字列です。
// 認証コードが数値で送られてくるクライアントに対応します。
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, received %s", data)
		}
		*s = FlexString(n.String())
		return nil
	}
}

func (s FlexString) String() string {
	return strings.TrimSpace(string(s))
}

// decodeJSON はボディを dst にデコードします。
// ボディが空、または空オブジェクトの場合は empty=true を返します。
func decodeJSON(raw []byte, dst any, strict bool) (empty bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false, badRequest("Request body must be a JSON object")
	}
	if len(fields) == 0 {
		return true, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		return false, decodeError(err)
	}
	return false, nil
}

func decodeError(err error) *Error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return validationError("", []FieldError{{
			Message: fmt.Sprintf("Expected %s, received %s", typeErr.Type, typeErr.Value),
			Path:    typeErr.Field,
		}})
	}
	if name, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return validationError("", []FieldError{{
			Message: fmt.Sprintf("Unrecognized key(s) in object: '%s'", strings.Trim(name, `"`)),
		}})
	}
	return validationError("", []FieldError{{Message: err.Error()}})
}
