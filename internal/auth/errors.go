// Package auth はサインアップ・メール認証・ログイン・パスワードリセットと
// セッション検証を提供します。
package auth

import (
	"fmt"
	"net/http"
)

// Kind はエラーの分類です。
type Kind string

const (
	KindValidation      Kind = "VALIDATION_ERROR"
	KindDuplicateEmail  Kind = "DUPLICATE_EMAIL"
	KindNotFound        Kind = "NOT_FOUND"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindUnverified      Kind = "UNVERIFIED"
	KindExpired         Kind = "EXPIRED"
	KindInvalidToken    Kind = "INVALID_TOKEN"
	KindInvalidCode     Kind = "INVALID_CODE"
	KindNoSession       Kind = "NO_SESSION"
	KindInvalidSession  Kind = "INVALID_SESSION"
	KindMissingEmail    Kind = "MISSING_EMAIL" // verify-email でメールアドレスが無い（403）
	KindBadRequest      Kind = "BAD_REQUEST"
	KindInternal        Kind = "INTERNAL_ERROR"
)

// FieldError は入力検証で見つかった1件の問題です。
type FieldError struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

// Error は HTTP レスポンスに変換できるエラーです。
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Message == "" && len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Fields[0].Path, e.Fields[0].Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

func validationError(message string, fields []FieldError) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: message, Fields: fields}
}

func badRequest(message string) *Error {
	return newError(KindBadRequest, http.StatusBadRequest, message)
}

func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: "Internal server error", Err: err}
}
