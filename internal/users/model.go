// Package users はユーザーレコードの永続化を提供します。
package users

import (
	"errors"
	"time"
)

var (
	// ErrNotFound は該当するユーザーが存在しないことを表します。
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail はメールアドレスの一意制約違反を表します。
	ErrDuplicateEmail = errors.New("email already exists")
)

// User はユーザーレコードです。
// トークン系のフィールドは未発行のとき nil です。
type User struct {
	ID       string
	Name     string
	Email    string
	Password string // bcrypt ハッシュ

	IsVerified                 bool
	VerificationToken          *string
	VerificationTokenExpiresAt *time.Time

	ResetPasswordToken     *string
	ResetPasswordExpiresAt *time.Time

	LastLogin time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile はクライアントへ返すユーザー情報です（パスワード・トークンを含まない）。
type Profile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"isVerified"`
	LastLogin  time.Time `json:"lastLogin"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Summary はサインアップ直後に返す最小限のユーザー情報です。
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile はパスワードを除いたユーザー情報を返します。
func (u *User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// Summary はサインアップ応答用の要約を返します。
func (u *User) Summary() Summary {
	return Summary{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
