package users

import "context"

// Store はユーザーレコードの保存先です。
// 見つからない場合は ErrNotFound、メール重複時は ErrDuplicateEmail を返します。
type Store interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByResetToken はメールアドレスとリセットトークンの組でユーザーを検索します。
	FindByResetToken(ctx context.Context, email, token string) (*User, error)
	// Update は ID 以外の可変フィールドをすべて書き戻します。
	Update(ctx context.Context, user *User) error
	Close(ctx context.Context) error
}
