package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type userRow struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"size:50;not null"`
	Email    string `gorm:"size:100;not null;uniqueIndex"`
	Password string `gorm:"not null"`

	IsVerified                 bool `gorm:"not null;default:false"`
	VerificationToken          *string
	VerificationTokenExpiresAt *time.Time

	ResetPasswordToken     *string `gorm:"index"`
	ResetPasswordExpiresAt *time.Time

	LastLogin time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRow) TableName() string { return "users" }

// SQLStore は GORM (SQLite) をバックエンドとする Store 実装です。
// ローカル開発とテストで使用します。
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLite は SQLite データベースを開いてマイグレーションを実行します。
// path に ":memory:" を指定するとインメモリDBになります。
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// インメモリDBは接続ごとに別DBになるため1本に制限する
	sqlDB.SetMaxOpenConns(1)

	return NewSQLStore(db)
}

// NewSQLStore は既存の *gorm.DB から SQLStore を作成します。
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&userRow{}); err != nil {
		return nil, fmt.Errorf("migrate users: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Create(ctx context.Context, user *User) (*User, error) {
	row := toRow(user)
	row.ID = 0
	if row.LastLogin.IsZero() {
		row.LastLogin = time.Now().UTC()
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return row.toUser(), nil
}

func (s *SQLStore) FindByID(ctx context.Context, id string) (*User, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.first(ctx, "id = ?", n)
}

func (s *SQLStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *SQLStore) FindByResetToken(ctx context.Context, email, token string) (*User, error) {
	return s.first(ctx, "email = ? AND reset_password_token = ?", email, token)
}

func (s *SQLStore) Update(ctx context.Context, user *User) error {
	n, err := strconv.ParseUint(user.ID, 10, 64)
	if err != nil {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now().UTC()

	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", n).Updates(map[string]any{
		"name":                          user.Name,
		"email":                         user.Email,
		"password":                      user.Password,
		"is_verified":                   user.IsVerified,
		"verification_token":            user.VerificationToken,
		"verification_token_expires_at": user.VerificationTokenExpiresAt,
		"reset_password_token":          user.ResetPasswordToken,
		"reset_password_expires_at":     user.ResetPasswordExpiresAt,
		"last_login":                    user.LastLogin,
		"updated_at":                    user.UpdatedAt,
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("db error: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) first(ctx context.Context, query string, args ...any) (*User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where(query, args...).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return row.toUser(), nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toRow(u *User) *userRow {
	row := &userRow{
		Name:                       u.Name,
		Email:                      u.Email,
		Password:                   u.Password,
		IsVerified:                 u.IsVerified,
		VerificationToken:          u.VerificationToken,
		VerificationTokenExpiresAt: u.VerificationTokenExpiresAt,
		ResetPasswordToken:         u.ResetPasswordToken,
		ResetPasswordExpiresAt:     u.ResetPasswordExpiresAt,
		LastLogin:                  u.LastLogin,
		CreatedAt:                  u.CreatedAt,
		UpdatedAt:                  u.UpdatedAt,
	}
	if n, err := strconv.ParseUint(u.ID, 10, 64); err == nil {
		row.ID = uint(n)
	}
	return row
}

func (r *userRow) toUser() *User {
	return &User{
		ID:                         strconv.FormatUint(uint64(r.ID), 10),
		Name:                       r.Name,
		Email:                      r.Email,
		Password:                   r.Password,
		IsVerified:                 r.IsVerified,
		VerificationToken:          r.VerificationToken,
		VerificationTokenExpiresAt: r.VerificationTokenExpiresAt,
		ResetPasswordToken:         r.ResetPasswordToken,
		ResetPasswordExpiresAt:     r.ResetPasswordExpiresAt,
		LastLogin:                  r.LastLogin,
		CreatedAt:                  r.CreatedAt,
		UpdatedAt:                  r.UpdatedAt,
	}
}
