package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSessionToken はセッショントークンの署名・期限・形式が不正なことを表します。
var ErrInvalidSessionToken = errors.New("invalid session token")

// Claims はセッショントークンのクレームです。
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// Signer は HS256 でセッショントークンを発行・検証します。
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner は Signer を作成します。
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Issue は userID を埋め込んだ ttl 有効のトークンを発行します。
func (s *Signer) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse はトークンを検証して userID を返します。
func (s *Signer) Parse(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return "", ErrInvalidSessionToken
	}
	return claims.UserID, nil
}
