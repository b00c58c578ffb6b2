package auth

import "golang.org/x/crypto/bcrypt"

const (
	bcryptCost = 10
	// bcrypt が扱える入力の上限（バイト）
	bcryptMaxBytes = 72
)

// HashPassword は bcrypt ハッシュを返します。
// 72 バイトを超える部分は切り捨てます（マルチバイト文字の 64 文字も受け付けるため）。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword はハッシュと平文が一致するかを返します。HashPassword と同じく 72 バイトで切り捨てて比較します。
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)) == nil
}

func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}
