package auth

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strconv"
)

const (
	otpMin          = 100000
	otpMax          = 999999
	resetTokenBytes = 32
)

// GenerateOTP は 100000〜999999 の6桁の認証コードを生成します。
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// GenerateResetToken は 32 バイトの乱数を16進文字列（64文字）で返します。
func GenerateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
