// Package rndstr генерирует криптографически стойкие случайные строки
// из ограниченного алфавита.
package rndstr

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// UnambiguousChars — строчные буквы и цифры без визуально похожих символов (0/o, 1/l/i).
const UnambiguousChars = "23456789abcdefghjkmnpqrstuvwxyz"

// AlphanumericChars используется для API-токенов учётных записей.
const AlphanumericChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Secure возвращает строку длины length из символов chars.
func Secure(length int, chars string) (string, error) {
	const op = "rndstr.Secure"
	if length <= 0 {
		return "", fmt.Errorf("%s: length must be positive", op)
	}
	if chars == "" {
		return "", fmt.Errorf("%s: empty alphabet", op)
	}

	alphabet := []rune(chars)
	limit := big.NewInt(int64(len(alphabet)))
	out := make([]rune, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
