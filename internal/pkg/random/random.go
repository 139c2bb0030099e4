package random

import (
	"crypto/rand"
	"fmt"
)

const (
	lowercaseChars = "abcdefghijklmnopqrstuvwxyz"
	uppercaseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	mixedChars     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// StringNumber 生成指定长度的随机数字字符串（可含前导零）。
func StringNumber(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid length")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = '0' + (buf[i] % 10)
	}
	return string(buf), nil
}

// LowercaseString 生成指定长度的随机小写字母字符串。
func LowercaseString(n int) (string, error) {
	return fromAlphabet(n, lowercaseChars)
}

// UppercaseString 生成指定长度的随机大写字母字符串。
func UppercaseString(n int) (string, error) {
	return fromAlphabet(n, uppercaseChars)
}

// String 生成指定长度的随机字母数字字符串。
func String(n int) (string, error) {
	return fromAlphabet(n, mixedChars)
}

func fromAlphabet(n int, alphabet string) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid length")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf), nil
}
