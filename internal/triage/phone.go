package triage

import (
	"path/filepath"
	"strings"
)

// syntheticDigits is the number of random digits after the "+1" prefix.
const syntheticDigits = 10

// DigitSource yields random decimal digits.
type DigitSource interface {
	Digits(n int) string
}

// DerivePhone keeps the digits and '+' characters of the origin filename,
// ignoring the extension so "call.mp3" does not yield "3". A lone "+" is
// kept. When nothing is left it synthesizes "+1" followed by ten random digits.
func DerivePhone(originName string, src DigitSource) string {
	base := filepath.Base(originName)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	phone := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '+' {
			return r
		}
		return -1
	}, base)

	if phone != "" {
		return phone
	}
	return "+1" + src.Digits(syntheticDigits)
}
