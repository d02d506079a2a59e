// internal/app/system/otpcode/otpcode.go
package otpcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Length is the number of digits in a verification code.
const Length = 6

// space is 10^Length; codes are drawn uniformly from [0, space).
var space = big.NewInt(1_000_000)

// Generator produces verification codes. Services take one so tests can
// pin the codes they expect to see.
type Generator func() (string, error)

// New returns a Length-digit code drawn uniformly from 000000–999999.
// Leading zeros are kept.
func New() (string, error) {
	n, err := rand.Int(rand.Reader, space)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", Length, n.Int64()), nil
}

// Valid reports whether s has the shape of a code.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Fixed returns a Generator that hands out codes in order and then repeats
// the last one.
func Fixed(codes ...string) Generator {
	i := 0
	return func() (string, error) {
		if len(codes) == 0 {
			return New()
		}
		c := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return c, nil
	}
}
