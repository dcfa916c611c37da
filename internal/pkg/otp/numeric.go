package otp

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"strconv"
)

// ErrInvalidDigits is returned for a code width outside 4..18.
var ErrInvalidDigits = errors.New("otp: digits must be between 4 and 18")

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// Numeric generates fixed-width decimal codes without a leading zero.
type Numeric struct {
	low    *big.Int
	span   *big.Int
	random io.Reader
}

// NewNumeric returns a generator of codes with the given number of digits.
func NewNumeric(digits int) (*Numeric, error) {
	return newNumeric(digits, rand.Reader)
}

func newNumeric(digits int, random io.Reader) (*Numeric, error) {
	if digits < 4 || digits > 18 {
		return nil, ErrInvalidDigits
	}

	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits-1)), nil)
	high := new(big.Int).Mul(low, big.NewInt(10))

	return &Numeric{
		low:    low,
		span:   new(big.Int).Sub(high, low),
		random: random,
	}, nil
}

// Generate returns a code uniformly drawn from [10^(d-1), 10^d - 1].
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(n.random, n.span)
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(v.Add(v, n.low).Int64(), 10), nil
}
