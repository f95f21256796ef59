package lesson

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const codeAlphabet = "0123456789"

// ErrCodeSpaceExhausted is returned when no free code could be found after
// the configured number of attempts. Only reachable when nearly every
// representable code is held by an active lesson.
var ErrCodeSpaceExhausted = errors.New("lesson code space exhausted")

// CodeGenerator mints the short digit codes students type to check in. A
// code only has to be unique among currently active lessons, so candidates
// are re-rolled against that set and codes of terminated lessons are free
// to come around again.
type CodeGenerator struct {
	length      int
	maxAttempts int
}

// NewCodeGenerator creates a generator. Non-positive arguments fall back to
// 6 digits and 20 attempts.
func NewCodeGenerator(length, maxAttempts int) *CodeGenerator {
	if length <= 0 {
		length = 6
	}
	if maxAttempts <= 0 {
		maxAttempts = 20
	}
	return &CodeGenerator{length: length, maxAttempts: maxAttempts}
}

// Generate returns a code for which taken reports false. A nil taken
// accepts the first candidate.
func (g *CodeGenerator) Generate(taken func(code string) bool) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := g.roll()
		if err != nil {
			return "", err
		}
		if taken == nil || !taken(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func (g *CodeGenerator) roll() (string, error) {
	buf := make([]byte, g.length)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
