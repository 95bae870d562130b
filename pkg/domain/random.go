package domain

import "math/rand/v2"

// RandomSource is the randomness the pipeline depends on. *rand.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

type globalRandomSource struct{}

func (globalRandomSource) IntN(n int) int {
	return rand.IntN(n)
}

// NewRandomSource returns a source backed by the goroutine-safe global generator.
func NewRandomSource() RandomSource {
	return globalRandomSource{}
}
