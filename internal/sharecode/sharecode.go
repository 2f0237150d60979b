// Package sharecode generates the 4-digit codes users share to find a group.
package sharecode

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	codeDigits = 4

	// Space is the number of distinct codes.
	Space = 10000

	// maxAttempts bounds random sampling; it equals the code space.
	maxAttempts = Space
)

// Generator draws codes not present in a caller-supplied set.
type Generator struct {
	intn func(n int) int
	nowF func() time.Time
}

// New returns a Generator backed by math/rand.
func New() *Generator {
	return &Generator{intn: rand.Intn, nowF: time.Now}
}

// NewWithSource returns a Generator with injected randomness and clock.
func NewWithSource(intn func(n int) int, now func() time.Time) *Generator {
	return &Generator{intn: intn, nowF: now}
}

// Generate returns a zero-padded 4-digit code that is not in existing.
//
// Up to Space random candidates are drawn. If all of them collide, the remaining space is
// swept from a random offset, so a free code is always found when one exists. When the set
// is saturated the code falls back to the last four digits of the current Unix millisecond
// time, which may collide.
func (g *Generator) Generate(existing map[string]struct{}) string {
	for i := 0; i < maxAttempts; i++ {
		code := format(g.intn(Space))
		if _, taken := existing[code]; !taken {
			return code
		}
	}

	start := g.intn(Space)
	for i := 0; i < Space; i++ {
		code := format((start + i) % Space)
		if _, taken := existing[code]; !taken {
			return code
		}
	}

	return format(int(g.nowF().UnixMilli() % Space))
}

func format(n int) string {
	return fmt.Sprintf("%0*d", codeDigits, n)
}
