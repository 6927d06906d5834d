package token

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	mathrand "math/rand/v2"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// EntropyBytes is the number of random bytes drawn per token, one per symbol.
const EntropyBytes = groups * groupSize

// Generator produces random tokens.
//
// Entropy comes from the secure source. When it fails the generator degrades to the
// fallback source instead of returning an error, and Secure reports false from then on.
type Generator struct {
	source   io.Reader
	fallback io.Reader
	degraded atomic.Bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithSource replaces the secure entropy source, crypto/rand by default.
func WithSource(r io.Reader) Option {
	return func(g *Generator) {
		g.source = r
	}
}

// WithFallback replaces the pseudo-random source used when the secure source fails.
func WithFallback(r io.Reader) Option {
	return func(g *Generator) {
		g.fallback = r
	}
}

// NewGenerator creates a Generator reading from crypto/rand unless overridden.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		source:   rand.Reader,
		fallback: pseudoReader{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a new token of the form JW-XXXX-XXXX-XXXX.
func (g *Generator) Generate() string {
	buf := make([]byte, EntropyBytes)

	if _, err := io.ReadFull(g.source, buf); err != nil {
		if !g.degraded.Swap(true) {
			log.Warn().Err(err).Msg("secure entropy source failed, falling back to pseudo-random tokens")
		}
		// the pseudo-random fallback cannot fail
		_, _ = io.ReadFull(g.fallback, buf)
	}

	return format(buf)
}

// Secure reports whether every token generated so far was drawn from the secure source.
func (g *Generator) Secure() bool {
	return !g.degraded.Load()
}

// pseudoReader fills buffers from the math/rand/v2 global generator.
type pseudoReader struct{}

func (pseudoReader) Read(p []byte) (int, error) {
	var word [8]byte
	for i := 0; i < len(p); i += len(word) {
		binary.LittleEndian.PutUint64(word[:], mathrand.Uint64())
		copy(p[i:], word[:])
	}
	return len(p), nil
}
