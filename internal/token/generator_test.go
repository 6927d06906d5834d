package token

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("entropy unavailable")
}

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator()

	for range 1000 {
		tok := g.Generate()
		require.Len(t, tok, Length)
		require.True(t, Validate(tok), "generated %q", tok)
	}

	require.True(t, g.Secure())
}

func TestGenerator_Deterministic(t *testing.T) {
	// bytes 0..11 map directly onto the first 12 alphabet symbols
	src := bytes.NewReader([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})
	g := NewGenerator(WithSource(src))

	require.Equal(t, "JW-ABCD-EFGH-IJKL", g.Generate())
	require.True(t, g.Secure())
}

func TestGenerator_ModuloMapping(t *testing.T) {
	// 36 -> A, 71 -> 9, 255 -> 255 % 36 = 3 -> D
	src := bytes.NewReader([]byte{36, 71, 255, 35, 0, 0, 0, 0, 0, 0, 0, 0})
	g := NewGenerator(WithSource(src))

	require.Equal(t, "JW-A9D9-AAAA-AAAA", g.Generate())
}

func TestGenerator_FallbackOnFailure(t *testing.T) {
	fallback := bytes.NewReader(bytes.Repeat([]byte{25}, EntropyBytes))
	g := NewGenerator(WithSource(failingReader{}), WithFallback(fallback))

	require.True(t, g.Secure())

	tok := g.Generate()
	require.Equal(t, "JW-ZZZZ-ZZZZ-ZZZZ", tok)
	require.False(t, g.Secure())
}

func TestGenerator_FallbackOnShortRead(t *testing.T) {
	g := NewGenerator(WithSource(bytes.NewReader([]byte{1, 2, 3})))

	tok := g.Generate()
	require.True(t, Validate(tok))
	require.False(t, g.Secure())
}

func TestGenerator_DefaultFallbackProducesValidTokens(t *testing.T) {
	g := NewGenerator(WithSource(failingReader{}))

	for range 100 {
		require.True(t, Validate(g.Generate()))
	}
	require.False(t, g.Secure())
}

func TestGenerator_Uniqueness(t *testing.T) {
	g := NewGenerator()
	seen := make(map[string]struct{}, 10000)

	for range 10000 {
		tok := g.Generate()
		_, dup := seen[tok]
		require.False(t, dup, "duplicate token %s", tok)
		seen[tok] = struct{}{}
	}
}

func TestGenerator_Concurrent(t *testing.T) {
	g := NewGenerator()

	var wg sync.WaitGroup
	results := make(chan string, 800)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				results <- g.Generate()
			}
		}()
	}
	wg.Wait()
	close(results)

	for tok := range results {
		require.True(t, Validate(tok))
	}
}
