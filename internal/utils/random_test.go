package utils

import (
	"strings"
	"sync"
	"testing"
)

func TestRandomAlphanumericLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		length         int
		expectedLength int
	}{
		{
			name:           "zero_length",
			length:         0,
			expectedLength: 16,
		},
		{
			name:           "negative_length",
			length:         -1,
			expectedLength: 16,
		},
		{
			name:           "custom_length_16",
			length:         16,
			expectedLength: 16,
		},
		{
			name:           "custom_length_32",
			length:         32,
			expectedLength: 32,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := RandomAlphanumeric(tt.length)

			if len(result) != tt.expectedLength {
				t.Errorf("expected length %d, got %d", tt.expectedLength, len(result))
			}

			for _, ch := range result {
				if !strings.ContainsRune(alphanumericCharset, ch) {
					t.Errorf("invalid character %c in result %s", ch, result)
				}
			}
		})
	}
}

func TestRandomAlphanumericUniqueness(t *testing.T) {
	t.Parallel()

	const iterations = 1000
	seen := make(map[string]bool, iterations)

	for i := 0; i < iterations; i++ {
		str := RandomAlphanumeric(16)
		if seen[str] {
			t.Errorf("duplicate random string found: %s", str)
		}
		seen[str] = true
	}

	if len(seen) != iterations {
		t.Errorf("expected %d unique strings, got %d", iterations, len(seen))
	}
}

func TestRandomAlphanumericConcurrent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	results := make(chan string, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- RandomAlphanumeric(32)
		}()
	}

	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for str := range results {
		if seen[str] {
			t.Errorf("duplicate string in concurrent generation: %s", str)
		}
		seen[str] = true
	}
}

func BenchmarkRandomAlphanumeric(b *testing.B) {
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = RandomAlphanumeric(16)
	}
}
