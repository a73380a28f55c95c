// Package testutil provides shared test fixtures and utilities:
// deterministic seeding for randomized tests, profile and contact
// builders, and a key-value store with injectable failures.
package testutil

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"os"
	"testing"
)

// GetTestSeed returns a seed for deterministic testing.
// It checks NIRBHAYA_TEST_SEED first, otherwise generates a random seed.
// The seed is logged so failures can be reproduced.
func GetTestSeed(t *testing.T) int64 {
	t.Helper()

	if seedStr := os.Getenv("NIRBHAYA_TEST_SEED"); seedStr != "" {
		var seed int64
		if _, err := fmt.Sscanf(seedStr, "%d", &seed); err == nil {
			t.Logf("Using seed from NIRBHAYA_TEST_SEED: %d", seed)
			return seed
		}
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatalf("Failed to generate random seed: %v", err)
	}
	seed := n.Int64()
	t.Logf("Generated test seed: %d (set NIRBHAYA_TEST_SEED=%d to reproduce)", seed, seed)
	return seed
}

// NewRand returns a math/rand source seeded via GetTestSeed
func NewRand(t *testing.T) *mrand.Rand {
	t.Helper()
	return mrand.New(mrand.NewSource(GetTestSeed(t)))
}
