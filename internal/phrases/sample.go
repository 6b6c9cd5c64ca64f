// apps/go-server/internal/phrases/sample.go
//
// Sampling helpers over the loaded catalog.
//   - Random: cryptographically random selection for ordinary games.
//   - DailySet: deterministic selection from a seed, so every player sees
//     the same phrases on a given day (seed derived in internal/daily).

package phrases

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
)

// Random returns n distinct phrases sampled uniformly from the catalog
// using crypto/rand. If n exceeds the catalog size, the whole catalog is
// returned (shuffled).
func Random(n int) []string {
	pool := Catalog()
	if n > len(pool) {
		n = len(pool)
	}
	// Partial Fisher-Yates: only the first n positions need settling.
	for i := 0; i < n; i++ {
		jBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(pool)-i)))
		j := i + int(jBig.Int64())
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

// DailySet returns n distinct phrases chosen deterministically from the
// catalog for the given seed. Same seed, same catalog → same set in the
// same order.
func DailySet(seed int64, n int) []string {
	pool := Catalog()
	if n > len(pool) {
		n = len(pool)
	}
	rng := mrand.New(mrand.NewSource(seed))
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool[:n]
}
