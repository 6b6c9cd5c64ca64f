// apps/go-server/internal/daily/daily.go
//
// Date keying and deterministic phrase-set seeding for the daily round.
// Every player gets the same ten phrases on a given UTC day; the seed is
// HMAC(salt, YYYY-MM-DD) so the schedule is stable but not guessable
// without the server salt.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// SetSeed returns the deterministic seed for the date's phrase set, using
// HMAC(salt, YYYY-MM-DD) reduced to 63 bits (non-negative for rand sources).
func SetSeed(date time.Time, salt string) int64 {
	dk := DateKey(date)
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(dk))
	sum := h.Sum(nil)
	n := binary.BigEndian.Uint64(sum[:8])
	return int64(n >> 1)
}
