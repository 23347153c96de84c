// Package daily derives the shared "board of the day".
//
// Every player asking for the same date (UTC) and salt gets the same shuffle,
// so daily results are comparable on one leaderboard.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"time"
)

// DateLayout is the format of a date key.
const DateLayout = "2006-01-02"

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDateKey validates a YYYY-MM-DD key.
func ParseDateKey(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", err
	}
	return DateKey(t), nil
}

// Seed returns the PCG seed for a date key: the first 16 bytes of
// HMAC-SHA256(salt, date).
func Seed(date, salt string) (uint64, uint64) {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(date))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])
}

// Rand returns a fresh generator for the date's board.
func Rand(date, salt string) *rand.Rand {
	return rand.New(rand.NewPCG(Seed(date, salt)))
}
