// Package ordernum generates human-readable order numbers. The number is
// unique by construction with overwhelming probability; the orders table
// still carries a unique index as the hard guarantee.
package ordernum

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Crockford-style alphabet: no I, L, O, U to keep numbers phone-friendly.
const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// New returns an order number like "KV-20260828-7F3K9Q".
func New(now time.Time) string {
	return fmt.Sprintf("KV-%s-%s", now.Format("20060102"), randomSuffix(6))
}

func randomSuffix(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	out := make([]byte, n)
	for i, c := range b {
		out[i] = alphabet[int(c)%len(alphabet)]
	}
	return string(out)
}
