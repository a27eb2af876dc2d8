package ordernum

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Format(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	n := New(now)
	assert.Regexp(t, regexp.MustCompile(`^KV-20260828-[0-9A-HJKMNP-TV-Z]{6}$`), n)
}

func TestNew_NoEasyCollisions(t *testing.T) {
	seen := map[string]bool{}
	now := time.Now()
	for i := 0; i < 1000; i++ {
		n := New(now)
		assert.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
}
