package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "105.00 EUR", formatAmount(10500, "EUR"))
	assert.Equal(t, "0.05 EUR", formatAmount(5, "EUR"))
	assert.Equal(t, "12.34 USD", formatAmount(1234, "USD"))
	assert.Equal(t, "-40.00 EUR", formatAmount(-4000, "EUR"))
}
