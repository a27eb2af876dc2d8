package orders

import "errors"

var (
	ErrNotFound      = errors.New("order not found")
	ErrNotActionable = errors.New("order not actionable")
)
