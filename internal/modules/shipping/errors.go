package shipping

import "errors"

var (
	ErrNotFound      = errors.New("shipment not found")
	ErrNotActionable = errors.New("shipment not actionable")
)
