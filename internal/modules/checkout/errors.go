package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyOrder       = errors.New("order has no items")
	ErrUnknownVariant   = errors.New("unknown product variant")
	ErrCurrencyMismatch = errors.New("order items use mixed currencies")
)

type OutOfStockItem struct {
	VariantID string
	Requested int
	Available int
}

type OutOfStockError struct {
	Items []OutOfStockItem
}

func (e *OutOfStockError) Error() string {
	if len(e.Items) == 0 {
		return "out of stock"
	}
	it := e.Items[0]
	return fmt.Sprintf("out of stock: variant=%s requested=%d available=%d", it.VariantID, it.Requested, it.Available)
}
