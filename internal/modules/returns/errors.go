package returns

import "errors"

var (
	ErrNotFound           = errors.New("return not found")
	ErrOrderNotReturnable = errors.New("order is not in a returnable state")
	ErrItemNotInOrder     = errors.New("order item does not belong to the order")
	ErrBadQuantity        = errors.New("return quantity must be between 1 and the ordered quantity")
	ErrAlreadyOpen        = errors.New("an open return already exists for this item")
	ErrNotDecidable       = errors.New("return is not awaiting a decision")
)
