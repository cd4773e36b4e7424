package cart

import "errors"

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrEmptyItems   = errors.New("items array is required and must not be empty")
	// ErrCartCompleted guards the terminal state: a COMPLETED cart rejects
	// both updates and repeated checkouts.
	ErrCartCompleted = errors.New("cart is already completed")
	// ErrCartNotCheckoutable is the soft checkout failure. The handler
	// returns the cart with HTTP 200 and an error annotation instead of an
	// HTTP error, so the caller can inspect the unresolved issues.
	ErrCartNotCheckoutable = errors.New("cart has unresolved validation issues and cannot be checked out")
)
