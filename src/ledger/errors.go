package ledger

import "errors"

// Rejection causes. Every rejected order leaves the ledger untouched.
var (
	ErrInvalidSide          = errors.New("side must be buy or sell")
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrInvalidPrice         = errors.New("price must be greater than zero")
	ErrUnknownInstrument    = errors.New("unknown instrument")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)

// Reason returns a stable machine readable code for a rejection, or
// "internal" when err is not one of the ledger errors.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSide):
		return "invalid_side"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, ErrUnknownInstrument):
		return "unknown_instrument"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInsufficientHoldings):
		return "insufficient_holdings"
	default:
		return "internal"
	}
}

// IsRejection reports whether err is a precondition failure rather than
// an internal fault.
func IsRejection(err error) bool {
	r := Reason(err)
	return r != "" && r != "internal"
}
