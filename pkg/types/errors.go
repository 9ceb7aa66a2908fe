package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOrder is returned when an order request fails local validation.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrLiveTradingDisabled is returned by the live order path.
	ErrLiveTradingDisabled = errors.New("live trading is not implemented; set PAPER_TRADING=true")
)

// OrderError represents a failed leg submission.
type OrderError struct {
	Code    string  // internal error code
	Message string  // human-readable error message
	Outcome Outcome // YES or NO
	Side    Side
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s %s order failed: %s (%s): %v", e.Side, e.Outcome, e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("%s %s order failed: %s (%s)", e.Side, e.Outcome, e.Message, e.Code)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// Leg failure codes.
const (
	ErrCodeSubmit   = "ORDER_SUBMIT_FAILED"
	ErrCodeRejected = "ORDER_REJECTED"
	ErrCodeRedeem   = "REDEEM_FAILED"
)
