package interfaces

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/bloompizza/internal/domain"
)

// OrderClient submits a filled form to the order API.
//
// A nil error means the order was accepted. Failures are either a
// *TransportError (no usable response) or a *RejectionError (the API answered
// with per-field messages).
type OrderClient interface {
	SubmitOrder(ctx context.Context, form domain.OrderForm) (*SubmitReceipt, error)
}

// SubmitReceipt is the accepted-order body. Every field is optional.
type SubmitReceipt struct {
	OrderNumber string `json:"orderNumber,omitempty"`
	Status      string `json:"status,omitempty"`
	Message     string `json:"message,omitempty"`
}

// TransportError means the request produced no structured answer: the
// connection failed, or the response had no field error body.
type TransportError struct {
	StatusCode int // 0 when no response arrived
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("order submission failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("order submission failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectionError is a non-2xx answer carrying field to message pairs.
type RejectionError struct {
	StatusCode int
	Fields     domain.FieldErrors
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("order rejected with status %d: %d field error(s)", e.StatusCode, len(e.Fields))
}
