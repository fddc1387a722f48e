package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Order represents an accepted pizza order
type Order struct {
	ID          int
	Number      string
	FullName    string
	Size        Size
	Toppings    []string
	Status      Status
	ProcessedBy *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// NewOrder creates a received order from a submitted form, applying the
// server-side validation rules
func NewOrder(form OrderForm) (*Order, error) {
	if errs := ValidateOrderRequest(form); !errs.Valid() {
		return nil, &ValidationError{Fields: errs}
	}

	now := time.Now().UTC()
	toppings := make([]string, len(form.Toppings))
	copy(toppings, form.Toppings)

	return &Order{
		FullName:  strings.TrimSpace(form.FullName),
		Size:      form.Size,
		Toppings:  toppings,
		Status:    StatusReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Confirmation builds the customer-facing snapshot of the order
func (o *Order) Confirmation() Confirmation {
	return Confirmation{
		FullName:     o.FullName,
		Size:         o.Size,
		ToppingCount: len(o.Toppings),
		OrderNumber:  o.Number,
	}
}

// TransitionTo transitions the order to a new status
func (o *Order) TransitionTo(newStatus Status, processedBy string) error {
	if !o.CanTransitionTo(newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, o.Status, newStatus)
	}

	now := time.Now().UTC()
	o.Status = newStatus
	o.UpdatedAt = now

	if processedBy != "" {
		o.ProcessedBy = &processedBy
	}

	if newStatus == StatusReady {
		o.CompletedAt = &now
	}

	return nil
}

// CanTransitionTo reports whether newStatus directly follows the current one.
func (o *Order) CanTransitionTo(newStatus Status) bool {
	next, ok := o.Status.Next()
	return ok && next == newStatus
}

// Clone returns a deep copy of the order
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Toppings = append([]string(nil), o.Toppings...)
	if o.ProcessedBy != nil {
		by := *o.ProcessedBy
		c.ProcessedBy = &by
	}
	if o.CompletedAt != nil {
		at := *o.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// CookingTime returns the cooking time based on pizza size
func (o *Order) CookingTime() time.Duration {
	return o.Size.CookingTime()
}

// ValidationError carries every field that failed server-side validation.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[Field(k)]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrOrderNotFound           = errors.New("order not found")
)
