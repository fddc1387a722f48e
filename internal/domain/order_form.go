package domain

import (
	"errors"
	"fmt"
)

// Field names a key of the order form and of its error map.
type Field string

const (
	FieldFullName Field = "fullName"
	FieldSize     Field = "size"
	FieldToppings Field = "toppings"
	// FieldGeneral carries failures that belong to no single input.
	FieldGeneral Field = "general"
)

var (
	ErrUnknownField   = errors.New("unknown form field")
	ErrUnknownTopping = errors.New("unknown topping")
)

// OrderForm is the value a customer fills in. It is treated as immutable:
// WithField and WithTopping return an updated copy.
type OrderForm struct {
	FullName string   `json:"fullName"`
	Size     Size     `json:"size"`
	Toppings []string `json:"toppings"`
}

// NewOrderForm returns the empty form shown when the order page opens.
func NewOrderForm() OrderForm {
	return OrderForm{Toppings: []string{}}
}

// WithField returns a copy of f with one scalar field replaced.
func (f OrderForm) WithField(name Field, value string) (OrderForm, error) {
	next := f.Clone()
	switch name {
	case FieldFullName:
		next.FullName = value
	case FieldSize:
		next.Size = Size(value)
	default:
		return f, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return next, nil
}

// WithTopping returns a copy of f with the topping added or removed.
// Toppings keep catalog order, so equal selections compare equal.
func (f OrderForm) WithTopping(id string, included bool) (OrderForm, error) {
	if _, ok := LookupTopping(id); !ok {
		return f, fmt.Errorf("%w: %q", ErrUnknownTopping, id)
	}

	selected := make(map[string]bool, len(f.Toppings)+1)
	for _, t := range f.Toppings {
		selected[t] = true
	}
	selected[id] = included

	next := f.Clone()
	next.Toppings = make([]string, 0, len(selected))
	for _, t := range toppingCatalog {
		if selected[t.ID] {
			next.Toppings = append(next.Toppings, t.ID)
		}
	}
	return next, nil
}

// HasTopping reports whether the topping is selected.
func (f OrderForm) HasTopping(id string) bool {
	for _, t := range f.Toppings {
		if t == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (f OrderForm) Clone() OrderForm {
	out := f
	out.Toppings = make([]string, len(f.Toppings))
	copy(out.Toppings, f.Toppings)
	return out
}
