package domain

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	MsgFullNameMin       = "full name must be at least 3 characters"
	MsgFullNameMax       = "full name must be at most 20 characters"
	MsgSizeIncorrect     = "size must be S or M or L"
	MsgToppingNotExist   = "topping does not exist"
	MsgToppingsNotUnique = "toppings require unique IDs"

	fullNameMinLen = 3
	fullNameMaxLen = 20
)

// Verdict is the outcome of a single field check: Ok, or Invalid with a reason.
type Verdict struct {
	reason string
}

func Ok() Verdict { return Verdict{} }

func Invalid(reason string) Verdict { return Verdict{reason: reason} }

func (v Verdict) OK() bool { return v.reason == "" }

func (v Verdict) Reason() string { return v.reason }

// FieldErrors maps a form field to the message shown next to it.
// An empty map means the form is valid.
type FieldErrors map[Field]string

// Valid reports whether no field failed.
func (e FieldErrors) Valid() bool { return len(e) == 0 }

func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Unplaced returns, sorted, the keys that name no form input and are not the
// general entry. A server rejection may carry such keys.
func (e FieldErrors) Unplaced() []Field {
	var out []Field
	for f := range e {
		switch f {
		case FieldFullName, FieldSize, FieldToppings, FieldGeneral:
		default:
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CheckFullName applies the length rules to the trimmed name.
func CheckFullName(name string) Verdict {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	switch {
	case n < fullNameMinLen:
		return Invalid(MsgFullNameMin)
	case n > fullNameMaxLen:
		return Invalid(MsgFullNameMax)
	}
	return Ok()
}

func CheckSize(size Size) Verdict {
	if !size.Valid() {
		return Invalid(MsgSizeIncorrect)
	}
	return Ok()
}

// CheckToppings enforces catalog membership and set semantics. The form only
// offers catalog toppings, so this matters for payloads built elsewhere.
func CheckToppings(ids []string) Verdict {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := LookupTopping(id); !ok {
			return Invalid(MsgToppingNotExist)
		}
		if _, dup := seen[id]; dup {
			return Invalid(MsgToppingsNotUnique)
		}
		seen[id] = struct{}{}
	}
	return Ok()
}

// ValidateOrderForm runs every field rule of the order form schema and
// collects all failures instead of stopping at the first one.
func ValidateOrderForm(f OrderForm) FieldErrors {
	errs := FieldErrors{}
	collect(errs, FieldFullName, CheckFullName(f.FullName))
	collect(errs, FieldSize, CheckSize(f.Size))
	return errs
}

// ValidateOrderRequest is the server-side rule set: the form schema plus
// topping membership.
func ValidateOrderRequest(f OrderForm) FieldErrors {
	errs := ValidateOrderForm(f)
	collect(errs, FieldToppings, CheckToppings(f.Toppings))
	return errs
}

func collect(errs FieldErrors, field Field, v Verdict) {
	if !v.OK() {
		errs[field] = v.Reason()
	}
}

// SchemaValidator validates order forms against the fixed schema.
type SchemaValidator struct{}

func (SchemaValidator) Validate(ctx context.Context, f OrderForm) (FieldErrors, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ValidateOrderForm(f), nil
}
