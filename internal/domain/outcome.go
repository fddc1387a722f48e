package domain

import "fmt"

// Confirmation is a snapshot of a submitted form, kept for the thank-you
// message after the live form has been reset.
type Confirmation struct {
	FullName     string
	Size         Size
	ToppingCount int
	// OrderNumber is filled when the order API returned one.
	OrderNumber string
}

// NewConfirmation snapshots the values of a submitted form.
func NewConfirmation(f OrderForm) Confirmation {
	return Confirmation{
		FullName:     f.FullName,
		Size:         f.Size,
		ToppingCount: len(f.Toppings),
	}
}

// Message renders the text shown to the customer after a successful order.
func (c Confirmation) Message() string {
	return fmt.Sprintf("Thank you for your order, %s! Your %s pizza with %s is on the way.",
		c.FullName, c.Size.Label(), toppingPhrase(c.ToppingCount))
}

func toppingPhrase(n int) string {
	switch n {
	case 0:
		return "no toppings"
	case 1:
		return "1 topping"
	}
	return fmt.Sprintf("%d toppings", n)
}

type OutcomeKind int

const (
	OutcomeIdle OutcomeKind = iota
	OutcomeSuccess
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	}
	return "idle"
}

// SubmissionOutcome is Idle, Success(Confirmation) or Failure(Errors).
type SubmissionOutcome struct {
	Kind         OutcomeKind
	Confirmation Confirmation
	Errors       FieldErrors
}

func IdleOutcome() SubmissionOutcome { return SubmissionOutcome{Kind: OutcomeIdle} }

func SuccessOutcome(c Confirmation) SubmissionOutcome {
	return SubmissionOutcome{Kind: OutcomeSuccess, Confirmation: c}
}

func FailureOutcome(errs FieldErrors) SubmissionOutcome {
	return SubmissionOutcome{Kind: OutcomeFailure, Errors: errs.Clone()}
}
