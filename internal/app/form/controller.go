// Package form holds the order form controller: the state machine behind both
// the web order page and the terminal order prompt.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/domain"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

var (
	ErrSubmitInFlight = errors.New("an order submission is already in flight")
	ErrClosed         = errors.New("order form is closed")
)

// Failure causes reported to an OutcomeRecorder.
const (
	CauseValidation = "validation"
	CauseTransport  = "transport"
	CauseRejected   = "rejected"
)

// OutcomeRecorder observes finished submissions.
type OutcomeRecorder interface {
	RecordSubmit(kind domain.OutcomeKind, cause string)
}

// State is a point-in-time view of a controller for rendering.
type State struct {
	Form   domain.OrderForm
	Errors domain.FieldErrors
	// Valid is true when the current form passed validation with no errors.
	Valid bool
	// Submitting is true while a submission awaits the order API.
	Submitting bool
	Outcome    domain.SubmissionOutcome
}

// CanSubmit reports whether the submit control should be enabled.
func (s State) CanSubmit() bool {
	return s.Valid && !s.Submitting
}

// Controller owns one order form instance.
//
// Every mutation bumps the form revision. A validation pass records the
// revision it started from and its result is dropped when the form moved on
// in the meantime. At most one submission runs at a time.
type Controller struct {
	client    interfaces.OrderClient
	validator interfaces.FormValidator
	logger    logger.Logger
	recorder  OutcomeRecorder

	mu         sync.Mutex
	form       domain.OrderForm
	errors     domain.FieldErrors
	valid      bool
	outcome    domain.SubmissionOutcome
	revision   uint64
	submitting bool
	closed     bool
}

type Option func(*Controller)

// WithValidator replaces the schema validator.
func WithValidator(v interfaces.FormValidator) Option {
	return func(c *Controller) { c.validator = v }
}

func WithRecorder(r OutcomeRecorder) Option {
	return func(c *Controller) { c.recorder = r }
}

func NewController(client interfaces.OrderClient, logger logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		client:    client,
		validator: domain.SchemaValidator{},
		logger:    logger,
		form:      domain.NewOrderForm(),
		errors:    domain.FieldErrors{},
		outcome:   domain.IdleOutcome(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetField replaces a scalar field (fullName or size) and re-validates.
// An unknown field name leaves the form untouched.
func (c *Controller) SetField(ctx context.Context, name domain.Field, value string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	next, err := c.form.WithField(name, value)
	if err != nil {
		c.mu.Unlock()
		c.logger.Error("form_field_rejected", "Ignored change of unknown field", "", map[string]interface{}{
			"field": string(name),
		}, err)
		return err
	}
	c.applyEditLocked(next)
	c.mu.Unlock()

	return c.Revalidate(ctx)
}

// ToggleTopping adds or removes a catalog topping and re-validates.
func (c *Controller) ToggleTopping(ctx context.Context, toppingID string, included bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	next, err := c.form.WithTopping(toppingID, included)
	if err != nil {
		c.mu.Unlock()
		c.logger.Error("form_topping_rejected", "Ignored unknown topping", "", map[string]interface{}{
			"topping_id": toppingID,
		}, err)
		return err
	}
	c.applyEditLocked(next)
	c.mu.Unlock()

	return c.Revalidate(ctx)
}

// applyEditLocked commits an edit. Submit stays disabled until the
// validation pass for the new revision lands.
func (c *Controller) applyEditLocked(next domain.OrderForm) {
	c.form = next
	c.valid = false
	c.revision++
	c.outcome = domain.IdleOutcome()
}

// Revalidate validates the current form. The result is applied only if no
// edit happened while the validator ran.
func (c *Controller) Revalidate(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	snapshot := c.form.Clone()
	rev := c.revision
	c.mu.Unlock()

	errs, err := c.validator.Validate(ctx, snapshot)
	if err != nil {
		c.mu.Lock()
		if rev == c.revision {
			c.valid = false
		}
		c.mu.Unlock()
		return fmt.Errorf("validate order form: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || rev != c.revision {
		return nil
	}
	c.errors = errs.Clone()
	c.valid = errs.Valid()
	return nil
}

// Submit validates the whole form and, when valid, sends it to the order API.
//
// Validation failures, transport errors and server rejections all end in the
// returned outcome; the error result is reserved for misuse (a second submit
// in flight, a closed form) and validator failures.
func (c *Controller) Submit(ctx context.Context) (domain.SubmissionOutcome, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.IdleOutcome(), ErrClosed
	}
	if c.submitting {
		c.mu.Unlock()
		return domain.IdleOutcome(), ErrSubmitInFlight
	}
	c.submitting = true
	snapshot := c.form.Clone()
	rev := c.revision
	c.mu.Unlock()

	errs, err := c.validator.Validate(ctx, snapshot)
	if err != nil {
		c.mu.Lock()
		c.submitting = false
		out := c.outcome
		c.mu.Unlock()
		return out, fmt.Errorf("validate order form: %w", err)
	}

	if !errs.Valid() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.submitting = false
		if c.closed {
			return domain.IdleOutcome(), ErrClosed
		}
		if rev == c.revision {
			c.errors = errs.Clone()
			c.valid = false
		}
		c.outcome = domain.FailureOutcome(errs)
		c.record(domain.OutcomeFailure, CauseValidation)
		return c.outcome, nil
	}

	// A sent order cannot be recalled, so the call is not tied to the
	// caller's cancellation. The client enforces its own timeout.
	receipt, sendErr := c.client.SubmitOrder(context.WithoutCancel(ctx), snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if c.closed {
		return domain.IdleOutcome(), ErrClosed
	}

	if sendErr == nil {
		conf := domain.NewConfirmation(snapshot)
		if receipt != nil {
			conf.OrderNumber = receipt.OrderNumber
		}
		c.outcome = domain.SuccessOutcome(conf)
		c.form = domain.NewOrderForm()
		c.revision++
		c.errors = domain.FieldErrors{}
		c.valid = false
		c.record(domain.OutcomeSuccess, "")
		c.logger.Info("order_submitted", "Order accepted by the order API", "", map[string]interface{}{
			"order_number": conf.OrderNumber,
			"size":         string(conf.Size),
			"toppings":     conf.ToppingCount,
		})
		return c.outcome, nil
	}

	fields, cause := failureFields(sendErr)
	c.outcome = domain.FailureOutcome(fields)
	if rev == c.revision {
		c.errors = fields.Clone()
	}
	c.record(domain.OutcomeFailure, cause)
	c.logger.Error("order_submit_failed", "Order submission failed", "", map[string]interface{}{
		"cause": cause,
	}, sendErr)
	return c.outcome, nil
}

// failureFields maps a client failure onto displayable field errors: a
// server rejection keeps its fields as-is, anything else becomes a general
// message.
func failureFields(err error) (domain.FieldErrors, string) {
	var rej *interfaces.RejectionError
	if errors.As(err, &rej) && len(rej.Fields) > 0 {
		return rej.Fields.Clone(), CauseRejected
	}
	return domain.FieldErrors{domain.FieldGeneral: err.Error()}, CauseTransport
}

func (c *Controller) record(kind domain.OutcomeKind, cause string) {
	if c.recorder != nil {
		c.recorder.RecordSubmit(kind, cause)
	}
}

// State returns a copy of the controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.outcome
	if out.Errors != nil {
		out.Errors = out.Errors.Clone()
	}
	return State{
		Form:       c.form.Clone(),
		Errors:     c.errors.Clone(),
		Valid:      c.valid,
		Submitting: c.submitting,
		Outcome:    out,
	}
}

// Close tears the form down. A submission still in flight completes on the
// wire but its result is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
