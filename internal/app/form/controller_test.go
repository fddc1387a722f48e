package form

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/domain"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClient struct {
	mu      sync.Mutex
	calls   []domain.OrderForm
	receipt *interfaces.SubmitReceipt
	err     error
	ctxErr  error

	started chan struct{}
	release chan struct{}
}

func (f *fakeClient) SubmitOrder(ctx context.Context, form domain.OrderForm) (*interfaces.SubmitReceipt, error) {
	f.mu.Lock()
	f.calls = append(f.calls, form.Clone())
	f.ctxErr = ctx.Err()
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.receipt, f.err
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *fakeRecorder) RecordSubmit(kind domain.OutcomeKind, cause string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, strings.TrimSuffix(kind.String()+"/"+cause, "/"))
}

func newController(t *testing.T, client *fakeClient, opts ...Option) *Controller {
	t.Helper()
	c := NewController(client, logger.NewNop(), opts...)
	t.Cleanup(c.Close)
	return c
}

func fill(t *testing.T, c *Controller, name, size string, toppings ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.SetField(ctx, domain.FieldFullName, name))
	require.NoError(t, c.SetField(ctx, domain.FieldSize, size))
	for _, id := range toppings {
		require.NoError(t, c.ToggleTopping(ctx, id, true))
	}
}

func TestController_InitialState(t *testing.T) {
	c := newController(t, &fakeClient{})

	st := c.State()
	assert.Equal(t, domain.NewOrderForm(), st.Form)
	assert.Empty(t, st.Errors)
	assert.False(t, st.CanSubmit())
	assert.Equal(t, domain.OutcomeIdle, st.Outcome.Kind)
}

func TestController_LiveValidation(t *testing.T) {
	ctx := context.Background()
	c := newController(t, &fakeClient{})

	require.NoError(t, c.SetField(ctx, domain.FieldFullName, "Al"))
	st := c.State()
	assert.Equal(t, domain.MsgFullNameMin, st.Errors[domain.FieldFullName])
	assert.Equal(t, domain.MsgSizeIncorrect, st.Errors[domain.FieldSize])
	assert.False(t, st.CanSubmit())

	require.NoError(t, c.SetField(ctx, domain.FieldFullName, strings.Repeat("x", 21)))
	assert.Equal(t, domain.MsgFullNameMax, c.State().Errors[domain.FieldFullName])

	require.NoError(t, c.SetField(ctx, domain.FieldFullName, "Alice"))
	require.NoError(t, c.SetField(ctx, domain.FieldSize, "M"))
	st = c.State()
	assert.Empty(t, st.Errors)
	assert.True(t, st.CanSubmit())
}

func TestController_UnknownInputsDoNotCorruptState(t *testing.T) {
	ctx := context.Background()
	c := newController(t, &fakeClient{})
	fill(t, c, "Alice", "M", "2")
	before := c.State()

	assert.ErrorIs(t, c.SetField(ctx, "crust", "thin"), domain.ErrUnknownField)
	assert.ErrorIs(t, c.SetField(ctx, domain.FieldToppings, "1"), domain.ErrUnknownField)
	assert.ErrorIs(t, c.ToggleTopping(ctx, "99", true), domain.ErrUnknownTopping)

	assert.Equal(t, before, c.State())
}

func TestController_ToppingToggleRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newController(t, &fakeClient{})
	fill(t, c, "Alice", "L", "1")
	before := c.State().Form

	require.NoError(t, c.ToggleTopping(ctx, "4", true))
	require.NoError(t, c.ToggleTopping(ctx, "4", true))
	assert.Equal(t, []string{"1", "4"}, c.State().Form.Toppings)

	require.NoError(t, c.ToggleTopping(ctx, "4", false))
	require.NoError(t, c.ToggleTopping(ctx, "4", false))
	assert.Equal(t, before, c.State().Form)
}

func TestController_SubmitBlockedByValidation(t *testing.T) {
	client := &fakeClient{}
	rec := &fakeRecorder{}
	c := newController(t, client, WithRecorder(rec))
	fill(t, c, "Al", "M")

	out, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeFailure, out.Kind)
	assert.Equal(t, domain.FieldErrors{domain.FieldFullName: domain.MsgFullNameMin}, out.Errors)
	assert.Equal(t, domain.MsgFullNameMin, c.State().Errors[domain.FieldFullName])
	assert.Zero(t, client.callCount(), "no request for an invalid form")
	assert.Equal(t, []string{"failure/validation"}, rec.events)
}

func TestController_SubmitCollectsAllErrors(t *testing.T) {
	c := newController(t, &fakeClient{})

	out, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.FieldErrors{
		domain.FieldFullName: domain.MsgFullNameMin,
		domain.FieldSize:     domain.MsgSizeIncorrect,
	}, out.Errors)
}

func TestController_SubmitSuccess(t *testing.T) {
	client := &fakeClient{receipt: &interfaces.SubmitReceipt{OrderNumber: "ORD_20261016_001"}}
	rec := &fakeRecorder{}
	c := newController(t, client, WithRecorder(rec))
	fill(t, c, "Alice", "M", "1", "3")

	out, err := c.Submit(context.Background())
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeSuccess, out.Kind)
	assert.Equal(t, domain.Confirmation{
		FullName:     "Alice",
		Size:         domain.SizeMedium,
		ToppingCount: 2,
		OrderNumber:  "ORD_20261016_001",
	}, out.Confirmation)
	assert.Equal(t,
		"Thank you for your order, Alice! Your Medium pizza with 2 toppings is on the way.",
		out.Confirmation.Message())

	require.Equal(t, 1, client.callCount())
	assert.Equal(t, domain.OrderForm{FullName: "Alice", Size: "M", Toppings: []string{"1", "3"}}, client.calls[0])

	st := c.State()
	if diff := cmp.Diff(domain.NewOrderForm(), st.Form, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("form not reset (-want +got):\n%s", diff)
	}
	assert.Empty(t, st.Errors)
	assert.False(t, st.CanSubmit())
	assert.Equal(t, out, st.Outcome, "snapshot retained after reset")
	assert.Equal(t, []string{"success"}, rec.events)
}

func TestController_OutcomeClearedByNextEdit(t *testing.T) {
	c := newController(t, &fakeClient{})
	fill(t, c, "Alice", "S")

	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSuccess, c.State().Outcome.Kind)

	require.NoError(t, c.SetField(context.Background(), domain.FieldFullName, "B"))
	assert.Equal(t, domain.OutcomeIdle, c.State().Outcome.Kind)
}

func TestController_SubmitServerRejection(t *testing.T) {
	client := &fakeClient{err: &interfaces.RejectionError{
		StatusCode: 422,
		Fields:     domain.FieldErrors{domain.FieldFullName: "taken"},
	}}
	rec := &fakeRecorder{}
	c := newController(t, client, WithRecorder(rec))
	fill(t, c, "Alice", "L", "5")
	submitted := c.State().Form

	out, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeFailure, out.Kind)
	assert.Equal(t, domain.FieldErrors{domain.FieldFullName: "taken"}, out.Errors)

	st := c.State()
	assert.Equal(t, domain.FieldErrors{domain.FieldFullName: "taken"}, st.Errors)
	assert.Equal(t, submitted, st.Form, "form kept for retry")
	assert.True(t, st.CanSubmit())
	assert.Equal(t, []string{"failure/rejected"}, rec.events)
}

func TestController_SubmitTransportFailure(t *testing.T) {
	client := &fakeClient{err: &interfaces.TransportError{Err: errors.New("connection refused")}}
	rec := &fakeRecorder{}
	c := newController(t, client, WithRecorder(rec))
	fill(t, c, "Alice", "M", "2")
	submitted := c.State().Form

	out, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeFailure, out.Kind)
	assert.Equal(t, domain.FieldErrors{
		domain.FieldGeneral: "order submission failed: connection refused",
	}, out.Errors)
	assert.Equal(t, submitted, c.State().Form)
	assert.Equal(t, []string{"failure/transport"}, rec.events)
}

func TestController_RejectionWithoutFieldsIsGeneral(t *testing.T) {
	client := &fakeClient{err: &interfaces.RejectionError{StatusCode: 409}}
	c := newController(t, client)
	fill(t, c, "Alice", "M")

	out, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.Errors, domain.FieldGeneral)
	assert.Len(t, out.Errors, 1)
}

func TestController_NoReentrantSubmit(t *testing.T) {
	client := &fakeClient{started: make(chan struct{}), release: make(chan struct{})}
	c := newController(t, client)
	fill(t, c, "Alice", "M")

	done := make(chan domain.SubmissionOutcome)
	go func() {
		out, _ := c.Submit(context.Background())
		done <- out
	}()
	<-client.started

	st := c.State()
	assert.True(t, st.Submitting)
	assert.False(t, st.CanSubmit())

	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(client.release)
	out := <-done
	assert.Equal(t, domain.OutcomeSuccess, out.Kind)
	assert.Equal(t, 1, client.callCount())
	assert.False(t, c.State().Submitting)
}

func TestController_SubmitSurvivesCallerCancellation(t *testing.T) {
	client := &fakeClient{}
	c := newController(t, client, WithValidator(&gatedValidator{}))
	fill(t, c, "Alice", "M")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := c.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, out.Kind)
	assert.NoError(t, client.ctxErr, "a sent order is not tied to the caller context")
}

func TestController_CloseDropsInFlightResult(t *testing.T) {
	client := &fakeClient{started: make(chan struct{}), release: make(chan struct{})}
	c := NewController(client, logger.NewNop())
	fill(t, c, "Alice", "M")
	before := c.State()

	errc := make(chan error)
	go func() {
		_, err := c.Submit(context.Background())
		errc <- err
	}()
	<-client.started

	c.Close()
	close(client.release)

	assert.ErrorIs(t, <-errc, ErrClosed)
	after := c.State()
	assert.Equal(t, before.Form, after.Form)
	assert.Equal(t, domain.OutcomeIdle, after.Outcome.Kind)

	assert.ErrorIs(t, c.SetField(context.Background(), domain.FieldFullName, "Bob"), ErrClosed)
}

// gatedValidator blocks validation of forms whose name is in slow until
// the matching gate is released.
type gatedValidator struct {
	slow    string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedValidator) Validate(ctx context.Context, f domain.OrderForm) (domain.FieldErrors, error) {
	if g.slow != "" && f.FullName == g.slow {
		close(g.entered)
		<-g.release
	}
	return domain.ValidateOrderForm(f), nil
}

func TestController_StaleValidationDiscarded(t *testing.T) {
	gate := &gatedValidator{
		slow:    "Slowpoke",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := newController(t, &fakeClient{}, WithValidator(gate))
	ctx := context.Background()
	require.NoError(t, c.SetField(ctx, domain.FieldSize, "M"))

	done := make(chan error)
	go func() { done <- c.SetField(ctx, domain.FieldFullName, "Slowpoke") }()
	<-gate.entered

	require.NoError(t, c.SetField(ctx, domain.FieldFullName, "Al"))
	assert.Equal(t, domain.MsgFullNameMin, c.State().Errors[domain.FieldFullName])

	close(gate.release)
	require.NoError(t, <-done)

	st := c.State()
	assert.Equal(t, "Al", st.Form.FullName)
	assert.Equal(t, domain.FieldErrors{domain.FieldFullName: domain.MsgFullNameMin}, st.Errors,
		"result computed for the older form must not win")
	assert.False(t, st.CanSubmit())
}

func TestController_ValidatorErrorSurfaces(t *testing.T) {
	c := newController(t, &fakeClient{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.SetField(ctx, domain.FieldFullName, "Alice")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Alice", c.State().Form.FullName, "edit is kept even if validation failed")

	_, err = c.Submit(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, c.State().Submitting)
}

func TestController_FailedRevalidationDisablesSubmit(t *testing.T) {
	c := newController(t, &fakeClient{})
	fill(t, c, "Alice", "M")
	require.True(t, c.State().CanSubmit())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.SetField(ctx, domain.FieldFullName, "Al"), context.Canceled)

	st := c.State()
	assert.Equal(t, "Al", st.Form.FullName)
	assert.False(t, st.CanSubmit())

	require.NoError(t, c.Revalidate(context.Background()))
	assert.Equal(t, domain.MsgFullNameMin, c.State().Errors[domain.FieldFullName])
	assert.False(t, c.State().CanSubmit())
}

func TestController_SubmitDisabledWhileRevalidating(t *testing.T) {
	gate := &gatedValidator{
		slow:    "Alicia",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := newController(t, &fakeClient{}, WithValidator(gate))
	fill(t, c, "Alice", "M")
	require.True(t, c.State().CanSubmit())

	done := make(chan error, 1)
	go func() { done <- c.SetField(context.Background(), domain.FieldFullName, "Alicia") }()
	<-gate.entered

	assert.False(t, c.State().CanSubmit(), "no verdict for the new form yet")

	close(gate.release)
	require.NoError(t, <-done)
	assert.True(t, c.State().CanSubmit())
}
