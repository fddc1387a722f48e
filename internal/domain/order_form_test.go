package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderForm_WithFieldLeavesOthersUntouched(t *testing.T) {
	base := OrderForm{FullName: "Alice", Size: SizeSmall, Toppings: []string{"1"}}

	next, err := base.WithField(FieldSize, "L")
	require.NoError(t, err)
	assert.Equal(t, OrderForm{FullName: "Alice", Size: SizeLarge, Toppings: []string{"1"}}, next)
	assert.Equal(t, SizeSmall, base.Size, "base must not change")

	next, err = base.WithField(FieldFullName, "Bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob", next.FullName)
	assert.Equal(t, SizeSmall, next.Size)
}

func TestOrderForm_WithFieldUnknown(t *testing.T) {
	base := OrderForm{FullName: "Alice", Size: SizeSmall, Toppings: []string{}}

	for _, name := range []Field{FieldToppings, FieldGeneral, "crust"} {
		next, err := base.WithField(name, "thin")
		require.ErrorIs(t, err, ErrUnknownField)
		assert.Equal(t, base, next)
	}
}

func TestOrderForm_ToppingRoundTrip(t *testing.T) {
	for _, start := range [][]string{{}, {"2"}, {"1", "4", "5"}} {
		base := OrderForm{FullName: "Alice", Toppings: start}
		for _, top := range ToppingCatalog() {
			if base.HasTopping(top.ID) {
				continue
			}
			on, err := base.WithTopping(top.ID, true)
			require.NoError(t, err)
			assert.True(t, on.HasTopping(top.ID))

			off, err := on.WithTopping(top.ID, false)
			require.NoError(t, err)
			if diff := cmp.Diff(base, off, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("round trip of %s from %v (-want +got):\n%s", top.ID, start, diff)
			}
		}
	}
}

func TestOrderForm_WithToppingIdempotent(t *testing.T) {
	f := NewOrderForm()
	f, _ = f.WithTopping("3", true)
	f, _ = f.WithTopping("3", true)
	assert.Equal(t, []string{"3"}, f.Toppings)

	f, _ = f.WithTopping("1", false)
	assert.Equal(t, []string{"3"}, f.Toppings)
}

func TestOrderForm_WithToppingKeepsCatalogOrder(t *testing.T) {
	f := NewOrderForm()
	for _, id := range []string{"5", "1", "3"} {
		f, _ = f.WithTopping(id, true)
	}
	assert.Equal(t, []string{"1", "3", "5"}, f.Toppings)
}

func TestOrderForm_WithToppingUnknown(t *testing.T) {
	f := OrderForm{Toppings: []string{"1"}}
	next, err := f.WithTopping("Pepperoni", true)
	require.ErrorIs(t, err, ErrUnknownTopping)
	assert.Equal(t, f, next)
}

func TestToppingCatalog_IsACopy(t *testing.T) {
	c := ToppingCatalog()
	require.Len(t, c, 5)
	c[0].Label = "Anchovies"

	top, ok := LookupTopping("1")
	require.True(t, ok)
	assert.Equal(t, "Pepperoni", top.Label)
}
