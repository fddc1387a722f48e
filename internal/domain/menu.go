package domain

import "time"

// Size is the pizza size code sent over the wire.
type Size string

const (
	SizeSmall  Size = "S"
	SizeMedium Size = "M"
	SizeLarge  Size = "L"
)

// Sizes lists the accepted size codes in menu order.
var Sizes = []Size{SizeSmall, SizeMedium, SizeLarge}

// Valid reports whether s is one of the menu size codes.
func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// Label returns the display word for the size, or the raw code when unknown.
func (s Size) Label() string {
	switch s {
	case SizeSmall:
		return "Small"
	case SizeMedium:
		return "Medium"
	case SizeLarge:
		return "Large"
	}
	return string(s)
}

// CookingTime returns how long the kitchen needs for a pizza of this size
func (s Size) CookingTime() time.Duration {
	switch s {
	case SizeSmall:
		return 6 * time.Second
	case SizeLarge:
		return 10 * time.Second
	default:
		return 8 * time.Second
	}
}

// Topping is an entry of the topping catalog.
type Topping struct {
	ID    string
	Label string
}

var toppingCatalog = []Topping{
	{ID: "1", Label: "Pepperoni"},
	{ID: "2", Label: "Green Peppers"},
	{ID: "3", Label: "Pineapple"},
	{ID: "4", Label: "Mushrooms"},
	{ID: "5", Label: "Ham"},
}

// ToppingCatalog returns the toppings offered on the order form, in display order.
func ToppingCatalog() []Topping {
	out := make([]Topping, len(toppingCatalog))
	copy(out, toppingCatalog)
	return out
}

// LookupTopping finds a catalog entry by its identifier.
func LookupTopping(id string) (Topping, bool) {
	for _, t := range toppingCatalog {
		if t.ID == id {
			return t, true
		}
	}
	return Topping{}, false
}
