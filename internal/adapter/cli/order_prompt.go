package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/YelzhanWeb/bloompizza/internal/app/form"
	"github.com/YelzhanWeb/bloompizza/internal/domain"
)

// ErrNotPlaced is returned when the user gives up after a failed submission.
var ErrNotPlaced = errors.New("cli: order was not placed")

// fieldOrder is the order failures are listed in.
var fieldOrder = []domain.Field{domain.FieldGeneral, domain.FieldFullName, domain.FieldSize, domain.FieldToppings}

// OrderPrompt walks a customer through the order form one question at a
// time. Answers go through the controller exactly like edits on the web page.
type OrderPrompt struct {
	ctrl   *form.Controller
	driver Driver
}

func NewOrderPrompt(ctrl *form.Controller, driver Driver) *OrderPrompt {
	return &OrderPrompt{ctrl: ctrl, driver: driver}
}

// Run asks for the form, submits it and reports the outcome. After a failed
// submission the previous answers are offered as defaults for another try.
func (p *OrderPrompt) Run(ctx context.Context) error {
	for {
		if err := p.fill(ctx); err != nil {
			return err
		}

		outcome, err := p.ctrl.Submit(ctx)
		if err != nil {
			return fmt.Errorf("submit order: %w", err)
		}

		if outcome.Kind == domain.OutcomeSuccess {
			msg := outcome.Confirmation.Message()
			if n := outcome.Confirmation.OrderNumber; n != "" {
				msg += " Order number: " + n
			}
			return p.driver.Info(ctx, msg)
		}

		if err := p.report(ctx, outcome.Errors); err != nil {
			return err
		}
		again, err := p.driver.Confirm(ctx, ConfirmConfig{Message: "Try again?", Default: true})
		if err != nil {
			return err
		}
		if !again {
			return ErrNotPlaced
		}
	}
}

func (p *OrderPrompt) fill(ctx context.Context) error {
	current := p.ctrl.State().Form

	name, err := p.driver.Input(ctx, InputConfig{
		Message: "Full name:",
		Default: current.FullName,
		Validator: func(s string) error {
			if v := domain.CheckFullName(s); !v.OK() {
				return errors.New(v.Reason())
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	if err := p.ctrl.SetField(ctx, domain.FieldFullName, name); err != nil {
		return err
	}

	sizes := make([]string, len(domain.Sizes))
	sizeIdx := 0
	for i, s := range domain.Sizes {
		sizes[i] = fmt.Sprintf("%s (%s)", s.Label(), s)
		if s == current.Size {
			sizeIdx = i
		}
	}
	idx, err := p.driver.Select(ctx, SelectConfig{Message: "Size:", Options: sizes, DefaultIndex: sizeIdx})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(domain.Sizes) {
		return fmt.Errorf("cli: size choice %d out of range", idx)
	}
	if err := p.ctrl.SetField(ctx, domain.FieldSize, string(domain.Sizes[idx])); err != nil {
		return err
	}

	catalog := domain.ToppingCatalog()
	labels := make([]string, len(catalog))
	var selected []int
	for i, t := range catalog {
		labels[i] = t.Label
		if current.HasTopping(t.ID) {
			selected = append(selected, i)
		}
	}
	picked, err := p.driver.MultiSelect(ctx, SelectConfig{Message: "Toppings:", Options: labels, Defaults: selected})
	if err != nil {
		return err
	}
	wanted := make(map[int]bool, len(picked))
	for _, i := range picked {
		wanted[i] = true
	}
	for i, t := range catalog {
		if wanted[i] != current.HasTopping(t.ID) {
			if err := p.ctrl.ToggleTopping(ctx, t.ID, wanted[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *OrderPrompt) report(ctx context.Context, errs domain.FieldErrors) error {
	for _, f := range slices.Concat(fieldOrder, errs.Unplaced()) {
		msg, ok := errs[f]
		if !ok {
			continue
		}
		line := msg
		if f != domain.FieldGeneral {
			line = fmt.Sprintf("%s: %s", f, msg)
		}
		if err := p.driver.Info(ctx, line); err != nil {
			return err
		}
	}
	return nil
}
