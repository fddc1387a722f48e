// Package openapi holds the order API contract and checks request bodies
// against it.
package openapi

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

// Document returns the raw contract as served to clients.
func Document() []byte {
	out := make([]byte, len(document))
	copy(out, document)
	return out
}

type Contract struct {
	doc   *openapi3.T
	order *openapi3.Schema
}

// Load parses and validates the embedded contract.
func Load(ctx context.Context) (*Contract, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi: invalid document: %w", err)
	}

	if doc.Components == nil {
		return nil, errors.New("openapi: document has no components")
	}
	ref, ok := doc.Components.Schemas["OrderRequest"]
	if !ok || ref.Value == nil {
		return nil, errors.New("openapi: OrderRequest schema missing")
	}
	return &Contract{doc: doc, order: ref.Value}, nil
}

// CheckOrderRequest reports why a decoded JSON body is not shaped like an
// order request. Field values are not judged here; that is validation's job.
func (c *Contract) CheckOrderRequest(body interface{}) error {
	err := c.order.VisitJSON(body)
	if err == nil {
		return nil
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if path := schemaErr.JSONPointer(); len(path) > 0 {
			return fmt.Errorf("%s: %s", strings.Join(path, "."), schemaErr.Reason)
		}
		return errors.New(schemaErr.Reason)
	}
	return err
}
