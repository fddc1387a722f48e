package openapi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestContract_CheckOrderRequest(t *testing.T) {
	c, err := Load(context.Background())
	require.NoError(t, err)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "full order", body: `{"fullName":"Alice","size":"M","toppings":["1","3"]}`},
		{name: "empty object is well formed", body: `{}`},
		{name: "null toppings", body: `{"fullName":"Al","size":"XL","toppings":null}`},
		{name: "number for name", body: `{"fullName":42}`, wantErr: "fullName"},
		{name: "toppings not a list", body: `{"toppings":"1"}`, wantErr: "toppings"},
		{name: "numeric topping", body: `{"toppings":[1]}`, wantErr: "toppings"},
		{name: "unknown property", body: `{"fullName":"Alice","tip":5}`, wantErr: "tip"},
		{name: "array body", body: `[]`, wantErr: "object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.CheckOrderRequest(decode(t, tt.body))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDocument_IsACopy(t *testing.T) {
	d := Document()
	require.NotEmpty(t, d)
	d[0] = 'X'
	assert.NotEqual(t, byte('X'), Document()[0])
}
