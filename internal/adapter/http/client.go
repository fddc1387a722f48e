package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/domain"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

const maxResponseBody = 1 << 20

// OrderClient posts order forms to the order API.
type OrderClient struct {
	url    string
	http   *http.Client
	logger logger.Logger
}

func NewOrderClient(url string, timeout time.Duration, logger logger.Logger) *OrderClient {
	return &OrderClient{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (c *OrderClient) SubmitOrder(ctx context.Context, form domain.OrderForm) (*interfaces.SubmitReceipt, error) {
	payload := form.Clone()
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &interfaces.TransportError{Err: fmt.Errorf("failed to encode order: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &interfaces.TransportError{Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)

	c.logger.Debug("order_request", "Submitting order", requestID, map[string]interface{}{
		"url": c.url,
	})

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &interfaces.TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &interfaces.TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// The body is informative only; an unreadable one still means accepted.
		var receipt interfaces.SubmitReceipt
		_ = json.Unmarshal(data, &receipt)
		return &receipt, nil
	}

	if fields := parseFieldErrors(data); len(fields) > 0 {
		return nil, &interfaces.RejectionError{StatusCode: resp.StatusCode, Fields: fields}
	}
	return nil, &interfaces.TransportError{
		StatusCode: resp.StatusCode,
		Err:        errors.New(http.StatusText(resp.StatusCode)),
	}
}

// parseFieldErrors reads a JSON object of field to message and keeps every
// key as sent, including ones that name no form input. Non-string and blank
// values are ignored.
func parseFieldErrors(data []byte) domain.FieldErrors {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	fields := domain.FieldErrors{}
	for k, v := range raw {
		msg, ok := v.(string)
		if !ok || strings.TrimSpace(msg) == "" {
			continue
		}
		fields[domain.Field(k)] = msg
	}
	return fields
}
