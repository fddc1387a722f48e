package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/adapter/metrics"
	"github.com/YelzhanWeb/bloompizza/internal/adapter/openapi"
	"github.com/YelzhanWeb/bloompizza/internal/domain"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

const maxOrderBody = 64 << 10

type OrderHandler struct {
	service  interfaces.OrderService
	contract *openapi.Contract
	metrics  *metrics.Metrics
	logger   logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, contract *openapi.Contract, m *metrics.Metrics, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		contract: contract,
		metrics:  m,
		logger:   logger,
	}
}

type CreateOrderResponse struct {
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
	Message     string `json:"message"`
}

// CreateOrder accepts an order form as JSON.
//
//	400 {"general": ...}   body is not an order request
//	422 {field: message}   one entry per failed field
//	201 CreateOrderResponse
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFrom(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxOrderBody))
	if err != nil {
		h.malformed(w, requestID, "request body is too large or unreadable", err)
		return
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		h.malformed(w, requestID, "request body must be a JSON object", err)
		return
	}
	if err := h.contract.CheckOrderRequest(raw); err != nil {
		h.malformed(w, requestID, "invalid order request: "+err.Error(), err)
		return
	}

	var form domain.OrderForm
	if err := json.Unmarshal(body, &form); err != nil {
		h.malformed(w, requestID, "request body must be a JSON object", err)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), form)
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		h.metrics.RecordOrder(metrics.OrderRejected)
		h.logger.Debug("order_rejected", "Order failed validation", requestID, map[string]interface{}{
			"fields": verr.Fields,
		})
		writeJSON(w, http.StatusUnprocessableEntity, verr.Fields)
		return
	case err != nil:
		h.metrics.RecordOrder(metrics.OrderFailed)
		h.logger.Error("order_creation_failed", "Failed to create order", requestID, nil, err)
		writeJSON(w, http.StatusInternalServerError, domain.FieldErrors{
			domain.FieldGeneral: "the order could not be placed, please try again",
		})
		return
	}

	h.metrics.RecordOrder(metrics.OrderAccepted)
	writeJSON(w, http.StatusCreated, CreateOrderResponse{
		OrderNumber: order.Number,
		Status:      string(order.Status),
		Message:     order.Confirmation().Message(),
	})
}

// Contract serves the OpenAPI document of this API.
func (h *OrderHandler) Contract(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openapi.Document())
}

func (h *OrderHandler) malformed(w http.ResponseWriter, requestID, message string, err error) {
	h.metrics.RecordOrder(metrics.OrderMalformed)
	h.logger.Debug("order_malformed", message, requestID, map[string]interface{}{
		"error": err.Error(),
	})
	writeJSON(w, http.StatusBadRequest, domain.FieldErrors{domain.FieldGeneral: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
