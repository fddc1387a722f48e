package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/domain"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger,
	}
}

type OrderStatusResponse struct {
	OrderNumber         string         `json:"orderNumber"`
	FullName            string         `json:"fullName"`
	Size                domain.Size    `json:"size"`
	Toppings            []string       `json:"toppings"`
	Status              domain.Status  `json:"status"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	EstimatedCompletion *time.Time     `json:"estimatedCompletion,omitempty"`
	ProcessedBy         *string        `json:"processedBy,omitempty"`
	History             []HistoryEntry `json:"history"`
}

type HistoryEntry struct {
	Status    domain.Status `json:"status"`
	ChangedBy string        `json:"changedBy"`
	ChangedAt time.Time     `json:"changedAt"`
}

// GetOrder serves GET /api/order/{number}.
func (h *TrackingHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")
	requestID := RequestIDFrom(r.Context())

	result, err := h.service.GetOrderStatus(r.Context(), number)
	if errors.Is(err, domain.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, domain.FieldErrors{domain.FieldGeneral: "order not found"})
		return
	}
	if err != nil {
		h.logger.Error("order_lookup_failed", "Failed to look up order", requestID, map[string]interface{}{
			"order_number": number,
		}, err)
		writeJSON(w, http.StatusInternalServerError, domain.FieldErrors{domain.FieldGeneral: "order status is unavailable"})
		return
	}

	toppings := result.Toppings
	if toppings == nil {
		toppings = []string{}
	}
	resp := OrderStatusResponse{
		OrderNumber:         result.OrderNumber,
		FullName:            result.FullName,
		Size:                result.Size,
		Toppings:            toppings,
		Status:              result.CurrentStatus,
		UpdatedAt:           result.UpdatedAt,
		EstimatedCompletion: result.EstimatedCompletion,
		ProcessedBy:         result.ProcessedBy,
		History:             make([]HistoryEntry, len(result.History)),
	}
	for i, log := range result.History {
		resp.History[i] = HistoryEntry{
			Status:    log.Status,
			ChangedBy: log.ChangedBy,
			ChangedAt: log.ChangedAt,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
