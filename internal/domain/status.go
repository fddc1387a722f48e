package domain

import "time"

// Status is a stage in an order's life: received, then cooking, then ready.
type Status string

const (
	StatusReceived Status = "received"
	StatusCooking  Status = "cooking"
	StatusReady    Status = "ready"
)

// Next returns the stage that follows s. Ready orders have none.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusReceived:
		return StatusCooking, true
	case StatusCooking:
		return StatusReady, true
	}
	return "", false
}

func (s Status) Valid() bool {
	return s == StatusReceived || s == StatusCooking || s == StatusReady
}

// StatusLog is one entry of an order's status history.
type StatusLog struct {
	ID        int
	OrderID   int
	Status    Status
	ChangedBy string
	ChangedAt time.Time
}
