package orders

import (
	"errors"
	"fmt"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	// StatusPending is the initial status of every order.
	StatusPending Status = "PENDING"
	// StatusAccepted indicates the order has been accepted for fulfilment.
	StatusAccepted Status = "ACCEPTED"
	// StatusOutForDelivery indicates the order is with the carrier.
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	// StatusDelivered is terminal and triggers stock reduction.
	StatusDelivered Status = "DELIVERED"
	// StatusCancelled is terminal.
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidStatus is returned when a status value is outside the recognized
// enumeration.
var ErrInvalidStatus = errors.New("invalid order status")

var validStatuses = map[Status]struct{}{
	StatusPending:        {},
	StatusAccepted:       {},
	StatusOutForDelivery: {},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// ParseStatus validates a raw status value against the enumeration.
func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	if _, ok := validStatuses[status]; !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidStatus, raw)
	}
	return status, nil
}

// CanCancel reports whether an order in this status may still be cancelled.
func (s Status) CanCancel() bool {
	return s == StatusPending || s == StatusAccepted
}

// Terminal reports whether no further transition is permitted from this status.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}
