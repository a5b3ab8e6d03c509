// Package qr encodes and decodes the payload embedded in a ticket's
// scannable code. The codec is pure data transformation: it never touches the
// database, so gate devices and tests can use it standalone.
package qr

import (
	"encoding/json"
	"fmt"
	"time"

	"ticketpro/pkg/apperrors"
)

// Version is the current payload schema version. Decode accepts only
// versions listed in supportedVersions.
const Version = "1.0"

var supportedVersions = map[string]bool{
	"1.0": true,
}

// Payload is the self-describing ticket identity carried by the QR code. It
// binds the physical ticket to its order, event and owner.
type Payload struct {
	Version     string    `json:"version"`
	TicketID    int       `json:"ticket_id"`
	OrderID     int       `json:"order_id"`
	EventID     int       `json:"event_id"`
	UserID      int       `json:"user_id"`
	TicketType  string    `json:"ticket_type"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Encode produces the JSON payload stored on the ticket and rendered as a QR
// code by the delivery channel.
func Encode(ticketID, orderID, eventID, userID int, ticketType string) (string, error) {
	payload := Payload{
		Version:     Version,
		TicketID:    ticketID,
		OrderID:     orderID,
		EventID:     eventID,
		UserID:      userID,
		TicketType:  ticketType,
		GeneratedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr payload: %w", err)
	}

	return string(data), nil
}

// Decode parses a scanned payload. Malformed JSON, a missing required field
// or an unsupported version all yield ErrInvalidQRPayload.
func Decode(data string) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed payload", apperrors.ErrInvalidQRPayload)
	}

	if !supportedVersions[payload.Version] {
		return nil, fmt.Errorf("%w: unsupported version %q", apperrors.ErrInvalidQRPayload, payload.Version)
	}

	required := map[string]int{
		"ticket_id": payload.TicketID,
		"order_id":  payload.OrderID,
		"event_id":  payload.EventID,
		"user_id":   payload.UserID,
	}
	for field, value := range required {
		if value == 0 {
			return nil, fmt.Errorf("%w: missing required field %s", apperrors.ErrInvalidQRPayload, field)
		}
	}

	return &payload, nil
}

// Validate checks a decoded payload against the scan context. A payload for
// another event is rejected even when everything else is well formed.
func Validate(payload *Payload, expectedEventID int) bool {
	if payload == nil {
		return false
	}
	if payload.EventID != expectedEventID {
		return false
	}
	return supportedVersions[payload.Version]
}
