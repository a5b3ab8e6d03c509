package apperrors

import "errors"

var (
	ErrTicketTypeNotFound = errors.New("ticket type not found")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrPaymentNotFound    = errors.New("payment transaction not found")
	ErrEventNotFound      = errors.New("event not found")

	ErrSoldOut              = errors.New("sold out")
	ErrConcurrencyConflict  = errors.New("concurrent access conflict, retry")
	ErrInvalidTransition    = errors.New("invalid state transition")
	ErrForbidden            = errors.New("forbidden")
	ErrAlreadyCheckedIn     = errors.New("ticket already checked in")
	ErrNotCheckedIn         = errors.New("ticket not checked in")
	ErrAlreadyCheckedOut    = errors.New("ticket already checked out")
	ErrAlreadyValidated     = errors.New("ticket already validated")
	ErrPaymentNotConfirmed  = errors.New("payment not confirmed")
	ErrDuplicateExternalRef = errors.New("duplicate external reference")
	ErrInvalidQRPayload     = errors.New("invalid qr payload")

	ErrInvalidInput        = errors.New("invalid input")
	ErrInternalServerError = errors.New("internal server error")
)
