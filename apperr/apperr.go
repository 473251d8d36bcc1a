package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Failure kinds surfaced by the fulfillment engine. Controllers map them
// to HTTP statuses with HTTPStatus; services return them and let the
// enclosing transaction roll back.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient available stock")
	ErrOverPick          = errors.New("picked quantity exceeds requested quantity")
	ErrAlreadyReserved   = errors.New("order already has active allocations")
	ErrOrderNotEditable  = errors.New("order is not editable")
	ErrOrderFinal        = errors.New("order is final")
	ErrBadRequest        = errors.New("bad request")
)

// InvalidStateError is returned when an operation is attempted from an
// order status that does not permit it. The offending status is kept so
// callers can report it.
type InvalidStateError struct {
	Op     string
	Status string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed from status %s", e.Op, e.Status)
}

func InvalidState(op, status string) error {
	return &InvalidStateError{Op: op, Status: status}
}

// DataInconsistencyError signals corrupted prior state (e.g. releasing
// more than is reserved). It is never expected in correct operation and
// must abort the transaction; it is not meant to be caught and handled.
type DataInconsistencyError struct {
	Detail string
}

func (e *DataInconsistencyError) Error() string {
	return "data inconsistency: " + e.Detail
}

func Inconsistent(format string, args ...interface{}) error {
	return &DataInconsistencyError{Detail: fmt.Sprintf(format, args...)}
}

func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

func BadRequest(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrBadRequest)
}

// HTTPStatus maps an engine error to the status code controllers respond with.
func HTTPStatus(err error) int {
	var invalid *InvalidStateError
	var inconsistent *DataInconsistencyError

	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &invalid):
		return fiber.StatusConflict
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrOverPick),
		errors.Is(err, ErrAlreadyReserved),
		errors.Is(err, ErrOrderNotEditable),
		errors.Is(err, ErrOrderFinal),
		errors.Is(err, ErrBadRequest):
		return fiber.StatusBadRequest
	case errors.As(err, &inconsistent):
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}
