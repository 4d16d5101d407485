package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for the failure classes the API distinguishes.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)

// SeatUnavailableError reports a reservation conflict. It carries every
// conflicting seat label so the client can re-query and retry with
// different seats.
type SeatUnavailableError struct {
	Seats []string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Seats, ", "))
}

// IsSeatUnavailable reports whether err is a seat conflict and, if so,
// returns the conflicting seats.
func IsSeatUnavailable(err error) (*SeatUnavailableError, bool) {
	var su *SeatUnavailableError
	if errors.As(err, &su) {
		return su, true
	}
	return nil, false
}

// HTTPStatus maps a domain error to the status code the controllers return.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		if _, ok := IsSeatUnavailable(err); ok {
			return http.StatusConflict
		}
		return http.StatusInternalServerError
	}
}
