package http

import (
	"context"
	"errors"
	"net/http"

	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/middleware/auth"
)

// clientErrors are reported to the caller verbatim with a 400.
var clientErrors = []error{
	errBadRequest,
	core.ErrInvalidType,
	core.ErrInvalidAmount,
	core.ErrInvalidDate,
	core.ErrInvalidPeriod,
	core.ErrEmptyCategory,
	core.ErrEmptyTitle,
	core.ErrDescriptionLength,
	core.ErrDuplicateBudget,
	core.ErrDuplicateCategory,
}

// errorStatus maps a service error to its HTTP status.
func errorStatus(err error) int {
	if errors.Is(err, core.ErrNotFound) {
		return http.StatusNotFound
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeError maps err to a response. Server errors are logged and their
// detail hidden from the caller.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, component, op string) {
	status := errorStatus(err)
	switch status {
	case http.StatusInternalServerError:
		fields := log.NewFields().WithErrorType(errorType(err))
		if owner, ok := auth.OwnerFromContext(r.Context()); ok {
			fields = fields.WithOwner(owner)
		}
		s.logger.LogError(r.Context(), "Request failed", err, component, op, fields)
		InternalServerError("internal server error").Write(w)
	case http.StatusNotFound:
		NotFoundError("resource not found").Write(w)
	default:
		ErrorResponse(status, err.Error()).Write(w)
	}
}

// errorType classifies a server error for the log.
func errorType(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return log.ErrorTypeTimeout
	}
	return log.ErrorTypeInternal
}

// owner returns the authenticated owner. The auth middleware guarantees it
// on every /api route.
func owner(r *http.Request) int64 {
	id, _ := auth.OwnerFromContext(r.Context())
	return id
}
