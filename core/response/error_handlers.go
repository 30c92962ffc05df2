package response

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/pubsub/core/handler"
	"github.com/dmitrymomot/pubsub/core/router"
)

type statusCode interface {
	StatusCode() int
}

// convertToHTTPError maps any error to an HTTPError. Router errors keep their
// status; panics become a bare 500 without the panic value.
func convertToHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var perr router.PanicError
	if errors.As(err, &perr) {
		return ErrInternalServerError
	}

	switch {
	case errors.Is(err, router.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, router.ErrMethodNotAllowed):
		return ErrMethodNotAllowed
	}

	status := http.StatusInternalServerError
	var sc statusCode
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	base, ok := httpErrorsByStatus[status]
	if !ok {
		base = ErrInternalServerError
	}
	return base.WithError(err)
}

// ErrorHandler renders errors as plain text.
func ErrorHandler[C handler.Context](ctx C, err error) {
	httpErr := convertToHTTPError(err)
	Render(ctx, StringWithStatus(httpErr.Error(), httpErr.Status))
}

// JSONErrorHandler renders errors as a JSON HTTPError body.
func JSONErrorHandler[C handler.Context](ctx C, err error) {
	httpErr := convertToHTTPError(err)
	Render(ctx, JSONWithStatus(httpErr, httpErr.Status))
}
