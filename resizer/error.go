package resizer

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/greut/resizer/codec"
	"github.com/greut/resizer/pipeline"
	"github.com/greut/resizer/source"
)

// HTTPError represents a HTTP error to be shown to the user.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error formats the HTTPError message.
func (e HTTPError) Error() string {
	return fmt.Sprintf("%d (%s) %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// AsHTTPError maps a fetch or pipeline failure to the response status. The
// source status is mirrored, other fetch failures are a bad gateway.
func AsHTTPError(err error) HTTPError {
	var (
		he HTTPError
		se *source.Error
		ce *pipeline.CollaboratorError
		de *pipeline.DecodeError
		te *pipeline.TransformError
	)

	switch {
	case errors.As(err, &he):
		return he
	case errors.As(err, &se):
		return HTTPError{se.StatusCode, err.Error()}
	case errors.As(err, &ce):
		return HTTPError{http.StatusBadGateway, err.Error()}
	case errors.As(err, &de):
		if errors.Is(err, codec.ErrUnsupported) {
			return HTTPError{http.StatusNotImplemented, err.Error()}
		}
		return HTTPError{http.StatusBadRequest, err.Error()}
	case errors.As(err, &te):
		return HTTPError{http.StatusInternalServerError, err.Error()}
	}

	return HTTPError{http.StatusInternalServerError, err.Error()}
}
