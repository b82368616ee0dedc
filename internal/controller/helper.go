package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/raveai/server/internal/service/studio"
	"github.com/raveai/server/pkg/validator"
)

const (
	headerPrefix = "Rave-"
)

func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

func (c controller) mustHeader(r *http.Request, key string) (string, error) {
	value := r.Header.Get(headerPrefix + key)
	if value == "" {
		return "", fmt.Errorf("%s%s was not provided", headerPrefix, key)
	}

	return value, nil
}

func (c controller) getQueryParam(r *http.Request, key string) (string, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return "", fmt.Errorf("%s was not provided", key)
	}

	return value, nil
}

// getIntQueryParam returns def when key is absent.
func (c controller) getIntQueryParam(r *http.Request, key string, def int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def, nil
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}

	return i, nil
}

// validationError carries field errors out of a websocket handler.
type validationError struct {
	errs []validator.ValidationError
}

func (e validationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.errs[0].Message)
}

func (c controller) validateInput(input any) error {
	if errs, ok := c.validate.Validate(input); !ok {
		return validationError{errs: errs}
	}

	return nil
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, studio.ErrSessionNotFound),
		errors.Is(err, studio.ErrMashupNotFound),
		errors.Is(err, studio.ErrTrackNotFound),
		errors.Is(err, studio.ErrVideoNotFound):
		return http.StatusNotFound
	case errors.Is(err, studio.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, studio.ErrInvalidDeck),
		errors.Is(err, studio.ErrInvalidVolume),
		errors.Is(err, studio.ErrInvalidVideoID),
		errors.Is(err, studio.ErrNotEnoughTracks):
		return http.StatusBadRequest
	case errors.Is(err, studio.ErrMashupInProgress):
		return http.StatusConflict
	case errors.Is(err, studio.ErrServiceClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicError hides the wrapping chain of unexpected errors from clients.
func publicError(err error) string {
	if errorStatus(err) == http.StatusInternalServerError {
		return "internal error"
	}

	return err.Error()
}
