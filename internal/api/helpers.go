package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "", "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

// writeFailure maps err onto a 413 for an oversized body, a 400 when the
// request caused it and a 500 otherwise.
func writeFailure(c *echo.Context, err error) error {
	if errors.Is(err, ErrBodyTooLarge) {
		return writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error", err.Error(), "", "request_too_large")
	}
	if isClientError(err) {
		return writeBadRequest(c, err.Error())
	}
	return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

// decodeJSON reads exactly one JSON value from r. Unknown fields and trailing
// data are rejected.
func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return out, newInvalidRequest("request body is empty")
		}
		return out, newInvalidRequest("invalid JSON body: " + err.Error())
	}
	if dec.More() {
		return out, newInvalidRequest("request body holds more than one JSON value")
	}
	return out, nil
}

func newLossID() string {
	return "loss_" + uuid.NewString()
}

func newCompareID() string {
	return "cmp_" + uuid.NewString()
}
