package identity

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// ResponseError is the client-facing error payload. Code is a numeric app
// code (mirroring the HTTP status) and Message the rich error message.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ResponseMeta struct {
	Status int            `json:"status"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseEnvelope is the wire shape of every endpoint response:
// {meta: {status, error?}, data: {...}}.
type ResponseEnvelope struct {
	Meta ResponseMeta   `json:"meta"`
	Data map[string]any `json:"data"`
}

// NewResponseEnvelope returns a success envelope with an empty data map.
func NewResponseEnvelope() *ResponseEnvelope {
	return &ResponseEnvelope{
		Meta: ResponseMeta{Status: http.StatusOK},
		Data: map[string]any{},
	}
}

// Set adds a data field and returns the envelope for chaining.
func (r *ResponseEnvelope) Set(key string, value any) *ResponseEnvelope {
	r.Data[key] = value
	return r
}

// Fail records the error on the envelope. Rich errors carry their own HTTP
// code; anything else becomes an opaque 500. The mapping is the single place
// where the error taxonomy meets the wire.
func (r *ResponseEnvelope) Fail(err error) *ResponseEnvelope {
	status := http.StatusInternalServerError
	message := "Unknown Error"

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if richErr.Code > 0 {
			status = richErr.Code
		}
		if richErr.Message != "" {
			message = richErr.Message
		}
	}

	r.Meta.Status = status
	r.Meta.Error = &ResponseError{
		Code:    status,
		Message: message,
	}

	return r
}

// WriteJSON sends the envelope with its own status as the HTTP status.
func (r *ResponseEnvelope) WriteJSON(c *fiber.Ctx) error {
	return c.Status(r.Meta.Status).JSON(r)
}

// NotFoundHandler is the catch-all route for unmatched request URLs.
func NotFoundHandler(c *fiber.Ctx) error {
	return c.Status(http.StatusNotFound).JSON(fiber.Map{
		"message": "Request URL does not exist",
	})
}
