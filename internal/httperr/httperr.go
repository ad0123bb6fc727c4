// Package httperr defines the error taxonomy shared by both services and
// its mapping to HTTP status codes.
package httperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrUnauthorized covers missing, malformed and expired bearer tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound covers resources that are absent or not owned by the
	// caller; the two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")
	// ErrValidation covers malformed bodies and rejected field values.
	ErrValidation = errors.New("validation failed")
)

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// Unauthorizedf wraps ErrUnauthorized with a formatted detail message.
func Unauthorizedf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrUnauthorized)...)
}

// StatusCode maps an error to its HTTP status. Anything outside the
// taxonomy is an internal error.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrValidation):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// Respond writes the error as a JSON body with the mapped status code.
// Internal errors are masked so store details never leak to clients.
func Respond(c *fiber.Ctx, err error) error {
	code := StatusCode(err)
	detail := err.Error()
	if code == fiber.StatusInternalServerError {
		detail = "internal server error"
	}
	// Drop the wrapped sentinel tail ("...: not found") from the message.
	for _, sentinel := range []error{ErrUnauthorized, ErrNotFound, ErrValidation} {
		detail = strings.TrimSuffix(detail, ": "+sentinel.Error())
	}
	return c.Status(code).JSON(fiber.Map{"detail": detail})
}
