package presenters

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"Food-Rescue-Hub/domain"
)

type Response struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, data interface{}, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse renders err under message. Internal failures are logged and
// replaced by a generic text so storage details never reach the client.
func ErrorResponse(c *fiber.Ctx, statusCode int, message string, err error) error {
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	if statusCode >= fiber.StatusInternalServerError {
		log.Errorw(message, "path", c.Path(), "method", c.Method(), "error", err)
		errText = domain.MessageInternalError
	}
	return c.Status(statusCode).JSON(Response{
		Status:  false,
		Message: message,
		Error:   errText,
	})
}

// ServiceError picks the status code from the error kind.
func ServiceError(c *fiber.Ctx, message string, err error) error {
	return ErrorResponse(c, domain.StatusCode(err), message, err)
}
