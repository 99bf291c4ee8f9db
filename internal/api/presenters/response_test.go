package presenters

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Food-Rescue-Hub/domain"
)

func render(t *testing.T, handler fiber.Handler) (int, Response) {
	t.Helper()
	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestSuccessResponse(t *testing.T) {
	code, res := render(t, func(c *fiber.Ctx) error {
		return SuccessResponse(c, []string{}, fiber.StatusCreated, "created")
	})
	assert.Equal(t, http.StatusCreated, code)
	assert.True(t, res.Status)
	assert.Equal(t, "created", res.Message)
	assert.Equal(t, []interface{}{}, res.Data)
}

func TestServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		text   string
	}{
		{err: domain.ErrDonationAlreadyClaimed, status: http.StatusConflict, text: domain.ErrDonationAlreadyClaimed.Error()},
		{err: domain.ErrNotDonationOwner, status: http.StatusForbidden, text: domain.ErrNotDonationOwner.Error()},
		{err: domain.ErrDonationNotFound, status: http.StatusNotFound, text: domain.ErrDonationNotFound.Error()},
		{err: domain.ErrInvalidDecision, status: http.StatusBadRequest, text: domain.ErrInvalidDecision.Error()},
		{err: domain.ErrTokenExpired, status: http.StatusUnauthorized, text: domain.ErrTokenExpired.Error()},
		{err: fmt.Errorf("pq: relation missing"), status: http.StatusInternalServerError, text: domain.MessageInternalError},
		{err: domain.Internal(errors.New("disk full")), status: http.StatusInternalServerError, text: domain.MessageInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			code, res := render(t, func(c *fiber.Ctx) error {
				return ServiceError(c, "failed", tt.err)
			})
			assert.Equal(t, tt.status, code)
			assert.False(t, res.Status)
			assert.Equal(t, "failed", res.Message)
			assert.Equal(t, tt.text, res.Error)
		})
	}
}
