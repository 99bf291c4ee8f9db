package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/internal/api/presenters"
	"Food-Rescue-Hub/pkg/volunteer"
)

type (
	VolunteerHandler interface {
		Submit(c *fiber.Ctx) error
	}

	volunteerHandler struct {
		volunteerService volunteer.VolunteerService
		validator        *validator.Validate
	}
)

func NewVolunteerHandler(volunteerService volunteer.VolunteerService, validator *validator.Validate) VolunteerHandler {
	return &volunteerHandler{
		volunteerService: volunteerService,
		validator:        validator,
	}
}

func (h *volunteerHandler) Submit(c *fiber.Ctx) error {
	req := new(domain.VolunteerRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSubmitVolunteer, err)
	}

	result, err := h.volunteerService.Submit(c.UserContext(), *req)
	if err != nil {
		// the mail relay is upstream of us
		if errors.Is(err, domain.ErrVolunteerMailFailed) {
			return presenters.ErrorResponse(c, fiber.StatusBadGateway, domain.MessageFailedSubmitVolunteer, err)
		}
		return presenters.ServiceError(c, domain.MessageFailedSubmitVolunteer, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessSubmitVolunteer)
}
