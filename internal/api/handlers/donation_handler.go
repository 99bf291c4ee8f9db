package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/internal/api/presenters"
	"Food-Rescue-Hub/pkg/donation"
)

type (
	DonationHandler interface {
		CreateDonation(c *fiber.Ctx) error
		UploadDonationImage(c *fiber.Ctx) error
		GetDonations(c *fiber.Ctx) error
		GetDonationByID(c *fiber.Ctx) error
		GetMyClaims(c *fiber.Ctx) error
		ClaimDonation(c *fiber.Ctx) error
		ConfirmDonation(c *fiber.Ctx) error
		MarkCollected(c *fiber.Ctx) error
		DeleteDonation(c *fiber.Ctx) error
	}

	donationHandler struct {
		donationService donation.DonationService
		validator       *validator.Validate
	}
)

func NewDonationHandler(donationService donation.DonationService, validator *validator.Validate) DonationHandler {
	return &donationHandler{
		donationService: donationService,
		validator:       validator,
	}
}

func (h *donationHandler) CreateDonation(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := new(domain.CreateDonationRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateDonation, err)
	}

	result, err := h.donationService.CreateDonation(c.UserContext(), *req, userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedCreateDonation, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusCreated, domain.MessageSuccessCreateDonation)
}

func (h *donationHandler) UploadDonationImage(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := new(domain.UploadDonationImageRequest)
	req.Image, _ = c.FormFile("image")
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadImage, err)
	}

	result, err := h.donationService.UploadDonationImage(c.UserContext(), c.Params("id"), userID, req.Image)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedUploadImage, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessUploadImage)
}

func (h *donationHandler) GetDonations(c *fiber.Ctx) error {
	req := new(domain.ListDonationsRequest)
	if err := c.QueryParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetDonations, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetDonations, err)
	}

	donations, err := h.donationService.ListDonations(c.UserContext(), *req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetDonations, err)
	}

	return presenters.SuccessResponse(c, donations, fiber.StatusOK, domain.MessageSuccessGetDonations)
}

func (h *donationHandler) GetDonationByID(c *fiber.Ctx) error {
	result, err := h.donationService.GetDonationByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetDonation, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessGetDonation)
}

func (h *donationHandler) GetMyClaims(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	claims, err := h.donationService.GetMyClaims(c.UserContext(), userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetClaims, err)
	}

	return presenters.SuccessResponse(c, claims, fiber.StatusOK, domain.MessageSuccessGetClaims)
}

func (h *donationHandler) ClaimDonation(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	result, err := h.donationService.ClaimDonation(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedClaimDonation, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessClaimDonation)
}

func (h *donationHandler) ConfirmDonation(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := new(domain.ConfirmDonationRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedConfirmDonation, err)
	}

	result, err := h.donationService.ConfirmDonation(c.UserContext(), c.Params("id"), userID, *req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedConfirmDonation, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessConfirmDonation)
}

func (h *donationHandler) MarkCollected(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	result, err := h.donationService.MarkCollected(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedCollectDonation, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessCollectDonation)
}

func (h *donationHandler) DeleteDonation(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	if err := h.donationService.DeleteDonation(c.UserContext(), c.Params("id"), userID); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedDeleteDonation, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteDonation)
}
