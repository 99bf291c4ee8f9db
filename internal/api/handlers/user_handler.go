package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/internal/api/presenters"
	"Food-Rescue-Hub/pkg/user"
)

type (
	UserHandler interface {
		Register(c *fiber.Ctx) error
		Login(c *fiber.Ctx) error
		Me(c *fiber.Ctx) error
		UpdateProfile(c *fiber.Ctx) error
		SendOTP(c *fiber.Ctx) error
		ResetPassword(c *fiber.Ctx) error
		SendVerificationEmail(c *fiber.Ctx) error
		VerifyEmail(c *fiber.Ctx) error
	}

	userHandler struct {
		userService user.UserService
		validator   *validator.Validate
	}
)

func NewUserHandler(userService user.UserService, validator *validator.Validate) UserHandler {
	return &userHandler{
		userService: userService,
		validator:   validator,
	}
}

func (h *userHandler) Register(c *fiber.Ctx) error {
	req := new(domain.RegisterRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRegister, err)
	}

	result, err := h.userService.Register(c.UserContext(), *req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedRegister, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusCreated, domain.MessageSuccessRegister)
}

func (h *userHandler) Login(c *fiber.Ctx) error {
	req := new(domain.LoginRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedLogin, err)
	}

	result, err := h.userService.Login(c.UserContext(), *req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedLogin, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessLogin)
}

func (h *userHandler) Me(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	result, err := h.userService.Me(c.UserContext(), userID)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedGetProfile, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessGetProfile)
}

func (h *userHandler) UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := new(domain.UpdateProfileRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateProfile, err)
	}

	result, err := h.userService.UpdateProfile(c.UserContext(), userID, *req)
	if err != nil {
		return presenters.ServiceError(c, domain.MessageFailedUpdateProfile, err)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessUpdateProfile)
}

func (h *userHandler) SendOTP(c *fiber.Ctx) error {
	req := new(domain.SendOTPRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSendOTP, err)
	}

	if err := h.userService.SendPasswordOTP(c.UserContext(), *req); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedSendOTP, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessSendOTP)
}

func (h *userHandler) ResetPassword(c *fiber.Ctx) error {
	req := new(domain.ResetPasswordRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedResetPassword, err)
	}

	if err := h.userService.ResetPassword(c.UserContext(), *req); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedResetPassword, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessResetPassword)
}

func (h *userHandler) SendVerificationEmail(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	if err := h.userService.SendVerificationEmail(c.UserContext(), userID); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedSendVerify, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessSendVerify)
}

func (h *userHandler) VerifyEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedVerifyEmail, domain.ErrTokenNotFound)
	}

	if err := h.userService.VerifyEmail(c.UserContext(), token); err != nil {
		return presenters.ServiceError(c, domain.MessageFailedVerifyEmail, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessVerifyEmail)
}
