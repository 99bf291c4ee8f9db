package domain

import "fmt"

var (
	MessageSuccessSubmitVolunteer = "volunteer submission sent"
	MessageFailedSubmitVolunteer  = "failed to send email, please try again later"

	ErrVolunteerAdminNotConfigured = fmt.Errorf("%w: admin email is not configured on the server", ErrInternal)
	ErrVolunteerMailFailed         = fmt.Errorf("%w: failed to send volunteer email", ErrInternal)
)

type (
	VolunteerRequest struct {
		Name    string `json:"name" validate:"required"`
		Email   string `json:"email" validate:"required,email"`
		Phone   string `json:"phone" validate:"omitempty"`
		Message string `json:"message" validate:"required"`
	}

	VolunteerResponse struct {
		Success bool   `json:"success"`
		To      string `json:"to"`
	}
)
