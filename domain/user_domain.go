package domain

import (
	"fmt"
	"time"
)

var (
	MessageSuccessRegister        = "user created successfully"
	MessageSuccessLogin           = "login successful"
	MessageSuccessGetProfile      = "profile retrieved successfully"
	MessageSuccessUpdateProfile   = "profile updated successfully"
	MessageSuccessSendOTP         = "OTP sent to email"
	MessageSuccessResetPassword   = "password reset successful"
	MessageSuccessSendVerify      = "verification email sent"
	MessageSuccessVerifyEmail     = "email verified successfully"
	MessageFailedRegister         = "failed to register user"
	MessageFailedLogin            = "failed to login"
	MessageFailedGetProfile       = "failed to retrieve profile"
	MessageFailedUpdateProfile    = "failed to update profile"
	MessageFailedSendOTP          = "failed to send OTP"
	MessageFailedResetPassword    = "failed to reset password"
	MessageFailedSendVerify       = "failed to send verification email"
	MessageFailedVerifyEmail      = "failed to verify email"
	ErrInvalidRole                = fmt.Errorf("%w: invalid role specified", ErrValidation)
	ErrEmailAlreadyExists         = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrUserNotFound               = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrInvalidPassword            = fmt.Errorf("%w: invalid password", ErrAuthentication)
	ErrInvalidOTP                 = fmt.Errorf("%w: invalid or expired OTP", ErrValidation)
	ErrEmailAlreadyVerified       = fmt.Errorf("%w: email already verified", ErrConflict)
	ErrVerificationEmailNotSent   = fmt.Errorf("%w: email sending failed", ErrInternal)
	ErrInvalidVerificationPurpose = fmt.Errorf("%w: token is not a verification token", ErrAuthentication)
)

const (
	DefaultAvatar = "/avatars/default.jpg"
	OTPLifetime   = 10 * time.Minute
)

type (
	RegisterRequest struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Role     string `json:"role" validate:"required"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}

	UpdateProfileRequest struct {
		Name             string `json:"name" validate:"omitempty"`
		Bio              string `json:"bio" validate:"omitempty,max=500"`
		Avatar           string `json:"avatar" validate:"omitempty"`
		Phone            string `json:"phone" validate:"omitempty"`
		Location         string `json:"location" validate:"omitempty"`
		Gender           string `json:"gender" validate:"omitempty"`
		DOB              string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
		Interests        string `json:"interests" validate:"omitempty"`
		OrganizationName string `json:"organization_name" validate:"omitempty"`
	}

	SendOTPRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ResetPasswordRequest struct {
		Email       string `json:"email" validate:"required,email"`
		OTP         string `json:"otp" validate:"required,len=6,numeric"`
		NewPassword string `json:"new_password" validate:"required,min=6"`
	}

	User struct {
		ID               string     `json:"id"`
		Name             string     `json:"name"`
		Email            string     `json:"email"`
		Role             string     `json:"role"`
		Bio              string     `json:"bio"`
		Avatar           string     `json:"avatar"`
		Phone            string     `json:"phone"`
		Location         string     `json:"location"`
		Gender           string     `json:"gender"`
		DOB              *time.Time `json:"dob"`
		Interests        string     `json:"interests"`
		OrganizationName string     `json:"organization_name"`
		IsVerified       bool       `json:"is_verified"`
		IsFirstLogin     bool       `json:"is_first_login"`
		ProfileCompleted bool       `json:"profile_completed"`
	}
)

func ValidRole(role string) bool {
	return role == RoleDonor || role == RoleReceiver
}
