package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/entities"
	"Food-Rescue-Hub/pkg/jwt"
	"Food-Rescue-Hub/pkg/notification"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
		Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
		Me(ctx context.Context, userID string) (*domain.User, error)
		UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
		SendPasswordOTP(ctx context.Context, req domain.SendOTPRequest) error
		ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
		SendVerificationEmail(ctx context.Context, userID string) error
		VerifyEmail(ctx context.Context, token string) error
		GetSummary(ctx context.Context, userID uuid.UUID) (*entities.User, error)
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
		sink           notification.Sink
		appURL         string
		now            func() time.Time
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService, sink notification.Sink, appURL string) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
		sink:           sink,
		appURL:         strings.TrimRight(appURL, "/"),
		now:            time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	role := strings.ToUpper(req.Role)
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}

	email := normalizeEmail(req.Email)
	if _, err := s.userRepository.GetUserByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.Internal(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.Internal(err)
	}

	user := &entities.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Password:     string(hashed),
		Role:         role,
		Avatar:       domain.DefaultAvatar,
		IsFirstLogin: true,
	}
	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		return nil, domain.Internal(err)
	}

	log.Infow("user registered", "user_id", user.ID, "role", user.Role)
	return toDomainUser(user), nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidPassword
	}

	token, err := s.jwtService.GenerateTokenUser(user.ID.String(), user.Role)
	if err != nil {
		return nil, domain.Internal(err)
	}

	return &domain.LoginResponse{
		Token: token,
		User:  *toDomainUser(user),
	}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (*domain.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}
	user, err := s.GetSummary(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDomainUser(user), nil
}

// GetSummary loads a user for other services that need contact details.
func (s *userService) GetSummary(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Internal(err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}
	if _, err := s.GetSummary(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"profile_completed": true,
		"is_first_login":    false,
	}
	set := func(column, value string) {
		if value != "" {
			fields[column] = value
		}
	}
	set("name", strings.TrimSpace(req.Name))
	set("bio", req.Bio)
	set("avatar", req.Avatar)
	set("phone", req.Phone)
	set("location", req.Location)
	set("gender", req.Gender)
	set("interests", req.Interests)
	set("organization_name", req.OrganizationName)
	if req.DOB != "" {
		dob, err := time.Parse("2006-01-02", req.DOB)
		if err != nil {
			return nil, fmt.Errorf("%w: dob must be YYYY-MM-DD", domain.ErrValidation)
		}
		fields["dob"] = dob
	}

	if err := s.userRepository.UpdateUser(ctx, id, fields); err != nil {
		return nil, domain.Internal(err)
	}
	return s.Me(ctx, userID)
}

func (s *userService) SendPasswordOTP(ctx context.Context, req domain.SendOTPRequest) error {
	user, err := s.userRepository.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return domain.Internal(err)
	}

	otp, err := generateOTP()
	if err != nil {
		return domain.Internal(err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return domain.Internal(err)
	}
	if err := s.userRepository.SetOTP(ctx, user.ID, string(hashed), s.now().Add(domain.OTPLifetime)); err != nil {
		return domain.Internal(err)
	}

	if res := s.sink.Notify(ctx, notification.PasswordOTPMessage(user.Email, otp)); !res.OK {
		log.Errorw("otp email failed", "user_id", user.ID, "diagnostic", res.Diagnostic)
		return domain.ErrVerificationEmailNotSent
	}
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	user, err := s.userRepository.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrInvalidOTP
		}
		return domain.Internal(err)
	}

	if user.OTP == nil || user.OTPExpiry == nil || user.OTPExpiry.Before(s.now()) {
		return domain.ErrInvalidOTP
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.OTP), []byte(req.OTP)); err != nil {
		return domain.ErrInvalidOTP
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return domain.Internal(err)
	}
	if err := s.userRepository.ResetPassword(ctx, user.ID, string(hashed)); err != nil {
		return domain.Internal(err)
	}
	return nil
}

func (s *userService) SendVerificationEmail(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}
	user, err := s.GetSummary(ctx, id)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return domain.ErrEmailAlreadyVerified
	}

	token, err := s.jwtService.GenerateTokenPurpose(user.ID.String(), jwt.PurposeVerifyEmail, jwt.VerifyTokenLifetime)
	if err != nil {
		return domain.Internal(err)
	}
	link := fmt.Sprintf("%s/api/auth/verify?token=%s", s.appURL, url.QueryEscape(token))

	if res := s.sink.Notify(ctx, notification.VerificationMessage(user.Email, user.Name, link)); !res.OK {
		log.Errorw("verification email failed", "user_id", user.ID, "diagnostic", res.Diagnostic)
		return domain.ErrVerificationEmailNotSent
	}
	return nil
}

func (s *userService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.jwtService.ValidateTokenPurpose(token, jwt.PurposeVerifyEmail)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}
	user, err := s.GetSummary(ctx, id)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return domain.ErrEmailAlreadyVerified
	}
	if err := s.userRepository.UpdateUser(ctx, id, map[string]interface{}{"is_verified": true}); err != nil {
		return domain.Internal(err)
	}
	return nil
}

// generateOTP returns a uniformly random six digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func toDomainUser(u *entities.User) *domain.User {
	return &domain.User{
		ID:               u.ID.String(),
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role,
		Bio:              u.Bio,
		Avatar:           u.Avatar,
		Phone:            u.Phone,
		Location:         u.Location,
		Gender:           u.Gender,
		DOB:              u.DOB,
		Interests:        u.Interests,
		OrganizationName: u.OrganizationName,
		IsVerified:       u.IsVerified,
		IsFirstLogin:     u.IsFirstLogin,
		ProfileCompleted: u.ProfileCompleted,
	}
}
