package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"Food-Rescue-Hub/entities"
)

type (
	UserRepository interface {
		CreateUser(ctx context.Context, user *entities.User) error
		GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
		GetUserByEmail(ctx context.Context, email string) (*entities.User, error)
		UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
		SetOTP(ctx context.Context, id uuid.UUID, hash string, expiry time.Time) error
		ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	}

	userRepository struct {
		db *gorm.DB
	}
)

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) CreateUser(ctx context.Context, user *entities.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *userRepository) SetOTP(ctx context.Context, id uuid.UUID, hash string, expiry time.Time) error {
	return r.UpdateUser(ctx, id, map[string]interface{}{
		"otp":        hash,
		"otp_expiry": expiry,
	})
}

// ResetPassword stores the new hash and burns the OTP in one statement.
func (r *userRepository) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.UpdateUser(ctx, id, map[string]interface{}{
		"password":   passwordHash,
		"otp":        nil,
		"otp_expiry": nil,
	})
}
