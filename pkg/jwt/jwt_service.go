package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"Food-Rescue-Hub/domain"
	"Food-Rescue-Hub/internal/utils"
)

const (
	Issuer              = "FOOD_RESCUE_HUB"
	UserTokenLifetime   = 24 * time.Hour
	VerifyTokenLifetime = 24 * time.Hour
	PurposeVerifyEmail  = "verify_email"
)

type (
	JWTService interface {
		GenerateTokenUser(userID string, role string) (string, error)
		GetUserIDByToken(token string) (string, string, error)
		GenerateTokenPurpose(userID, purpose string, duration time.Duration) (string, error)
		ValidateTokenPurpose(token, purpose string) (string, error)
	}

	jwtUserClaim struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
		jwt.RegisteredClaims
	}

	jwtPurposeClaim struct {
		UserID  string `json:"user_id"`
		Purpose string `json:"purpose"`
		jwt.RegisteredClaims
	}

	jwtService struct {
		secretKey string
		issuer    string
		now       func() time.Time
	}
)

// NewJWTService signs with JWT_SECRET and refuses to start without one.
func NewJWTService() (JWTService, error) {
	secret := utils.GetConfig("JWT_SECRET")
	if secret == "" {
		return nil, domain.ErrMissingJWTSecret
	}
	return NewJWTServiceWithSecret(secret), nil
}

func NewJWTServiceWithSecret(secret string) JWTService {
	return &jwtService{
		secretKey: secret,
		issuer:    Issuer,
		now:       time.Now,
	}
}

func (j *jwtService) GenerateTokenUser(userID string, role string) (string, error) {
	now := j.now()
	claims := jwtUserClaim{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(UserTokenLifetime)),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.secretKey))
}

func (j *jwtService) parseToken(t_ *jwt.Token) (any, error) {
	if _, ok := t_.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t_.Header["alg"])
	}
	return []byte(j.secretKey), nil
}

func (j *jwtService) GetUserIDByToken(token string) (string, string, error) {
	claims := &jwtUserClaim{}
	if err := j.parse(token, claims); err != nil {
		return "", "", err
	}
	if claims.UserID == "" || claims.Role == "" {
		return "", "", domain.ErrTokenInvalid
	}
	return claims.UserID, claims.Role, nil
}

func (j *jwtService) GenerateTokenPurpose(userID, purpose string, duration time.Duration) (string, error) {
	now := j.now()
	claims := jwtPurposeClaim{
		UserID:  userID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.secretKey))
}

// ValidateTokenPurpose returns the user id of a token minted for purpose.
// A login token is rejected here, and a purpose token carries no role so the
// auth middleware cannot be fooled by it either.
func (j *jwtService) ValidateTokenPurpose(token, purpose string) (string, error) {
	claims := &jwtPurposeClaim{}
	if err := j.parse(token, claims); err != nil {
		return "", err
	}
	if claims.Purpose != purpose || claims.UserID == "" {
		return "", domain.ErrInvalidVerificationPurpose
	}
	return claims.UserID, nil
}

func (j *jwtService) parse(token string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, j.parseToken)
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return domain.ErrTokenExpired
		}
		return domain.ErrTokenInvalid
	}
	if !parsed.Valid {
		return domain.ErrTokenInvalid
	}
	if iss, ok := claims.(interface{ VerifyIssuer(string, bool) bool }); ok && !iss.VerifyIssuer(j.issuer, true) {
		return domain.ErrTokenInvalid
	}
	return nil
}
