package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushub/campushub-api/internal/models"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

// AuthConfig signs and checks access tokens.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService signs members in and resolves bearer tokens to tenant-scoped claims.
type AuthService struct {
	repo      authUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
	// compared against when the email is unknown so both paths cost one bcrypt round
	decoyHash []byte
}

func NewAuthService(repo authUserRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	decoy, _ := bcrypt.GenerateFromPassword([]byte("campushub-decoy"), bcrypt.DefaultCost)
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: time.Now, decoyHash: decoy}
}

var errBadCredentials = appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")

// Login checks the password and issues an access token scoped to the member's school.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_ = bcrypt.CompareHashAndPassword(s.decoyHash, []byte(req.Password))
		return nil, errBadCredentials
	case err != nil:
		return nil, appErrors.Internal(err, "failed to load account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errBadCredentials
	}

	// Status is only revealed to callers who proved the password.
	if !user.Active {
		return nil, appErrors.ErrInactiveAccount
	}
	if user.SchoolSuspended() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "school is suspended")
	}

	issuedAt := s.now().UTC()
	token, expiresAt, err := s.sign(user, issuedAt)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign access token")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, issuedAt); err != nil {
		s.logger.Warn("last login not recorded", zap.String("user_id", user.ID), zap.Error(err))
	}
	user.LastLogin = &issuedAt
	s.logger.Info("signed in",
		zap.String("user_id", user.ID),
		zap.String("school_id", user.Tenant()),
		zap.String("role", string(user.Role)),
	)

	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		ExpiresAt:   expiresAt,
		IssuedAt:    issuedAt,
		User:        models.NewUserInfo(user),
	}, nil
}

// Me reloads the caller's account so profile changes show up before the token expires.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to load account")
	}
	info := models.NewUserInfo(user)
	return &info, nil
}

// ValidateToken verifies signature, expiry and issuer, and that every
// non-platform role carries a school.
func (s *AuthService) ValidateToken(raw string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	claims := &models.JWTClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, s.key, opts...); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	if !claims.Role.Valid() || (claims.Role != models.RoleSuperAdmin && claims.SchoolID == "") {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is not bound to a school")
	}
	return claims, nil
}

func (s *AuthService) key(*jwt.Token) (interface{}, error) {
	return []byte(s.config.AccessTokenSecret), nil
}

func (s *AuthService) sign(user *models.User, issuedAt time.Time) (string, time.Time, error) {
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:   user.ID,
		Role:     user.Role,
		Email:    user.Email,
		FullName: user.FullName,
		SchoolID: user.Tenant(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
	return signed, expiresAt, err
}

// HashPassword returns a bcrypt hash for users.password_hash.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", appErrors.Clone(appErrors.ErrValidation, "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
