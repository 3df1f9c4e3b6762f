package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/task-platform/internal/auth"
	"github.com/spec-kit/task-platform/internal/domain"
	"github.com/spec-kit/task-platform/internal/repository"
	"github.com/spec-kit/task-platform/internal/token"
	apperrors "github.com/spec-kit/task-platform/pkg/util"
)

// uniformLoginMessage is returned for both unknown usernames and wrong
// passwords so login failures cannot be used to enumerate accounts.
const uniformLoginMessage = "invalid username or password"

// uniqueViolationCode is the Postgres SQLSTATE for unique_violation.
const uniqueViolationCode = "23505"

// AuthService coordinates registration, login, and token verification.
type AuthService struct {
	users      repository.UserRepository
	issuer     *token.Issuer
	verifier   *token.Verifier
	bcryptCost int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Issuer     *token.Issuer
	Verifier   *token.Verifier
	BcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		issuer:     deps.Issuer,
		verifier:   deps.Verifier,
		bcryptCost: deps.BcryptCost,
	}
}

// Register creates a new user account. Duplicate username or email yields a
// conflict; the duplicate checks run username first, matching the API
// contract.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validateRegistration(username, email, password); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("username already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can slip past the lookups above and
		// trip the unique constraint instead.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return nil, apperrors.NewConflict("email already exists", nil)
			}
			return nil, apperrors.NewConflict("username already exists", nil)
		}
		return nil, err
	}
	return user, nil
}

// Login authenticates a user and issues a signed token. The error is
// identical whether the username is unknown or the password is wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("username and password are required", nil)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized(uniformLoginMessage)
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized(uniformLoginMessage)
	}

	signed, expiresAt, err := s.issuer.Issue(user.ID, user.Username)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, signed, expiresAt, nil
}

// VerifyToken validates a bearer token and returns its identity claims.
// Used by the verify endpoint so other services can introspect tokens
// without holding the public key themselves.
func (s *AuthService) VerifyToken(tokenStr string) (*token.Claims, error) {
	claims, err := s.verifier.Verify(tokenStr)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid or expired token")
	}
	return claims, nil
}

func validateRegistration(username, email, password string) error {
	if username == "" || email == "" || strings.TrimSpace(password) == "" {
		return apperrors.NewValidationError("username, email, and password are required", nil)
	}
	if utf8.RuneCountInString(username) > domain.UsernameMaxLen {
		return apperrors.NewValidationError("username must be 80 characters or less", nil)
	}
	if utf8.RuneCountInString(email) > domain.EmailMaxLen {
		return apperrors.NewValidationError("email must be 120 characters or less", nil)
	}
	return nil
}
