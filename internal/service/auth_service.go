package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"linkboard/internal/auth"
	"linkboard/internal/models"
	"linkboard/internal/observability"
	"linkboard/internal/repository"
	"linkboard/internal/validation"
)

// invalidCredentials is returned for both an unknown email and a wrong
// password so the two cases cannot be told apart.
const invalidCredentials = "Invalid Credentials"

// AuthService registers users, logs them in and resolves bearer tokens.
type AuthService struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenService

	// dummyHash is compared against when the email is unknown, keeping
	// login latency independent of whether the account exists.
	dummyHash func() string
}

func NewAuthService(userRepo repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		dummyHash: sync.OnceValue(func() string {
			h, _ := hasher.Hash("linkboard-dummy-password")
			return h
		}),
	}
}

// Register validates the payload, hashes the password and stores the user.
// A duplicate email surfaces as a conflict from the unique index.
func (s *AuthService) Register(ctx context.Context, in models.UserCreate) (*models.User, error) {
	email := strings.TrimSpace(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Email: email, Password: hashed}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	observability.UsersRegistered.Inc()
	return user, nil
}

// Login checks the credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Token, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("username and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.Verify(password, s.dummyHash())
		observability.AuthFailures.WithLabelValues("unknown_email").Inc()
		return nil, models.NewForbiddenError(invalidCredentials)
	}
	if !s.hasher.Verify(password, user.Password) {
		observability.AuthFailures.WithLabelValues("wrong_password").Inc()
		return nil, models.NewForbiddenError(invalidCredentials)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.Token{AccessToken: token, TokenType: "bearer"}, nil
}

// ResolveIdentity verifies a bearer token and loads the user it names.
// Tokens for users that no longer exist are rejected like invalid ones, so the
// lookup skips the cache.
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return nil, models.NewUnauthorizedError(models.MsgInvalidToken)
		}
		return nil, models.NewInternalError(err)
	}

	user, err := s.userRepo.GetByIDUncached(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError(models.MsgInvalidToken)
		}
		return nil, err
	}
	return user, nil
}
