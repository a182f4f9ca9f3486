package services

import (
	"context"
	"strings"

	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	"github.com/sharada257/Feedback-Management/internal/infrastructure/observability"
	apperrors "github.com/sharada257/Feedback-Management/pkg/errors"
)

// AuthAPI is the account part of the REST client
type AuthAPI interface {
	Register(ctx context.Context, input entities.RegisterInput) (*entities.AuthResponse, error)
	Login(ctx context.Context, username, password string) (*entities.AuthResponse, error)
}

// AuthService handles register, login and logout
type AuthService struct {
	api     AuthAPI
	session *SessionService
}

func NewAuthService(api AuthAPI, session *SessionService) *AuthService {
	return &AuthService{api: api, session: session}
}

// Register creates an account. It does not log in.
func (s *AuthService) Register(ctx context.Context, input entities.RegisterInput) (*entities.AuthResponse, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Username == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("username and password are required")
	}
	if input.Role == "" {
		input.Role = entities.RoleContributor
	}
	input.Role = entities.ParseRole(string(input.Role))
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role " + string(input.Role))
	}
	return s.api.Register(ctx, input)
}

// Login authenticates and persists the session
func (s *AuthService) Login(ctx context.Context, username, password string) (entities.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return entities.Session{}, apperrors.NewValidationError("username and password are required")
	}

	resp, err := s.api.Login(ctx, username, password)
	if err != nil {
		return entities.Session{}, err
	}
	if resp.Token == "" {
		return entities.Session{}, apperrors.NewExternalError("login response carried no token", nil)
	}

	if err := s.session.Login(ctx, resp.Token, entities.Role(resp.Role), resp.Username); err != nil {
		return entities.Session{}, err
	}
	observability.LoggerFromContext(ctx).Info().Str("username", resp.Username).Msg("logged in")

	session, _ := s.session.Current(ctx)
	return session, nil
}

// Logout clears the session
func (s *AuthService) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}
