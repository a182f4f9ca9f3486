package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	"github.com/sharada257/Feedback-Management/internal/domain/providers"
	"github.com/sharada257/Feedback-Management/internal/infrastructure/observability"
	apperrors "github.com/sharada257/Feedback-Management/pkg/errors"
)

// Persisted session keys.
const (
	sessionKeyToken    = "token"
	sessionKeyRole     = "role"
	sessionKeyUsername = "username"
)

// GuardResult is the outcome of a route guard check
type GuardResult int

const (
	GuardAllow GuardResult = iota
	GuardRedirectLogin
	GuardRedirectDefault
)

func (g GuardResult) String() string {
	switch g {
	case GuardAllow:
		return "allow"
	case GuardRedirectLogin:
		return "redirect_login"
	case GuardRedirectDefault:
		return "redirect_default"
	default:
		return fmt.Sprintf("GuardResult(%d)", int(g))
	}
}

// ProfileFetcher resolves the logged-in user
type ProfileFetcher interface {
	Profile(ctx context.Context) (*entities.Profile, error)
}

// SessionService is the single owner of login state. Every reader goes
// through it and only Login and Logout mutate it.
type SessionService struct {
	store    providers.Storage
	profiles ProfileFetcher
	nav      providers.Navigator
	bus      providers.EventBus

	mu      sync.Mutex
	session *entities.Session
	user    *entities.CurrentUser
}

// NewSessionService creates a session service. profiles and bus may be nil.
func NewSessionService(store providers.Storage, profiles ProfileFetcher, nav providers.Navigator, bus providers.EventBus) *SessionService {
	return &SessionService{
		store:    store,
		profiles: profiles,
		nav:      nav,
		bus:      bus,
	}
}

// SetProfileFetcher wires the API client after construction
func (s *SessionService) SetProfileFetcher(p ProfileFetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = p
}

// Login persists token, role (lowercased) and username
func (s *SessionService) Login(ctx context.Context, token string, role entities.Role, username string) error {
	if token == "" {
		return apperrors.NewValidationError("token is required")
	}
	role = entities.ParseRole(string(role))

	s.mu.Lock()
	defer s.mu.Unlock()

	// The token goes last: without it the other keys do not form a session.
	values := []struct{ key, value string }{
		{sessionKeyRole, string(role)},
		{sessionKeyUsername, username},
		{sessionKeyToken, token},
	}
	for _, kv := range values {
		if err := s.store.Set(ctx, kv.key, []byte(kv.value)); err != nil {
			if delErr := s.store.Delete(ctx, sessionKeyToken, sessionKeyRole, sessionKeyUsername); delErr != nil {
				observability.LoggerFromContext(ctx).Warn().Err(delErr).Msg("failed to clear partial session")
			}
			s.session = nil
			s.user = nil
			return apperrors.NewInternalError("failed to persist session", err)
		}
	}

	s.session = &entities.Session{Token: token, Role: role, Username: username}
	s.user = nil
	return nil
}

// Logout clears the session and shows the login surface
func (s *SessionService) Logout(ctx context.Context) error {
	err := s.clear(ctx)
	if s.nav != nil {
		s.nav.ToLogin()
	}
	return err
}

// HandleUnauthorized is the API client's 401 policy
func (s *SessionService) HandleUnauthorized(ctx context.Context) {
	if err := s.Logout(ctx); err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Msg("failed to clear session after 401")
	}
}

func (s *SessionService) clear(ctx context.Context) error {
	s.mu.Lock()
	if err := s.loadLocked(ctx); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to read session before clearing")
	}
	hadSession := s.session != nil
	s.session = nil
	s.user = nil
	err := s.store.Delete(ctx, sessionKeyToken, sessionKeyRole, sessionKeyUsername)
	s.mu.Unlock()

	if hadSession && s.bus != nil {
		event := entities.NewCollectionEvent(entities.EventSessionEnded, 0, 0)
		if pubErr := s.bus.Publish(ctx, providers.EventChannelFeedbackUpdates, event); pubErr != nil {
			observability.LoggerFromContext(ctx).Warn().Err(pubErr).Msg("failed to publish session end")
		}
	}
	if err != nil {
		return apperrors.NewInternalError("failed to clear session", err)
	}
	return nil
}

// Current returns a copy of the session; ok is false without a token
func (s *SessionService) Current(ctx context.Context) (entities.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to read session")
		return entities.Session{}, false
	}
	if s.session == nil {
		return entities.Session{}, false
	}
	return *s.session, true
}

// Token implements feedbackapi.TokenSource
func (s *SessionService) Token(ctx context.Context) string {
	session, ok := s.Current(ctx)
	if !ok {
		return ""
	}
	return session.Token
}

// loadLocked re-reads the session from the store, so a login or logout
// made by another process sharing the backend is seen on the next call.
func (s *SessionService) loadLocked(ctx context.Context) error {
	values := make(map[string]string, 3)
	for _, key := range []string{sessionKeyToken, sessionKeyRole, sessionKeyUsername} {
		raw, err := s.store.Get(ctx, key)
		if errors.Is(err, providers.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		values[key] = string(raw)
	}

	token := values[sessionKeyToken]
	if token == "" {
		s.session = nil
		s.user = nil
		return nil
	}
	if s.session == nil || s.session.Token != token {
		s.user = nil
	}
	s.session = &entities.Session{
		Token:    token,
		Role:     entities.ParseRole(values[sessionKeyRole]),
		Username: values[sessionKeyUsername],
	}
	return nil
}

// CurrentUser resolves the logged-in user once per session
func (s *SessionService) CurrentUser(ctx context.Context) (*entities.CurrentUser, error) {
	s.mu.Lock()
	if err := s.loadLocked(ctx); err != nil {
		s.mu.Unlock()
		return nil, apperrors.NewInternalError("failed to read session", err)
	}
	if s.session == nil {
		s.mu.Unlock()
		return nil, apperrors.NewUnauthorizedError("not logged in")
	}
	if s.user != nil {
		user := *s.user
		s.mu.Unlock()
		return &user, nil
	}
	profiles := s.profiles
	token := s.session.Token
	s.mu.Unlock()

	if profiles == nil {
		return nil, apperrors.NewInternalError("no profile source configured", nil)
	}
	profile, err := profiles.Profile(ctx)
	if err != nil {
		return nil, err
	}
	user := profile.CurrentUser()

	s.mu.Lock()
	// Only memoize for the session that issued the request.
	if s.session != nil && s.session.Token == token {
		s.user = user
	}
	s.mu.Unlock()

	out := *user
	return &out, nil
}

// Guard checks a route's role allow-list and navigates when access is denied.
// An empty allow-list admits every logged-in user.
func (s *SessionService) Guard(ctx context.Context, allowed ...entities.Role) GuardResult {
	session, ok := s.Current(ctx)
	if !ok {
		if s.nav != nil {
			s.nav.ToLogin()
		}
		return GuardRedirectLogin
	}
	if len(allowed) == 0 {
		return GuardAllow
	}
	for _, role := range allowed {
		if entities.ParseRole(string(role)) == session.Role {
			return GuardAllow
		}
	}
	if s.nav != nil {
		s.nav.ToDefault()
	}
	return GuardRedirectDefault
}
