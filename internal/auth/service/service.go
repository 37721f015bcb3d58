// Package service implements password register, login, refresh token rotation
// with reuse detection, and logout.
package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"podnotes/backend/internal/audit"
	"podnotes/backend/internal/platform/apperr"
	"podnotes/backend/internal/security"
	"podnotes/backend/internal/server/middleware"
	sessiondomain "podnotes/backend/internal/session/domain"
	userdomain "podnotes/backend/internal/user/domain"
)

// AuthResult holds the outcome of Register, Login, or Refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
	Username     string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeAllSessionsByUser(ctx context.Context, userID string) error
	UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}

// AuthService implements password-only register, login, refresh, and logout.
type AuthService struct {
	users      UserRepo
	sessions   SessionRepo
	hasher     *security.Hasher
	tokens     *security.TokenProvider
	activity   audit.ActivityLogger
	refreshTTL time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
// activity may be nil.
func NewAuthService(users UserRepo, sessions SessionRepo, hasher *security.Hasher, tokens *security.TokenProvider, activity audit.ActivityLogger, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		tokens:     tokens,
		activity:   activity,
		refreshTTL: refreshTTL,
	}
}

// Register creates a user with the given email, password, and username, then
// logs them in. Duplicate email or username is rejected before insert.
func (s *AuthService) Register(ctx context.Context, email, password, username string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if existing, err := s.users.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Wrap(apperr.ErrDuplicate, "email already registered")
	}
	if existing, err := s.users.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Wrap(apperr.ErrDuplicate, "username already taken")
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if s.activity != nil {
		s.activity.Record(ctx, "", user.ID, "user_registered", user.ID, username)
	}
	return s.startSession(ctx, user)
}

// Login authenticates with email/password, creates a session, and returns
// tokens. Every failure mode returns the same credentials error so login
// cannot be used to probe which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperr.Wrap(apperr.ErrAuth, "invalid credentials")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != userdomain.UserStatusActive {
		return nil, apperr.Wrap(apperr.ErrAuth, "invalid credentials")
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, apperr.Wrap(apperr.ErrAuth, "invalid credentials")
	}
	return s.startSession(ctx, user)
}

// startSession issues a token pair and persists the backing session row.
func (s *AuthService) startSession(ctx context.Context, user *userdomain.User) (*AuthResult, error) {
	sessionID := uuid.New().String()
	refreshToken, jti, _, err := s.tokens.IssueRefresh(sessionID, user.ID)
	if err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sessionID, user.ID)
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		ExpiresAt:        time.Now().UTC().Add(s.refreshTTL),
		RefreshJti:       jti,
		RefreshTokenHash: security.HashRefreshToken(refreshToken),
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
		UserID:       user.ID,
		Username:     user.Username,
	}, nil
}

// Refresh validates the refresh token, rotates it, and returns new tokens.
// A jti mismatch means an already-rotated token was replayed; every session
// for that user is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, apperr.Wrap(apperr.ErrAuth, "invalid or expired refresh token")
	}
	sessionID, jti, userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrAuth, "invalid or expired refresh token")
	}
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.RevokedAt != nil {
		return nil, apperr.Wrap(apperr.ErrAuth, "invalid or expired refresh token")
	}
	if sess.RefreshJti != jti {
		_ = s.sessions.RevokeAllSessionsByUser(ctx, userID)
		return nil, apperr.Wrap(apperr.ErrAuth, "refresh token reuse detected; all sessions revoked")
	}
	if sess.RefreshTokenHash != "" && !security.RefreshTokenHashEqual(refreshToken, sess.RefreshTokenHash) {
		return nil, apperr.Wrap(apperr.ErrAuth, "invalid or expired refresh token")
	}
	now := time.Now().UTC()
	_ = s.sessions.UpdateLastSeen(ctx, sessionID, now)
	newRefresh, newJti, _, err := s.tokens.IssueRefresh(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateRefreshToken(ctx, sessionID, newJti, security.HashRefreshToken(newRefresh)); err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sessionID, userID)
	if err != nil {
		return nil, err
	}
	var username string
	if user, err := s.users.GetByID(ctx, userID); err == nil && user != nil {
		username = user.Username
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    accessExp,
		UserID:       userID,
		Username:     username,
	}, nil
}

// Logout revokes the session identified by the refresh token, or by the
// access token in context when no refresh token is given. An invalid refresh
// token is a no-op, not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		sessionID, _, _, err := s.tokens.ValidateRefresh(refreshToken)
		if err != nil {
			return nil
		}
		return s.sessions.Revoke(ctx, sessionID)
	}
	sessionID, ok := middleware.GetSessionID(ctx)
	if !ok {
		return nil
	}
	return s.sessions.Revoke(ctx, sessionID)
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Wrap(apperr.ErrValidation, "email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	if ok, _ := regexp.MatchString(simpleEmail, email); !ok {
		return apperr.Wrap(apperr.ErrValidation, "invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return apperr.Wrap(apperr.ErrValidation, "password must be at least 8 characters")
	}
	return nil
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

func validateUsername(username string) error {
	if username == "" {
		return apperr.Wrap(apperr.ErrValidation, "username is required")
	}
	if !usernamePattern.MatchString(username) {
		return apperr.Wrap(apperr.ErrValidation, "username must be 3-32 characters of letters, numbers, or underscore")
	}
	return nil
}
