package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

// dummyPassword is hashed once so logins for unknown users still pay the
// cost of a hash comparison.
const dummyPassword = "not-a-real-password"

// AuthService implements registration, login and sign-out.
type AuthService struct {
	users   ports.UserRepository
	roles   *RoleCatalog
	hasher  ports.PasswordHasher
	tokens  ports.TokenCodec
	revoker ports.TokenRevoker
	audit   ports.AuditRecorder
	log     zerolog.Logger

	dummyHash string
	now       func() time.Time
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(
	users ports.UserRepository,
	roles *RoleCatalog,
	hasher ports.PasswordHasher,
	tokens ports.TokenCodec,
	revoker ports.TokenRevoker,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) *AuthService {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		log.Warn().Err(err).Msg("failed to prepare dummy password hash")
	}
	return &AuthService{
		users:     users,
		roles:     roles,
		hasher:    hasher,
		tokens:    tokens,
		revoker:   revoker,
		audit:     audit,
		log:       log,
		dummyHash: dummy,
		now:       time.Now,
	}
}

// Register creates a new account. Username uniqueness is checked before
// email uniqueness; the store's unique indexes settle concurrent races.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	log := s.log.With().Str("username", in.Username).Logger()

	taken, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("register: check username: %w", err)
	}
	if taken {
		return nil, s.rejectSignup(log, in.Username, domain.ErrDuplicateUsername)
	}

	taken, err = s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("register: check email: %w", err)
	}
	if taken {
		return nil, s.rejectSignup(log, in.Username, domain.ErrDuplicateEmail)
	}

	roles, err := s.roles.Resolve(in.Roles)
	if err != nil {
		return nil, s.rejectSignup(log, in.Username, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) || errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, s.rejectSignup(log, in.Username, err)
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	log.Info().Strs("authorities", created.Authorities()).Msg("user registered")
	s.record(domain.EventSignup, in.Username, "")
	return created, nil
}

// Login verifies credentials and issues a token. Unknown users and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		s.loginFailed(username, "missing_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("login: %w", err)
		}
		_ = s.hasher.Compare(s.dummyHash, password)
		s.loginFailed(username, "unknown_user")
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.loginFailed(username, "bad_password")
		return nil, domain.ErrInvalidCredentials
	}

	token, claims, err := s.tokens.Issue(user.Username, s.now())
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("username", user.Username).Msg("user signed in")
	s.record(domain.EventLogin, user.Username, "")

	return &ports.LoginResult{
		Token:       token,
		ExpiresAt:   claims.ExpiresAt,
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Authorities: user.Authorities(),
	}, nil
}

// Logout revokes the token that authenticated principal until it would
// have expired anyway.
func (s *AuthService) Logout(ctx context.Context, principal *domain.Principal) error {
	if principal == nil || principal.TokenID == "" {
		return domain.ErrUnauthorized
	}

	remaining := principal.ExpiresAt.Sub(s.now())
	if remaining > 0 && s.revoker != nil {
		if err := s.revoker.Revoke(ctx, principal.TokenID, remaining); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}

	s.log.Info().Str("username", principal.Username).Msg("user signed out")
	s.record(domain.EventLogout, principal.Username, "")
	return nil
}

func (s *AuthService) rejectSignup(log zerolog.Logger, username string, err error) error {
	log.Warn().Err(err).Msg("signup rejected")
	s.record(domain.EventSignupRejected, username, err.Error())
	return err
}

func (s *AuthService) loginFailed(username, reason string) {
	s.log.Warn().Str("username", username).Str("reason", reason).Msg("login failed")
	s.record(domain.EventLoginFailed, username, reason)
}

func (s *AuthService) record(typ domain.AuthEventType, username, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.AuthEvent{
		Type:       typ,
		Username:   username,
		Reason:     reason,
		OccurredAt: s.now().UTC(),
	})
}
