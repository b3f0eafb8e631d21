package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/workmanagement/taskboard/internal/core/domain"
	"github.com/workmanagement/taskboard/internal/core/feed"
	"github.com/workmanagement/taskboard/internal/core/ports"
)

const (
	msgSignupOK     = "Sign-up successful. Welcome!"
	msgSignupFailed = "Sign-up failed. Please try again."
	msgInvalidEmail = "A valid email address is required."
)

// SessionService owns sign-in state. It is the only writer of sessions;
// everything else reads them through the request Session or an identity
// stream.
type SessionService struct {
	users     ports.UserRepository
	sessions  ports.SessionStore
	changes   ports.ChangePublisher
	subs      ports.ChangeSubscriber
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewSessionService(
	users ports.UserRepository,
	sessions ports.SessionStore,
	changes ports.ChangePublisher,
	subs ports.ChangeSubscriber,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *SessionService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &SessionService{
		users:     users,
		sessions:  sessions,
		changes:   changes,
		subs:      subs,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// Signup validates the input and registers a new account. Every failure is
// reported through the result; it never returns an error.
func (s *SessionService) Signup(ctx context.Context, email, password, role string) domain.SignupResult {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.SignupResult{Message: msgInvalidEmail}
	}
	if !domain.ValidPassword(password) {
		return domain.SignupResult{Message: domain.PasswordPolicyMessage}
	}
	if !domain.ValidRole(role) {
		return domain.SignupResult{Message: domain.ErrInvalidRole.Message}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error().Err(err).Msg("password hash failed")
		return domain.SignupResult{Message: msgSignupFailed}
	}

	user, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if !errors.Is(err, domain.ErrUserExists) {
			s.log.Error().Err(err).Str("email", email).Msg("signup failed")
		}
		return domain.SignupResult{Message: domain.UserMessage(err, msgSignupFailed)}
	}

	publish(ctx, s.changes, s.log, ports.TopicUsers, nil)
	s.log.Info().Str("user_id", user.ID).Str("role", role).Msg("user signed up")
	return domain.SignupResult{Success: true, Message: msgSignupOK}
}

// Login checks credentials, resolves the role by id and opens a session.
func (s *SessionService) Login(ctx context.Context, email, password string) (string, *domain.User, domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.Session{}, domain.ErrInvalidCredentials
	}

	found, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.Session{}, domain.ErrInvalidCredentials
		}
		return "", nil, domain.Session{}, domain.Wrap(err, "could not sign in, please try again")
	}
	if bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.Session{}, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByID(ctx, found.ID)
	if err != nil {
		return "", nil, domain.Session{}, domain.Wrap(err, "could not sign in, please try again")
	}

	sess := domain.Session{
		ID:     uuid.NewString(),
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}
	if err := s.sessions.Create(ctx, sess.ID, user.ID, s.tokenTTL); err != nil {
		return "", nil, domain.Session{}, domain.Wrap(err, "could not sign in, please try again")
	}

	token, err := s.generateToken(sess)
	if err != nil {
		return "", nil, domain.Session{}, fmt.Errorf("sign token: %w", err)
	}

	return token, user, sess, nil
}

// Logout revokes the session and notifies its identity subscribers. Nothing
// is rolled back if the revocation fails.
func (s *SessionService) Logout(ctx context.Context, sess domain.Session) error {
	err := s.sessions.Revoke(ctx, sess.ID)
	publish(ctx, s.changes, s.log, ports.SessionTopic(sess.ID), nil)
	if err != nil {
		return domain.Wrap(err, "could not sign out cleanly")
	}
	return nil
}

// Authenticate verifies a token and checks that its session is still live.
func (s *SessionService) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return domain.Session{}, domain.ErrUnauthenticated
	}

	sess := domain.Session{
		ID:     claimString(claims, "sid"),
		UserID: claimString(claims, "sub"),
		Email:  claimString(claims, "email"),
		Role:   claimString(claims, "role"),
	}
	if sess.ID == "" || sess.UserID == "" || !domain.ValidRole(sess.Role) {
		return domain.Session{}, domain.ErrUnauthenticated
	}

	userID, ok, err := s.sessions.Lookup(ctx, sess.ID)
	if err != nil {
		return domain.Session{}, domain.Wrap(err, "could not verify session")
	}
	if !ok || userID != sess.UserID {
		return domain.Session{}, domain.ErrSessionExpired
	}
	return sess, nil
}

// WatchIdentity streams the identity behind sessionID: once immediately,
// then after every sign-in or sign-out affecting it. The role is looked up
// again on every emission.
func (s *SessionService) WatchIdentity(ctx context.Context, sessionID string) (*feed.Stream[domain.Identity], error) {
	signals, release := s.subs.Subscribe(ports.SessionTopic(sessionID))
	return feed.Watch(ctx, signals, release, func(ctx context.Context) (domain.Identity, error) {
		return s.resolveIdentity(ctx, sessionID)
	}, s.log)
}

func (s *SessionService) resolveIdentity(ctx context.Context, sessionID string) (domain.Identity, error) {
	userID, ok, err := s.sessions.Lookup(ctx, sessionID)
	if err != nil {
		return domain.Identity{}, domain.Wrap(err, "could not verify session")
	}
	if !ok {
		return domain.Identity{}, nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Identity{}, nil
		}
		return domain.Identity{}, domain.Wrap(err, "could not load user")
	}
	return domain.Identity{SignedIn: true, User: user, Role: user.Role}, nil
}

func (s *SessionService) generateToken(sess domain.Session) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   sess.UserID,
		"email": sess.Email,
		"role":  sess.Role,
		"sid":   sess.ID,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func claimString(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
