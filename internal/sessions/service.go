package sessions

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/FalakNet/Account/internal/audit"
	"github.com/FalakNet/Account/internal/identity"
	"github.com/FalakNet/Account/model"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// MetricsRecorder counts session lifecycle events.
type MetricsRecorder interface {
	SessionIssued(newUser bool)
	SessionRotated()
	SessionRevoked()
	VerifyFailed(stage string)
}

// RequestInfo is the network context of the calling client.
type RequestInfo struct {
	IP        string
	UserAgent string
}

// UserView is the publicly safe projection of a user. It excludes the
// external subject id.
type UserView struct {
	ID            uint      `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"displayName,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewUserView(user *model.User) UserView {
	return UserView{
		ID:            user.ID,
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
	}
}

// SessionView is the projection of a session returned to its owner. The
// token value is never included.
type SessionView struct {
	ID         uint      `json:"id"`
	DeviceInfo string    `json:"deviceInfo,omitempty"`
	IPAddress  string    `json:"ipAddress,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// SessionGrant is the outcome of a successful login.
type SessionGrant struct {
	User      UserView
	Token     string
	SessionID uint
}

// Config carries the process-wide session settings, injected at
// construction rather than read from the environment.
type Config struct {
	TokenSecret        string
	TokenMaxAge        time.Duration
	MaxSessionsPerUser int
}

// SessionService owns the session lifecycle: issuance against the identity
// provider, in-place token rotation, and revocation.
type SessionService struct {
	runTx       func(ctx context.Context, fn func(tx *gorm.DB) error) error
	userRepo    UserRepository
	sessionRepo SessionRepository
	verifier    identity.Verifier
	minter      *TokenMinter
	cache       *SessionCache
	metrics     MetricsRecorder
	maxSessions int
}

func NewSessionService(
	db *gorm.DB,
	userRepo UserRepository,
	sessionRepo SessionRepository,
	verifier identity.Verifier,
	cache *SessionCache,
	metrics MetricsRecorder,
	cfg Config,
) *SessionService {
	return &SessionService{
		runTx: func(ctx context.Context, fn func(tx *gorm.DB) error) error {
			return db.WithContext(ctx).Transaction(fn)
		},
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		verifier:    verifier,
		minter:      NewTokenMinter(cfg.TokenSecret, cfg.TokenMaxAge),
		cache:       cache,
		metrics:     metrics,
		maxSessions: cfg.MaxSessionsPerUser,
	}
}

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// IssueSession verifies an identity token, finds or creates the local user
// and mints a new session. User and Session writes share one transaction;
// the audit write happens after commit and never fails the login.
func (s *SessionService) IssueSession(ctx context.Context, identityToken string, req RequestInfo) (*SessionGrant, error) {
	if identityToken == "" {
		return nil, ErrIdentityTokenRequired
	}

	result := s.verifier.VerifyToken(ctx, identityToken)
	if !result.Success {
		if s.metrics != nil {
			s.metrics.VerifyFailed("identity")
		}
		return nil, &UnauthorizedError{Message: "invalid identity token: " + result.Error}
	}
	claims := result.Data

	var (
		now     = time.Now()
		user    *model.User
		session *model.Session
		token   string
		newUser bool
		evicted []string
	)
	err := s.runTx(ctx, func(tx *gorm.DB) error {
		var err error
		userRepo := s.userRepo.WithTx(tx)

		user, err = userRepo.FirstBySubject(ctx, claims.Subject)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = &model.User{
				Subject:       claims.Subject,
				Email:         claims.Email,
				DisplayName:   claims.DisplayName,
				EmailVerified: claims.EmailVerified,
				LastLoginAt:   now,
			}
			err = userRepo.Create(ctx, user)
			if isDuplicateKeyError(err) {
				// lost a concurrent first login for this subject, the
				// unique index on subject serialized us
				user, err = userRepo.FirstBySubject(ctx, claims.Subject)
			} else if err == nil {
				newUser = true
			}
		}
		if err != nil {
			return err
		}

		if !newUser {
			updates := map[string]interface{}{
				"last_login_at": now,
			}
			// email-verified is monotonic, display name never reverts to empty
			if claims.EmailVerified && !user.EmailVerified {
				updates["email_verified"] = true
			}
			if claims.DisplayName != "" && claims.DisplayName != user.DisplayName {
				updates["display_name"] = claims.DisplayName
			}
			if err := userRepo.Updates(ctx, user.ID, updates); err != nil {
				return err
			}
			user.LastLoginAt = now
			user.EmailVerified = user.EmailVerified || claims.EmailVerified
			if claims.DisplayName != "" {
				user.DisplayName = claims.DisplayName
			}
		}

		var expiresAt time.Time
		token, expiresAt, err = s.minter.Mint(user.ID, user.Subject, user.Email)
		if err != nil {
			return err
		}

		session = &model.Session{
			UserID:       user.ID,
			SessionToken: token,
			DeviceInfo:   req.UserAgent,
			IPAddress:    req.IP,
			UserAgent:    req.UserAgent,
			ExpiresAt:    expiresAt,
			IsActive:     true,
		}
		sessionRepo := s.sessionRepo.WithTx(tx)
		if err := sessionRepo.Create(ctx, session); err != nil {
			return err
		}

		if s.maxSessions > 0 {
			tokens, err := sessionRepo.DeactivateOverflow(ctx, user.ID, s.maxSessions, now)
			if err != nil {
				return err
			}
			evicted = tokens
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	origin := audit.Origin{IP: req.IP, UserAgent: req.UserAgent}
	if newUser {
		if err := audit.RecordUserCreated(ctx, user.ID, origin); err != nil {
			slog.Warn("Failed to record user creation audit event", "userId", user.ID, "error", err)
		}
	} else {
		if err := audit.RecordUserLogin(ctx, user.ID, origin); err != nil {
			slog.Warn("Failed to record user login audit event", "userId", user.ID, "error", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, token, session.ID, user.ID, session.ExpiresAt); err != nil {
			slog.Warn("Failed to cache session", "sessionId", session.ID, "error", err)
		}
		// sessions revoked by the cap must stop authenticating immediately
		for _, staleToken := range evicted {
			if err := s.cache.Drop(ctx, staleToken); err != nil {
				slog.Warn("Failed to drop capped session from cache", "userId", user.ID, "error", err)
			}
		}
	}
	if s.metrics != nil {
		s.metrics.SessionIssued(newUser)
	}

	return &SessionGrant{
		User:      NewUserView(user),
		Token:     token,
		SessionID: session.ID,
	}, nil
}

// RefreshSession rotates the token of an active, unexpired session in
// place. The session store overrules the token's own embedded expiry, and
// the compare-and-swap on the old token value makes concurrent refreshes
// conflict instead of silently orphaning a token.
func (s *SessionService) RefreshSession(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrSessionTokenRequired
	}
	if _, err := s.minter.Verify(token); err != nil {
		if s.metrics != nil {
			s.metrics.VerifyFailed("session")
		}
		return "", ErrSessionInvalid
	}

	now := time.Now()
	session, err := s.sessionRepo.FirstActiveByToken(ctx, token, now)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrSessionInvalid
	}
	if err != nil {
		return "", err
	}

	user, err := s.userRepo.FirstByID(ctx, session.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrSessionInvalid
	}
	if err != nil {
		return "", err
	}

	newToken, expiresAt, err := s.minter.Mint(user.ID, user.Subject, user.Email)
	if err != nil {
		return "", err
	}

	rows, err := s.sessionRepo.RotateToken(ctx, token, newToken, expiresAt, now)
	if err != nil {
		return "", err
	}
	if rows == 0 {
		return "", ErrSessionInvalid
	}

	if s.cache != nil {
		if err := s.cache.Drop(ctx, token); err != nil {
			slog.Warn("Failed to drop rotated session from cache", "sessionId", session.ID, "error", err)
		}
		if err := s.cache.Put(ctx, newToken, session.ID, user.ID, expiresAt); err != nil {
			slog.Warn("Failed to cache rotated session", "sessionId", session.ID, "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.SessionRotated()
	}
	return newToken, nil
}

// Logout revokes every session matching the token value. It is an
// idempotent no-op for missing, unknown or already revoked tokens.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	rows, err := s.sessionRepo.DeactivateByToken(ctx, token)
	if err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Drop(ctx, token); err != nil {
			slog.Warn("Failed to drop session from cache", "error", err)
		}
	}
	if rows > 0 && s.metrics != nil {
		s.metrics.SessionRevoked()
	}
	return nil
}

// Authenticate resolves a presented session token to its user, checking the
// cache first and falling back to the session store.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*model.User, uint, error) {
	if token == "" {
		return nil, 0, &UnauthorizedError{Message: "missing authentication token"}
	}
	if _, err := s.minter.Verify(token); err != nil {
		return nil, 0, ErrSessionInvalid
	}

	if s.cache != nil {
		if cached, found := s.cache.Get(ctx, token); found {
			user, err := s.userRepo.FirstByID(ctx, cached.UserID)
			if err == nil {
				return user, cached.SessionID, nil
			}
		}
	}

	now := time.Now()
	session, err := s.sessionRepo.FirstActiveByToken(ctx, token, now)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, ErrSessionInvalid
	}
	if err != nil {
		return nil, 0, err
	}

	user, err := s.userRepo.FirstByID(ctx, session.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, ErrSessionInvalid
	}
	if err != nil {
		return nil, 0, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, token, session.ID, user.ID, session.ExpiresAt); err != nil {
			slog.Warn("Failed to cache session", "sessionId", session.ID, "error", err)
		}
	}
	return user, session.ID, nil
}

// ListSessions returns the active sessions owned by a user.
func (s *SessionService) ListSessions(ctx context.Context, userID uint) ([]SessionView, error) {
	sessions, err := s.sessionRepo.FindActiveByUser(ctx, userID, time.Now())
	if err != nil {
		return nil, err
	}
	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, SessionView{
			ID:         session.ID,
			DeviceInfo: session.DeviceInfo,
			IPAddress:  session.IPAddress,
			CreatedAt:  session.CreatedAt,
			ExpiresAt:  session.ExpiresAt,
		})
	}
	return views, nil
}

// RevokeSession revokes one of the caller's own sessions by id.
func (s *SessionService) RevokeSession(ctx context.Context, userID uint, sessionID uint, req RequestInfo) error {
	session, err := s.sessionRepo.FirstByID(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return &ForbiddenError{Message: "session belongs to another user"}
	}

	rows, err := s.sessionRepo.DeactivateByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Drop(ctx, session.SessionToken); err != nil {
			slog.Warn("Failed to drop revoked session from cache", "sessionId", sessionID, "error", err)
		}
	}
	if rows > 0 {
		if err := audit.RecordSessionRevoked(ctx, userID, audit.Origin{IP: req.IP, UserAgent: req.UserAgent}); err != nil {
			slog.Warn("Failed to record session revocation audit event", "userId", userID, "error", err)
		}
		if s.metrics != nil {
			s.metrics.SessionRevoked()
		}
	}
	return nil
}

// GetUser returns a user by local id.
func (s *SessionService) GetUser(ctx context.Context, userID uint) (*model.User, error) {
	return s.userRepo.FirstByID(ctx, userID)
}

// UpdateDisplayName changes a user's display name. Empty names are
// rejected, matching the never-overwrite-with-empty rule on login.
func (s *SessionService) UpdateDisplayName(ctx context.Context, userID uint, displayName string) (*model.User, error) {
	if displayName == "" {
		return nil, &ValidationError{Message: "display name is required"}
	}
	if len(displayName) > 128 {
		return nil, &ValidationError{Message: "display name must be at most 128 characters"}
	}
	err := s.userRepo.Updates(ctx, userID, map[string]interface{}{
		"display_name": displayName,
	})
	if err != nil {
		return nil, err
	}
	return s.userRepo.FirstByID(ctx, userID)
}
