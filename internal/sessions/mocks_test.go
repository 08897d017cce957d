package sessions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/FalakNet/Account/internal/identity"
	"github.com/FalakNet/Account/model"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User

	// when set, the next Create fails with a duplicate-key error after
	// inserting the user, simulating a concurrent first login
	duplicateOnCreate bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		nextID: 1,
		users:  make(map[uint]*model.User),
	}
}

func (r *fakeUserRepo) WithTx(tx *gorm.DB) UserRepository {
	return r
}

func (r *fakeUserRepo) FirstByID(ctx context.Context, userID uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, exists := r.users[userID]; exists {
		cloned := *user
		return &cloned, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FirstBySubject(ctx context.Context, subject string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.firstBySubjectLocked(subject)
}

func (r *fakeUserRepo) firstBySubjectLocked(subject string) (*model.User, error) {
	for _, user := range r.users {
		if user.Subject == subject {
			cloned := *user
			return &cloned, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.duplicateOnCreate {
		r.duplicateOnCreate = false
		stored := *user
		stored.ID = r.nextID
		stored.CreatedAt = time.Now()
		r.nextID++
		r.users[stored.ID] = &stored
		return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	}
	if _, err := r.firstBySubjectLocked(user.Subject); err == nil {
		return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	}
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.nextID++
	cloned := *user
	r.users[user.ID] = &cloned
	return nil
}

func (r *fakeUserRepo) Updates(ctx context.Context, userID uint, columns map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, exists := r.users[userID]
	if !exists {
		return nil
	}
	if v, ok := columns["last_login_at"]; ok {
		user.LastLoginAt = v.(time.Time)
	}
	if v, ok := columns["email_verified"]; ok {
		user.EmailVerified = v.(bool)
	}
	if v, ok := columns["display_name"]; ok {
		user.DisplayName = v.(string)
	}
	user.UpdatedAt = time.Now()
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	nextID   uint
	sessions map[uint]*model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		nextID:   1,
		sessions: make(map[uint]*model.Session),
	}
}

func (r *fakeSessionRepo) WithTx(tx *gorm.DB) SessionRepository {
	return r
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.ID = r.nextID
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	r.nextID++
	cloned := *session
	r.sessions[session.ID] = &cloned
	return nil
}

func (r *fakeSessionRepo) FirstByID(ctx context.Context, sessionID uint) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, exists := r.sessions[sessionID]; exists {
		cloned := *session
		return &cloned, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) FirstActiveByToken(ctx context.Context, token string, now time.Time) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.SessionToken == token && session.IsActive && session.ExpiresAt.After(now) {
			cloned := *session
			return &cloned, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) FindActiveByUser(ctx context.Context, userID uint, now time.Time) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*model.Session
	for _, session := range r.sessions {
		if session.UserID == userID && session.IsActive && session.ExpiresAt.After(now) {
			cloned := *session
			result = append(result, &cloned)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *fakeSessionRepo) RotateToken(ctx context.Context, oldToken string, newToken string, expiresAt time.Time, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows int64
	for _, session := range r.sessions {
		if session.SessionToken == oldToken && session.IsActive && session.ExpiresAt.After(now) {
			session.SessionToken = newToken
			session.ExpiresAt = expiresAt
			session.UpdatedAt = time.Now()
			rows++
		}
	}
	return rows, nil
}

func (r *fakeSessionRepo) DeactivateByToken(ctx context.Context, token string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows int64
	for _, session := range r.sessions {
		if session.SessionToken == token && session.IsActive {
			session.IsActive = false
			session.UpdatedAt = time.Now()
			rows++
		}
	}
	return rows, nil
}

func (r *fakeSessionRepo) DeactivateByID(ctx context.Context, sessionID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, exists := r.sessions[sessionID]; exists && session.IsActive {
		session.IsActive = false
		session.UpdatedAt = time.Now()
		return 1, nil
	}
	return 0, nil
}

func (r *fakeSessionRepo) DeactivateOverflow(ctx context.Context, userID uint, keep int, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []*model.Session
	for _, session := range r.sessions {
		if session.UserID == userID && session.IsActive && session.ExpiresAt.After(now) {
			active = append(active, session)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].ID > active[j].ID
	})
	var tokens []string
	for i := keep; i < len(active); i++ {
		active[i].IsActive = false
		tokens = append(tokens, active[i].SessionToken)
	}
	return tokens, nil
}

func (r *fakeSessionRepo) PurgeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows int64
	for id, session := range r.sessions {
		if session.ExpiresAt.Before(cutoff) || (!session.IsActive && session.UpdatedAt.Before(cutoff)) {
			delete(r.sessions, id)
			rows++
		}
	}
	return rows, nil
}

type fakeVerifier struct {
	claims map[string]identity.Claims
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{
		claims: make(map[string]identity.Claims),
	}
}

func (v *fakeVerifier) VerifyToken(ctx context.Context, idToken string) identity.Result[identity.Claims] {
	if claims, exists := v.claims[idToken]; exists {
		return identity.Result[identity.Claims]{Success: true, Data: claims}
	}
	return identity.Result[identity.Claims]{Error: "ID token has been revoked"}
}

func (v *fakeVerifier) GetUser(ctx context.Context, subject string) identity.Result[identity.ProviderUser] {
	return identity.Result[identity.ProviderUser]{Error: "not implemented"}
}

type fakeMetrics struct {
	mu      sync.Mutex
	issued  int
	rotated int
	revoked int
	failed  int
}

func (m *fakeMetrics) SessionIssued(newUser bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued++
}

func (m *fakeMetrics) SessionRotated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotated++
}

func (m *fakeMetrics) SessionRevoked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked++
}

func (m *fakeMetrics) VerifyFailed(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
}
