package sessions

import (
	"context"
	"time"

	"github.com/FalakNet/Account/model"
	"gorm.io/gorm"
)

const overflowScanLimit = 100

type SessionRepository interface {
	WithTx(tx *gorm.DB) SessionRepository
	Create(ctx context.Context, session *model.Session) error
	FirstByID(ctx context.Context, sessionID uint) (*model.Session, error)
	FirstActiveByToken(ctx context.Context, token string, now time.Time) (*model.Session, error)
	FindActiveByUser(ctx context.Context, userID uint, now time.Time) ([]*model.Session, error)
	RotateToken(ctx context.Context, oldToken string, newToken string, expiresAt time.Time, now time.Time) (int64, error)
	DeactivateByToken(ctx context.Context, token string) (int64, error)
	DeactivateByID(ctx context.Context, sessionID uint) (int64, error)
	DeactivateOverflow(ctx context.Context, userID uint, keep int, now time.Time) ([]string, error)
	PurgeStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) FirstByID(ctx context.Context, sessionID uint) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FirstActiveByToken(ctx context.Context, token string, now time.Time) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Where("session_token = ? AND is_active = ? AND expires_at > ?", token, true, now).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindActiveByUser(ctx context.Context, userID uint, now time.Time) ([]*model.Session, error) {
	var sessions []*model.Session
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, now).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// RotateToken is a compare-and-swap on the previous token value. Zero rows
// affected means the session is gone, revoked, expired, or a concurrent
// refresh already rotated it.
func (r *sessionRepository) RotateToken(ctx context.Context, oldToken string, newToken string, expiresAt time.Time, now time.Time) (int64, error) {
	ret := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("session_token = ? AND is_active = ? AND expires_at > ?", oldToken, true, now).
		Updates(map[string]interface{}{
			"session_token": newToken,
			"expires_at":    expiresAt,
		})
	return ret.RowsAffected, ret.Error
}

func (r *sessionRepository) DeactivateByToken(ctx context.Context, token string) (int64, error) {
	ret := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("session_token = ?", token).
		Update("is_active", false)
	return ret.RowsAffected, ret.Error
}

func (r *sessionRepository) DeactivateByID(ctx context.Context, sessionID uint) (int64, error) {
	ret := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ?", sessionID).
		Update("is_active", false)
	return ret.RowsAffected, ret.Error
}

// DeactivateOverflow revokes the oldest active sessions beyond keep and
// returns their token values so callers can evict cache entries.
func (r *sessionRepository) DeactivateOverflow(ctx context.Context, userID uint, keep int, now time.Time) ([]string, error) {
	var stale []model.Session
	err := r.db.WithContext(ctx).
		Select("id", "session_token").
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, now).
		Order("created_at DESC").
		Offset(keep).Limit(overflowScanLimit).
		Find(&stale).Error
	if err != nil || len(stale) == 0 {
		return nil, err
	}
	ids := make([]uint, 0, len(stale))
	tokens := make([]string, 0, len(stale))
	for _, session := range stale {
		ids = append(ids, session.ID)
		tokens = append(tokens, session.SessionToken)
	}
	ret := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id IN ?", ids).
		Update("is_active", false)
	if ret.Error != nil {
		return nil, ret.Error
	}
	return tokens, nil
}

// PurgeStale deletes sessions expired or revoked since before cutoff.
func (r *sessionRepository) PurgeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	ret := r.db.WithContext(ctx).
		Where("expires_at < ? OR (is_active = ? AND updated_at < ?)", cutoff, false, cutoff).
		Delete(&model.Session{})
	return ret.RowsAffected, ret.Error
}

func (r *sessionRepository) WithTx(tx *gorm.DB) SessionRepository {
	return NewSessionRepository(tx)
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db}
}
