package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	SessionTTL    = 24 * time.Hour
	SessionCookie = "session_id"
)

// SessionStore wraps Redis for session management. Besides the
// sessionID -> userID mapping it keeps a per-user set of live session
// IDs so that banning a user can revoke every session at once.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// Create stores a new session mapping sessionID -> userID.
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	sid := uuid.New().String()
	if err := s.rdb.Set(ctx, "session:"+sid, userID, SessionTTL).Err(); err != nil {
		return "", err
	}
	// The set may outlive expired members; Revoke tolerates that.
	if err := s.rdb.SAdd(ctx, "user_sessions:"+userID, sid).Err(); err != nil {
		return "", err
	}
	return sid, s.rdb.Expire(ctx, "user_sessions:"+userID, SessionTTL).Err()
}

// Get returns the userID for a session, or "" if not found / expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	val, err := s.rdb.Get(ctx, "session:"+sessionID).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	userID, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if userID != "" {
		s.rdb.SRem(ctx, "user_sessions:"+userID, sessionID)
	}
	return s.rdb.Del(ctx, "session:"+sessionID).Err()
}

// Revoke removes every live session for a user.
func (s *SessionStore) Revoke(ctx context.Context, userID string) error {
	sids, err := s.rdb.SMembers(ctx, "user_sessions:"+userID).Result()
	if err != nil {
		return err
	}
	for _, sid := range sids {
		if err := s.rdb.Del(ctx, "session:"+sid).Err(); err != nil {
			return err
		}
	}
	return s.rdb.Del(ctx, "user_sessions:"+userID).Err()
}
