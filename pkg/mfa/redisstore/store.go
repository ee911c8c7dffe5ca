// Package redisstore keeps MFA enrollment records in Redis as JSON documents,
// one key per user.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/twofa/pkg/mfa"
)

// DefaultKeyPrefix namespaces enrollment keys.
const DefaultKeyPrefix = "mfa:totp:"

var ErrMalformedRecord = errors.New("malformed enrollment record")

// Store implements mfa.Store on top of a go-redis client.
type Store struct {
	client redis.UniversalClient
	prefix string
}

var _ mfa.Store = (*Store)(nil)

// New creates a Store. An empty prefix uses DefaultKeyPrefix.
func New(client redis.UniversalClient, prefix string) *Store {
	if client == nil {
		panic("redisstore: client cannot be nil")
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

type record struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               string     `json:"user_id"`
	Method               string     `json:"method"`
	Secret               []byte     `json:"secret"`
	Enabled              bool       `json:"enabled"`
	EnabledAt            *time.Time `json:"enabled_at,omitempty"`
	FailedAttempts       int        `json:"failed_attempts"`
	LockoutUntil         *time.Time `json:"lockout_until,omitempty"`
	BackupCodeHashes     []string   `json:"backup_code_hashes"`
	UsedBackupCodeHashes []string   `json:"used_backup_code_hashes"`
	LastVerifiedAt       *time.Time `json:"last_verified_at,omitempty"`
	LastUsedStep         int64      `json:"last_used_step,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (s *Store) key(userID string) string {
	return s.prefix + userID
}

func (s *Store) Get(ctx context.Context, userID string) (*mfa.EnrollmentState, error) {
	if userID == "" {
		return nil, mfa.ErrStateNotFound
	}

	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, mfa.ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}

	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Join(ErrMalformedRecord, err)
	}
	return r.state(), nil
}

func (s *Store) Save(ctx context.Context, state *mfa.EnrollmentState) error {
	if state == nil {
		return mfa.ErrNilState
	}
	if state.UserID == "" {
		return mfa.ErrEmptyUserID
	}

	data, err := json.Marshal(fromState(state))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(state.UserID), data, 0).Err()
}

func (s *Store) Delete(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	n, err := s.client.Del(ctx, s.key(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func fromState(s *mfa.EnrollmentState) record {
	return record{
		ID:                   s.ID,
		UserID:               s.UserID,
		Method:               string(s.Method),
		Secret:               s.Secret,
		Enabled:              s.Enabled,
		EnabledAt:            s.EnabledAt,
		FailedAttempts:       s.FailedAttempts,
		LockoutUntil:         s.LockoutUntil,
		BackupCodeHashes:     s.BackupCodeHashes,
		UsedBackupCodeHashes: s.UsedBackupCodeHashes,
		LastVerifiedAt:       s.LastVerifiedAt,
		LastUsedStep:         s.LastUsedStep,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func (r record) state() *mfa.EnrollmentState {
	return &mfa.EnrollmentState{
		ID:                   r.ID,
		UserID:               r.UserID,
		Method:               mfa.Method(r.Method),
		Secret:               r.Secret,
		Enabled:              r.Enabled,
		EnabledAt:            r.EnabledAt,
		FailedAttempts:       r.FailedAttempts,
		LockoutUntil:         r.LockoutUntil,
		BackupCodeHashes:     nonNil(r.BackupCodeHashes),
		UsedBackupCodeHashes: nonNil(r.UsedBackupCodeHashes),
		LastVerifiedAt:       r.LastVerifiedAt,
		LastUsedStep:         r.LastUsedStep,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
