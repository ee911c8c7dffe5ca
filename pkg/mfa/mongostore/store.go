// Package mongostore keeps MFA enrollment records in a MongoDB collection,
// one document per user and method.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/twofa/pkg/mfa"
)

// DefaultCollection is the collection used when New receives an empty name.
const DefaultCollection = "mfa_enrollments"

// Store implements mfa.Store on MongoDB.
type Store struct {
	coll *mongo.Collection
}

var _ mfa.Store = (*Store)(nil)

// New creates a Store over db. Call EnsureIndexes once before use.
func New(db *mongo.Database, collection string) *Store {
	if db == nil {
		panic("mongostore: database cannot be nil")
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{coll: db.Collection(collection)}
}

// EnsureIndexes creates the unique (user_id, method) index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "method", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_method_unique"),
	})
	return err
}

type document struct {
	ID                   string     `bson:"_id"`
	UserID               string     `bson:"user_id"`
	Method               string     `bson:"method"`
	Secret               []byte     `bson:"secret"`
	Enabled              bool       `bson:"enabled"`
	EnabledAt            *time.Time `bson:"enabled_at,omitempty"`
	FailedAttempts       int        `bson:"failed_attempts"`
	LockoutUntil         *time.Time `bson:"lockout_until,omitempty"`
	BackupCodeHashes     []string   `bson:"backup_code_hashes"`
	UsedBackupCodeHashes []string   `bson:"used_backup_code_hashes"`
	LastVerifiedAt       *time.Time `bson:"last_verified_at,omitempty"`
	LastUsedStep         int64      `bson:"last_used_step"`
	CreatedAt            time.Time  `bson:"created_at"`
	UpdatedAt            time.Time  `bson:"updated_at"`
}

func filter(userID string) bson.D {
	return bson.D{{Key: "user_id", Value: userID}, {Key: "method", Value: string(mfa.MethodTOTP)}}
}

func (s *Store) Get(ctx context.Context, userID string) (*mfa.EnrollmentState, error) {
	var doc document
	err := s.coll.FindOne(ctx, filter(userID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, mfa.ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.state()
}

func (s *Store) Save(ctx context.Context, state *mfa.EnrollmentState) error {
	if state == nil {
		return mfa.ErrNilState
	}
	if state.UserID == "" {
		return mfa.ErrEmptyUserID
	}

	doc := fromState(state)
	_, err := s.coll.ReplaceOne(ctx, filter(state.UserID), doc, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) Delete(ctx context.Context, userID string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, filter(userID))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func fromState(s *mfa.EnrollmentState) document {
	return document{
		ID:                   s.ID.String(),
		UserID:               s.UserID,
		Method:               string(mfa.MethodTOTP),
		Secret:               s.Secret,
		Enabled:              s.Enabled,
		EnabledAt:            utc(s.EnabledAt),
		FailedAttempts:       s.FailedAttempts,
		LockoutUntil:         utc(s.LockoutUntil),
		BackupCodeHashes:     nonNil(s.BackupCodeHashes),
		UsedBackupCodeHashes: nonNil(s.UsedBackupCodeHashes),
		LastVerifiedAt:       utc(s.LastVerifiedAt),
		LastUsedStep:         s.LastUsedStep,
		CreatedAt:            s.CreatedAt.UTC(),
		UpdatedAt:            s.UpdatedAt.UTC(),
	}
}

func (d document) state() (*mfa.EnrollmentState, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return nil, err
	}
	return &mfa.EnrollmentState{
		ID:                   id,
		UserID:               d.UserID,
		Method:               mfa.Method(d.Method),
		Secret:               d.Secret,
		Enabled:              d.Enabled,
		EnabledAt:            d.EnabledAt,
		FailedAttempts:       d.FailedAttempts,
		LockoutUntil:         d.LockoutUntil,
		BackupCodeHashes:     nonNil(d.BackupCodeHashes),
		UsedBackupCodeHashes: nonNil(d.UsedBackupCodeHashes),
		LastVerifiedAt:       d.LastVerifiedAt,
		LastUsedStep:         d.LastUsedStep,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
