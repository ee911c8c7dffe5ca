package mfa

import (
	"context"
	"errors"
)

// SecretCipher encrypts secrets at rest. The associated value is the owner's user id,
// so a ciphertext copied onto another user's record fails to decrypt.
// *totp.Cipher satisfies this interface.
type SecretCipher interface {
	Encrypt(plain []byte, associated string) ([]byte, error)
	Decrypt(sealed []byte, associated string) ([]byte, error)
}

// EncryptedStore decorates a Store so the shared secret never reaches the backend
// in plaintext. Every other field passes through untouched.
type EncryptedStore struct {
	next   Store
	cipher SecretCipher
}

// NewEncryptedStore wraps next with secret encryption.
// Panics on nil arguments since that is a wiring mistake, not a runtime condition.
func NewEncryptedStore(next Store, cipher SecretCipher) *EncryptedStore {
	if next == nil {
		panic("mfa: encrypted store requires a backing store")
	}
	if cipher == nil {
		panic("mfa: encrypted store requires a cipher")
	}
	return &EncryptedStore{next: next, cipher: cipher}
}

func (es *EncryptedStore) Get(ctx context.Context, userID string) (*EnrollmentState, error) {
	state, err := es.next.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	secret, err := es.cipher.Decrypt(state.Secret, state.UserID)
	if err != nil {
		return nil, errors.Join(ErrFailedToDecodeSecret, err)
	}
	state.Secret = secret
	return state, nil
}

func (es *EncryptedStore) Save(ctx context.Context, state *EnrollmentState) error {
	if state == nil {
		return ErrNilState
	}

	sealed, err := es.cipher.Encrypt(state.Secret, state.UserID)
	if err != nil {
		return errors.Join(ErrFailedToEncodeSecret, err)
	}

	// Encrypt a copy so the caller keeps its plaintext secret.
	encrypted := state.Clone()
	encrypted.Secret = sealed
	return es.next.Save(ctx, encrypted)
}

func (es *EncryptedStore) Delete(ctx context.Context, userID string) (bool, error) {
	return es.next.Delete(ctx, userID)
}
