package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/contactkeeper/internal/client/storage"
)

// Клиент держит ровно одну сессию
var authKey = []byte("current")

// SaveAuth replaces the stored session.
func (s *Storage) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	data, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("failed to marshal auth data: %w", err)
	}

	return s.update(ctx, bucketAuth, func(b *bbolt.Bucket) error {
		if err := b.Put(authKey, data); err != nil {
			return fmt.Errorf("failed to save auth data: %w", err)
		}
		return nil
	})
}

// GetAuth returns the stored session or storage.ErrAuthNotFound.
func (s *Storage) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	auth := &storage.AuthData{}

	err := s.view(ctx, bucketAuth, func(b *bbolt.Bucket) error {
		raw := b.Get(authKey)
		if raw == nil {
			return storage.ErrAuthNotFound
		}
		// raw живёт только внутри транзакции
		if err := json.Unmarshal(raw, auth); err != nil {
			return fmt.Errorf("failed to unmarshal auth data: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return auth, nil
}

// DeleteAuth removes the stored session.
func (s *Storage) DeleteAuth(ctx context.Context) error {
	return s.update(ctx, bucketAuth, func(b *bbolt.Bucket) error {
		if b.Get(authKey) == nil {
			return storage.ErrAuthNotFound
		}
		return b.Delete(authKey)
	})
}

// IsAuthenticated reports whether a session with a live access token is stored.
func (s *Storage) IsAuthenticated(ctx context.Context) (bool, error) {
	auth, err := s.GetAuth(ctx)
	switch {
	case errors.Is(err, storage.ErrAuthNotFound):
		return false, nil
	case err != nil:
		return false, err
	}

	return !auth.AccessExpired(s.now()), nil
}
