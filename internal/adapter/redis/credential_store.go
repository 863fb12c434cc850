package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pscheid92/streamagenda/internal/domain"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
	"github.com/pscheid92/streamagenda/internal/platform/crypto"
	goredis "github.com/redis/go-redis/v9"
)

const credentialKey = "auth"

// storedCredential is the at-rest shape; the token is sealed by crypto.Service.
type storedCredential struct {
	Token           string    `json:"token"`
	IsAuthenticated bool      `json:"is_authenticated"`
	ExpiresInSecs   int64     `json:"expires_in"`
	ObtainedAt      time.Time `json:"obtained_at"`
}

// CredentialStore keeps the deployment's single credential under one key.
// The key expires together with the token.
type CredentialStore struct {
	rdb    goredis.Cmdable
	crypto crypto.Service
}

var _ domain.CredentialStore = (*CredentialStore)(nil)

func NewCredentialStore(rdb goredis.Cmdable, c crypto.Service) *CredentialStore {
	return &CredentialStore{rdb: rdb, crypto: c}
}

func (s *CredentialStore) Load(ctx context.Context) (*domain.Credential, error) {
	raw, err := s.rdb.Get(ctx, credentialKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.StorageError("get", err)
	}

	var stored storedCredential
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode stored credential: %w", err)
	}

	token, err := s.crypto.Decrypt(stored.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt stored credential: %w", err)
	}

	return &domain.Credential{
		AccessToken:     token,
		IsAuthenticated: stored.IsAuthenticated,
		ExpiresIn:       time.Duration(stored.ExpiresInSecs) * time.Second,
		ObtainedAt:      stored.ObtainedAt,
	}, nil
}

func (s *CredentialStore) Save(ctx context.Context, cred domain.Credential) error {
	sealed, err := s.crypto.Encrypt(cred.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}

	encoded, err := json.Marshal(storedCredential{
		Token:           sealed,
		IsAuthenticated: cred.IsAuthenticated,
		ExpiresInSecs:   int64(cred.ExpiresIn / time.Second),
		ObtainedAt:      cred.ObtainedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	// zero TTL keeps the key forever
	ttl := max(cred.ExpiresIn, 0)
	if err := s.rdb.Set(ctx, credentialKey, encoded, ttl).Err(); err != nil {
		return apperrors.StorageError("set", err)
	}
	return nil
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, credentialKey).Err(); err != nil {
		return apperrors.StorageError("delete", err)
	}
	return nil
}
