package redis

import (
	"context"
	"testing"
	"time"

	"github.com/pscheid92/streamagenda/internal/domain"
	"github.com/pscheid92/streamagenda/internal/platform/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestCredentialStore(t *testing.T) *CredentialStore {
	t.Helper()
	client, _ := setupTestClient(t)
	svc, err := crypto.NewAesGcmCryptoService(testKey)
	require.NoError(t, err)
	return NewCredentialStore(client, svc)
}

func TestCredentialStore_LoadEmpty(t *testing.T) {
	store := newTestCredentialStore(t)

	cred, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestCredentialStore_SaveAndLoad(t *testing.T) {
	store := newTestCredentialStore(t)
	ctx := context.Background()
	obtained := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := store.Save(ctx, domain.Credential{
		AccessToken:     "tok-123",
		IsAuthenticated: true,
		ExpiresIn:       time.Hour,
		ObtainedAt:      obtained,
	})
	require.NoError(t, err)

	cred, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "tok-123", cred.AccessToken)
	assert.True(t, cred.IsAuthenticated)
	assert.Equal(t, time.Hour, cred.ExpiresIn)
	assert.True(t, obtained.Equal(cred.ObtainedAt))
}

func TestCredentialStore_TokenEncryptedAtRest(t *testing.T) {
	store := newTestCredentialStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Credential{AccessToken: "plain-secret", IsAuthenticated: true, ExpiresIn: time.Hour}))

	raw, err := store.rdb.Get(ctx, credentialKey).Result()
	require.NoError(t, err)
	assert.NotContains(t, raw, "plain-secret")
}

func TestCredentialStore_KeyExpiresWithToken(t *testing.T) {
	store := newTestCredentialStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Credential{AccessToken: "t", IsAuthenticated: true, ExpiresIn: 90 * time.Second}))

	ttl, err := store.rdb.TTL(ctx, credentialKey).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 90*time.Second)
}

func TestCredentialStore_Clear(t *testing.T) {
	store := newTestCredentialStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Credential{AccessToken: "t", IsAuthenticated: true, ExpiresIn: time.Hour}))
	require.NoError(t, store.Clear(ctx))

	cred, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred)

	// clearing twice is fine
	require.NoError(t, store.Clear(ctx))
}

func TestCredentialStore_WrongKeyFailsToLoad(t *testing.T) {
	store := newTestCredentialStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.Credential{AccessToken: "t", IsAuthenticated: true, ExpiresIn: time.Hour}))

	other, err := crypto.NewAesGcmCryptoService("ff" + testKey[2:])
	require.NoError(t, err)
	_, err = NewCredentialStore(store.rdb, other).Load(ctx)
	require.Error(t, err)
}
