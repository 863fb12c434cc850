package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pscheid92/streamagenda/internal/domain"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
	goredis "github.com/redis/go-redis/v9"
)

const preferencesKey = "preferences"

type PreferencesStore struct {
	rdb goredis.Cmdable
}

var _ domain.PreferencesStore = (*PreferencesStore)(nil)

func NewPreferencesStore(rdb goredis.Cmdable) *PreferencesStore {
	return &PreferencesStore{rdb: rdb}
}

// Load returns nil, nil when nothing was saved yet.
func (s *PreferencesStore) Load(ctx context.Context) (*domain.Preferences, error) {
	raw, err := s.rdb.Get(ctx, preferencesKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.StorageError("get", err)
	}

	var prefs domain.Preferences
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return nil, fmt.Errorf("failed to decode preferences: %w", err)
	}
	return &prefs, nil
}

func (s *PreferencesStore) Save(ctx context.Context, prefs domain.Preferences) error {
	encoded, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := s.rdb.Set(ctx, preferencesKey, encoded, 0).Err(); err != nil {
		return apperrors.StorageError("set", err)
	}
	return nil
}
