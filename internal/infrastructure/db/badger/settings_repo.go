package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const (
	settingsStoreDir = "settings"
	settingsKey      = "settings"
)

type settingsRepository struct {
	store *badgerhold.Store
}

func NewSettingsRepository(config ...interface{}) (domain.SettingsRepository, error) {
	store, err := openStore(settingsStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %s", err)
	}
	return &settingsRepository{store}, nil
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	err := r.store.Get(settingsKey, &settings)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings domain.Settings) error {
	return withConflictRetry(func() error {
		return r.store.Upsert(settingsKey, &settings)
	})
}

// Clear is a no-op when no settings were ever written.
func (r *settingsRepository) Clear(ctx context.Context) error {
	var settings domain.Settings
	if err := r.store.Delete(settingsKey, &settings); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func (r *settingsRepository) Close() {
	// nolint:all
	r.store.Close()
}
