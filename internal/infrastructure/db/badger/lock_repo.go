package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const lockStoreDir = "locks"

type lockRepository struct {
	store *badgerhold.Store
}

type lockDTO struct {
	domain.LockEntry
	UpdatedAt int64
}

func NewLockRepository(config ...interface{}) (domain.LockRepository, error) {
	store, err := openStore(lockStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock store: %s", err)
	}
	return &lockRepository{store}, nil
}

func (r *lockRepository) AddLock(ctx context.Context, entry domain.LockEntry) error {
	dto := lockDTO{LockEntry: entry, UpdatedAt: time.Now().Unix()}
	if err := r.store.Insert(uint64(entry.AssetID), dto); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("lock entry for asset %d already exists", entry.AssetID)
		}
		return err
	}
	return nil
}

func (r *lockRepository) GetLock(
	ctx context.Context, assetID domain.AssetID,
) (*domain.LockEntry, error) {
	var dto lockDTO
	err := r.store.Get(uint64(assetID), &dto)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lock entry: %w", err)
	}
	entry := dto.LockEntry
	return &entry, nil
}

func (r *lockRepository) DeleteLock(ctx context.Context, assetID domain.AssetID) error {
	err := withConflictRetry(func() error {
		return r.store.Delete(uint64(assetID), lockDTO{})
	})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil
	}
	return err
}

func (r *lockRepository) GetAllLocks(ctx context.Context) ([]domain.LockEntry, error) {
	var dtos []lockDTO
	if err := r.store.Find(&dtos, nil); err != nil {
		return nil, err
	}
	entries := make([]domain.LockEntry, 0, len(dtos))
	for _, dto := range dtos {
		entries = append(entries, dto.LockEntry)
	}
	return entries, nil
}

func (r *lockRepository) Close() {
	// nolint:all
	r.store.Close()
}
