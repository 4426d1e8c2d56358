package domain

import "context"

type LockRepository interface {
	// AddLock fails if an entry for the same asset id already exists.
	AddLock(ctx context.Context, entry LockEntry) error
	// GetLock returns nil without error when no entry exists.
	GetLock(ctx context.Context, assetID AssetID) (*LockEntry, error)
	DeleteLock(ctx context.Context, assetID AssetID) error
	GetAllLocks(ctx context.Context) ([]LockEntry, error)
	Close()
}
