package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const transferStoreDir = "transfers"

type transferRepository struct {
	store *badgerhold.Store
}

type transferDTO struct {
	domain.BridgeTransfer
	UpdatedAt int64
}

func NewTransferRepository(config ...interface{}) (domain.TransferRepository, error) {
	store, err := openStore(transferStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open transfer store: %s", err)
	}
	return &transferRepository{store}, nil
}

func (r *transferRepository) AddTransfer(
	ctx context.Context, transfer domain.BridgeTransfer,
) error {
	dto := transferDTO{BridgeTransfer: transfer, UpdatedAt: time.Now().Unix()}
	if err := r.store.Insert(transfer.Id, dto); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("transfer %s already exists", transfer.Id)
		}
		return err
	}
	return nil
}

func (r *transferRepository) UpdateTransferStatus(
	ctx context.Context, id string, status domain.TransferStatus,
) error {
	var dto transferDTO
	if err := r.store.Get(id, &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("transfer %s not found", id)
		}
		return err
	}
	dto.Status = status
	dto.UpdatedAt = time.Now().Unix()

	return withConflictRetry(func() error {
		return r.store.Update(id, dto)
	})
}

func (r *transferRepository) GetTransfer(
	ctx context.Context, id string,
) (*domain.BridgeTransfer, error) {
	var dto transferDTO
	err := r.store.Get(id, &dto)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	transfer := dto.BridgeTransfer
	return &transfer, nil
}

func (r *transferRepository) GetTransfersByAsset(
	ctx context.Context, assetID domain.AssetID,
) ([]domain.BridgeTransfer, error) {
	query := badgerhold.Where("AssetID").Eq(assetID)
	return r.findTransfers(query)
}

func (r *transferRepository) GetAllTransfers(
	ctx context.Context,
) ([]domain.BridgeTransfer, error) {
	return r.findTransfers(nil)
}

func (r *transferRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *transferRepository) findTransfers(
	query *badgerhold.Query,
) ([]domain.BridgeTransfer, error) {
	var dtos []transferDTO
	if err := r.store.Find(&dtos, query); err != nil {
		return nil, err
	}
	sort.Slice(dtos, func(i, j int) bool {
		return dtos[i].CreatedAt < dtos[j].CreatedAt
	})
	transfers := make([]domain.BridgeTransfer, 0, len(dtos))
	for _, dto := range dtos {
		transfers = append(transfers, dto.BridgeTransfer)
	}
	return transfers, nil
}
