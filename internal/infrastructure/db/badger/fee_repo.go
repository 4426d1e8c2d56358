package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const (
	feeStoreDir    = "fees"
	feeScheduleKey = "fee_schedule"
	escrowKey      = "fee_escrow"
)

type feeRepository struct {
	store *badgerhold.Store

	// serializes read-modify-write cycles on the escrow balance
	escrowLock sync.Mutex
}

type feeScheduleDTO struct {
	Schedule  map[string]uint64
	UpdatedAt int64
}

type escrowDTO struct {
	Balance   uint64
	UpdatedAt int64
}

func NewFeeRepository(config ...interface{}) (domain.FeeRepository, error) {
	store, err := openStore(feeStoreDir, config...)
	if err != nil {
		return nil, fmt.Errorf("failed to open fee store: %s", err)
	}
	return &feeRepository{store: store}, nil
}

func (r *feeRepository) GetFeeSchedule(ctx context.Context) (domain.FeeSchedule, error) {
	var dto feeScheduleDTO
	err := r.store.Get(feeScheduleKey, &dto)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return domain.FeeSchedule{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fee schedule: %w", err)
	}
	schedule := make(domain.FeeSchedule, len(dto.Schedule))
	for chain, fee := range dto.Schedule {
		schedule[domain.ChainID(chain)] = fee
	}
	return schedule, nil
}

func (r *feeRepository) UpsertFeeSchedule(
	ctx context.Context, schedule domain.FeeSchedule,
) error {
	dto := feeScheduleDTO{
		Schedule:  make(map[string]uint64, len(schedule)),
		UpdatedAt: time.Now().Unix(),
	}
	for chain, fee := range schedule {
		dto.Schedule[chain.String()] = fee
	}
	return r.upsert(feeScheduleKey, &dto)
}

func (r *feeRepository) GetEscrowBalance(ctx context.Context) (uint64, error) {
	var dto escrowDTO
	err := r.store.Get(escrowKey, &dto)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get escrow balance: %w", err)
	}
	return dto.Balance, nil
}

func (r *feeRepository) IncreaseEscrow(ctx context.Context, amount uint64) (uint64, error) {
	r.escrowLock.Lock()
	defer r.escrowLock.Unlock()

	balance, err := r.GetEscrowBalance(ctx)
	if err != nil {
		return 0, err
	}
	balance += amount
	if err := r.upsert(escrowKey, &escrowDTO{
		Balance:   balance,
		UpdatedAt: time.Now().Unix(),
	}); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *feeRepository) DecreaseEscrow(ctx context.Context, amount uint64) (uint64, error) {
	r.escrowLock.Lock()
	defer r.escrowLock.Unlock()

	balance, err := r.GetEscrowBalance(ctx)
	if err != nil {
		return 0, err
	}
	if amount > balance {
		return 0, fmt.Errorf("cannot decrease escrow by %d, balance is %d", amount, balance)
	}
	balance -= amount
	if err := r.upsert(escrowKey, &escrowDTO{
		Balance:   balance,
		UpdatedAt: time.Now().Unix(),
	}); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *feeRepository) SweepEscrow(ctx context.Context) (uint64, error) {
	r.escrowLock.Lock()
	defer r.escrowLock.Unlock()

	balance, err := r.GetEscrowBalance(ctx)
	if err != nil {
		return 0, err
	}
	if balance == 0 {
		return 0, nil
	}
	if err := r.upsert(escrowKey, &escrowDTO{
		Balance:   0,
		UpdatedAt: time.Now().Unix(),
	}); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *feeRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *feeRepository) upsert(key string, value interface{}) error {
	return withConflictRetry(func() error {
		return r.store.Upsert(key, value)
	})
}
