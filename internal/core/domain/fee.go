package domain

import "context"

// FeeSchedule maps a destination chain to the fee required to bridge an
// asset there, in the native unit of the sending ledger. A destination
// missing from the schedule is not bridgeable.
type FeeSchedule map[ChainID]uint64

func (s FeeSchedule) RequiredFee(destination ChainID) (uint64, bool) {
	fee, ok := s[destination]
	return fee, ok
}

type FeeRepository interface {
	GetFeeSchedule(ctx context.Context) (FeeSchedule, error)
	UpsertFeeSchedule(ctx context.Context, schedule FeeSchedule) error
	GetEscrowBalance(ctx context.Context) (uint64, error)
	// IncreaseEscrow returns the new balance.
	IncreaseEscrow(ctx context.Context, amount uint64) (uint64, error)
	// DecreaseEscrow reverts fee collection when a debit aborts after the
	// fee was already accrued. It is not a withdrawal path.
	DecreaseEscrow(ctx context.Context, amount uint64) (uint64, error)
	// SweepEscrow zeroes the balance and returns the amount swept.
	SweepEscrow(ctx context.Context) (uint64, error)
	Close()
}
