package inmemorybank

import (
	"context"
	"fmt"
	"sync"

	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/0xYaper/Portal/internal/core/ports"
)

// Bank is an in-memory value ledger backing fee withdrawals.
type Bank struct {
	lock     sync.RWMutex
	balances map[domain.Address]uint64
	failing  map[domain.Address]struct{}
}

func NewBank() *Bank {
	return &Bank{
		balances: make(map[domain.Address]uint64),
		failing:  make(map[domain.Address]struct{}),
	}
}

var _ ports.Bank = (*Bank)(nil)

func (b *Bank) Transfer(_ context.Context, to domain.Address, amount uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if _, ok := b.failing[to]; ok {
		return fmt.Errorf("value transfer to %s reverted", to)
	}
	b.balances[to] += amount
	return nil
}

func (b *Bank) BalanceOf(addr domain.Address) uint64 {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.balances[addr]
}

// SetFailing makes every transfer to addr revert. Used to exercise the
// payout failure path.
func (b *Bank) SetFailing(addr domain.Address, failing bool) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if failing {
		b.failing[addr] = struct{}{}
		return
	}
	delete(b.failing, addr)
}
