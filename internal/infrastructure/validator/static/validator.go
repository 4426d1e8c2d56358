package staticvalidator

import (
	"context"
	"sync"

	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/0xYaper/Portal/internal/core/ports"
)

// Validator is a deny-list transfer policy evaluator. Anything not denied is
// allowed.
type Validator struct {
	lock   sync.RWMutex
	denied map[domain.Address]struct{}
}

func NewValidator(denied ...domain.Address) *Validator {
	deniedSet := make(map[domain.Address]struct{}, len(denied))
	for _, addr := range denied {
		deniedSet[addr] = struct{}{}
	}
	return &Validator{denied: deniedSet}
}

var _ ports.TransferValidator = (*Validator)(nil)

func (v *Validator) ValidateTransfer(
	_ context.Context, from, to domain.Address, _ domain.AssetID,
) (bool, error) {
	v.lock.RLock()
	defer v.lock.RUnlock()

	if _, ok := v.denied[from]; ok {
		return false, nil
	}
	if _, ok := v.denied[to]; ok {
		return false, nil
	}
	return true, nil
}

func (v *Validator) Deny(addr domain.Address) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.denied[addr] = struct{}{}
}

func (v *Validator) Allow(addr domain.Address) {
	v.lock.Lock()
	defer v.lock.Unlock()
	delete(v.denied, addr)
}
