package inmemoryregistry

import (
	"context"
	"fmt"
	"sync"

	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/0xYaper/Portal/internal/core/ports"
)

// Registry is an in-memory asset registry. The bridge uses it as its
// collaborator double in tests and single-process deployments; a production
// deployment replaces it with an adapter to the real ledger.
type Registry struct {
	lock      sync.RWMutex
	owners    map[domain.AssetID]domain.Address
	approvals map[domain.AssetID]map[domain.Address]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		owners:    make(map[domain.AssetID]domain.Address),
		approvals: make(map[domain.AssetID]map[domain.Address]struct{}),
	}
}

var _ ports.AssetRegistry = (*Registry)(nil)

func (r *Registry) OwnerOf(_ context.Context, id domain.AssetID) (domain.Address, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	owner, ok := r.owners[id]
	if !ok {
		return domain.ZeroAddress, fmt.Errorf("asset %d does not exist", id)
	}
	return owner, nil
}

func (r *Registry) IsApproved(
	_ context.Context, operator domain.Address, id domain.AssetID,
) (bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if _, ok := r.owners[id]; !ok {
		return false, fmt.Errorf("asset %d does not exist", id)
	}
	_, ok := r.approvals[id][operator]
	return ok, nil
}

func (r *Registry) Approve(
	_ context.Context, operator domain.Address, id domain.AssetID,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.owners[id]; !ok {
		return fmt.Errorf("asset %d does not exist", id)
	}
	if _, ok := r.approvals[id]; !ok {
		r.approvals[id] = make(map[domain.Address]struct{})
	}
	r.approvals[id][operator] = struct{}{}
	return nil
}

func (r *Registry) TransferCustody(
	_ context.Context, from, to domain.Address, id domain.AssetID,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	owner, ok := r.owners[id]
	if !ok {
		return fmt.Errorf("asset %d does not exist", id)
	}
	if owner != from {
		return fmt.Errorf("asset %d is not owned by %s", id, from)
	}
	if to.IsZero() {
		return fmt.Errorf("cannot transfer asset %d to the null address", id)
	}
	r.owners[id] = to
	// approvals don't survive a custody change
	delete(r.approvals, id)
	return nil
}

func (r *Registry) Mint(_ context.Context, to domain.Address, id domain.AssetID) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.owners[id]; ok {
		return fmt.Errorf("asset %d already exists", id)
	}
	if to.IsZero() {
		return fmt.Errorf("cannot mint asset %d to the null address", id)
	}
	r.owners[id] = to
	return nil
}

func (r *Registry) Burn(_ context.Context, id domain.AssetID) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.owners[id]; !ok {
		return fmt.Errorf("asset %d does not exist", id)
	}
	delete(r.owners, id)
	delete(r.approvals, id)
	return nil
}

func (r *Registry) Exists(_ context.Context, id domain.AssetID) (bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	_, ok := r.owners[id]
	return ok, nil
}
