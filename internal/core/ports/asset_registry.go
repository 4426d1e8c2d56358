package ports

import (
	"context"

	"github.com/0xYaper/Portal/internal/core/domain"
)

// AssetRegistry is the non-fungible asset ledger the bridge defers to for
// ownership bookkeeping. The bridge is its privileged caller for mint, burn
// and custody transfers; it never touches asset metadata.
type AssetRegistry interface {
	OwnerOf(ctx context.Context, id domain.AssetID) (domain.Address, error)
	// IsApproved reports whether operator may move the asset on behalf of
	// its owner.
	IsApproved(ctx context.Context, operator domain.Address, id domain.AssetID) (bool, error)
	TransferCustody(ctx context.Context, from, to domain.Address, id domain.AssetID) error
	// Mint fails if an asset with the given id already exists.
	Mint(ctx context.Context, to domain.Address, id domain.AssetID) error
	Burn(ctx context.Context, id domain.AssetID) error
	Exists(ctx context.Context, id domain.AssetID) (bool, error)
}
