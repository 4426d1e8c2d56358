package ports

import (
	"context"

	"github.com/0xYaper/Portal/internal/core/domain"
)

// TransferValidator is the external policy evaluator consulted on
// locally initiated transfers of wrapped instances. Bridge-driven mint and
// burn never reach it.
type TransferValidator interface {
	ValidateTransfer(
		ctx context.Context, from, to domain.Address, id domain.AssetID,
	) (bool, error)
}
