package ports

import (
	"context"

	"github.com/0xYaper/Portal/internal/core/domain"
)

// Bank moves native value out of the role instance. The only caller is the
// fee withdrawal path, which sweeps the whole escrow to an admin-chosen
// recipient.
type Bank interface {
	Transfer(ctx context.Context, to domain.Address, amount uint64) error
}
