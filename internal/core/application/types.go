package application

import (
	"context"

	"github.com/0xYaper/Portal/internal/core/domain"
)

const (
	RoleCustodian = "custodian"
	RoleIssuer    = "issuer"
)

// BridgeService is the surface shared by the two role implementations. The
// custodian debits by locking and credits by unlocking; the issuer debits by
// burning and credits by minting. Fee, pause, escrow and emergency recovery
// behave identically on both.
type BridgeService interface {
	Start() error
	Stop()

	// BridgeOut debits the asset on this ledger and emits the outbound
	// message. Payment must cover the protocol fee for the destination
	// plus the transport's delivery cost, or the whole operation fails
	// with no state change.
	BridgeOut(ctx context.Context, req BridgeOutRequest) (*BridgeReceipt, domain.Error)

	Pause(ctx context.Context) domain.Error
	Unpause(ctx context.Context) domain.Error
	SetFeeSchedule(ctx context.Context, schedule domain.FeeSchedule) domain.Error
	WithdrawFees(ctx context.Context, recipient domain.Address) (uint64, domain.Error)
	EmergencyRecover(
		ctx context.Context, assetID domain.AssetID, recipient domain.Address,
	) domain.Error

	GetInfo(ctx context.Context) (*ServiceInfo, error)
	ListTransfers(ctx context.Context) ([]domain.BridgeTransfer, error)
	GetEventsChannel() <-chan []domain.Event
}

type BridgeOutRequest struct {
	AssetID     domain.AssetID
	Holder      domain.Address
	Recipient   domain.Address
	Destination domain.ChainID
	Payment     uint64
	RefundTo    domain.Address
}

type BridgeReceipt struct {
	TransferId    string
	MessageHandle string
	FeePaid       uint64
}

type ServiceInfo struct {
	Role          string
	ChainID       string
	Paused        bool
	FeeSchedule   domain.FeeSchedule
	EscrowBalance uint64
}
