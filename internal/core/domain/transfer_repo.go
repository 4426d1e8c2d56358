package domain

import "context"

type TransferRepository interface {
	AddTransfer(ctx context.Context, transfer BridgeTransfer) error
	UpdateTransferStatus(ctx context.Context, id string, status TransferStatus) error
	GetTransfer(ctx context.Context, id string) (*BridgeTransfer, error)
	GetTransfersByAsset(ctx context.Context, assetID AssetID) ([]BridgeTransfer, error)
	GetAllTransfers(ctx context.Context) ([]BridgeTransfer, error)
	Close()
}
