package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransferDirection string

const (
	TransferOutbound TransferDirection = "outbound"
	TransferInbound  TransferDirection = "inbound"
)

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCompleted TransferStatus = "completed"
	TransferRecovered TransferStatus = "recovered"
)

// BridgeTransfer is the audit record written for every debit and credit the
// role performs. Outbound records stay pending: the sending role never learns
// whether the counterpart credit landed, only the counterpart does.
type BridgeTransfer struct {
	Id          string
	AssetID     AssetID
	Direction   TransferDirection
	Source      ChainID
	Destination ChainID
	Holder      Address
	Recipient   Address
	FeePaid     uint64
	Status      TransferStatus
	CreatedAt   int64
}

func NewBridgeTransfer(
	assetID AssetID, direction TransferDirection,
	source, destination ChainID,
	holder, recipient Address,
	feePaid uint64, status TransferStatus,
) BridgeTransfer {
	return BridgeTransfer{
		Id:          uuid.NewString(),
		AssetID:     assetID,
		Direction:   direction,
		Source:      source,
		Destination: destination,
		Holder:      holder,
		Recipient:   recipient,
		FeePaid:     feePaid,
		Status:      status,
		CreatedAt:   time.Now().Unix(),
	}
}
