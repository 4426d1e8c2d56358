package ports

import (
	"context"

	"github.com/0xYaper/Portal/internal/core/domain"
)

// OutboundMessage is handed to the transport after the sending role debited
// the asset and collected its fee. FeeBudget is the remainder of the attached
// payment once the protocol fee is deducted; it must cover the transport's
// own delivery cost. Excess over that cost is refunded to RefundTo by
// transports that support refunds.
type OutboundMessage struct {
	Destination domain.ChainID
	Payload     []byte
	FeeBudget   uint64
	RefundTo    domain.Address
}

// InboundMessage is delivered to the receiving role. Source is attested by
// the transport; the protocol trusts its authenticity but neither delivery
// ordering nor uniqueness.
type InboundMessage struct {
	Source  domain.ChainID
	Payload []byte
}

type MessageHandler func(ctx context.Context, msg InboundMessage) error

// MessageTransport is the at-least-once, unordered cross-ledger channel.
// Send returns an opaque message handle. Subscribe registers the handler the
// transport invokes on delivery; a non-nil handler error leaves the message
// eligible for redelivery.
type MessageTransport interface {
	Send(ctx context.Context, msg OutboundMessage) (string, error)
	Subscribe(handler MessageHandler)
}
