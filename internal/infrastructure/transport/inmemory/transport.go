package inmemorytransport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/0xYaper/Portal/internal/core/ports"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const maxDeliveryAttempts = 10

// Hub wires the role endpoints of every chain into an at-least-once,
// unordered message channel. A message stays pending until the receiving
// handler accepts it; the hub redelivers pending messages on an interval and
// never deduplicates, so the receiving roles must. A message rejected
// maxDeliveryAttempts times is dropped, assets stranded by such messages are
// what emergency recovery exists for.
type Hub struct {
	lock         sync.Mutex
	deliveryCost uint64
	endpoints    map[domain.ChainID]*endpoint
	pending      []*pendingMessage
	refunds      map[domain.Address]uint64
	scheduler    *gocron.Scheduler
}

type pendingMessage struct {
	handle      string
	source      domain.ChainID
	destination domain.ChainID
	payload     []byte
	attempts    int
	acked       bool
}

func NewHub(deliveryCost uint64, redeliveryInterval time.Duration) *Hub {
	hub := &Hub{
		deliveryCost: deliveryCost,
		endpoints:    make(map[domain.ChainID]*endpoint),
		refunds:      make(map[domain.Address]uint64),
		scheduler:    gocron.NewScheduler(time.UTC),
	}
	// nolint:errcheck
	hub.scheduler.Every(redeliveryInterval).Do(func() {
		hub.Flush(context.Background())
	})
	return hub
}

// Endpoint returns the transport facade a role on the given chain sends and
// receives through.
func (h *Hub) Endpoint(chain domain.ChainID) ports.MessageTransport {
	h.lock.Lock()
	defer h.lock.Unlock()

	if ep, ok := h.endpoints[chain]; ok {
		return ep
	}
	ep := &endpoint{hub: h, chain: chain}
	h.endpoints[chain] = ep
	return ep
}

func (h *Hub) Start() {
	h.scheduler.StartAsync()
}

func (h *Hub) Stop() {
	h.scheduler.Stop()
}

// Flush attempts delivery of every pending message. A handler error leaves
// the message pending for the next pass; a message that exhausted its
// delivery attempts is dropped so the queue cannot grow without bound.
func (h *Hub) Flush(ctx context.Context) {
	h.lock.Lock()
	toDeliver := make([]*pendingMessage, 0, len(h.pending))
	kept := make([]*pendingMessage, 0, len(h.pending))
	for _, msg := range h.pending {
		if !msg.acked && msg.attempts >= maxDeliveryAttempts {
			log.WithField("handle", msg.handle).
				WithField("attempts", msg.attempts).
				Warn("dropping undeliverable message")
			continue
		}
		kept = append(kept, msg)
		if !msg.acked {
			toDeliver = append(toDeliver, msg)
		}
	}
	h.pending = kept
	h.lock.Unlock()

	for _, msg := range toDeliver {
		if err := h.deliver(ctx, msg); err != nil {
			log.WithError(err).
				WithField("handle", msg.handle).
				Debug("delivery attempt failed, message stays pending")
		}
	}
}

// Redeliver forces another delivery of a message regardless of whether it
// was already accepted. It exists to exercise duplicate-delivery handling.
func (h *Hub) Redeliver(ctx context.Context, handle string) error {
	h.lock.Lock()
	var target *pendingMessage
	for _, msg := range h.pending {
		if msg.handle == handle {
			target = msg
			break
		}
	}
	h.lock.Unlock()

	if target == nil {
		return fmt.Errorf("unknown message handle %s", handle)
	}
	return h.deliver(ctx, target)
}

// RefundedTo reports the excess fee budget refunded to addr so far.
func (h *Hub) RefundedTo(addr domain.Address) uint64 {
	h.lock.Lock()
	defer h.lock.Unlock()

	return h.refunds[addr]
}

// PendingCount reports how many messages still await a successful delivery.
func (h *Hub) PendingCount() int {
	h.lock.Lock()
	defer h.lock.Unlock()

	count := 0
	for _, msg := range h.pending {
		if !msg.acked {
			count++
		}
	}
	return count
}

func (h *Hub) deliver(ctx context.Context, msg *pendingMessage) error {
	h.lock.Lock()
	ep := h.endpoints[msg.destination]
	h.lock.Unlock()

	if ep == nil || ep.handler() == nil {
		return fmt.Errorf("no endpoint subscribed on %s", msg.destination)
	}

	h.lock.Lock()
	msg.attempts++
	h.lock.Unlock()

	if err := ep.handler()(ctx, ports.InboundMessage{
		Source:  msg.source,
		Payload: msg.payload,
	}); err != nil {
		return err
	}

	h.lock.Lock()
	msg.acked = true
	h.lock.Unlock()
	return nil
}

func (h *Hub) send(source domain.ChainID, msg ports.OutboundMessage) (string, error) {
	if msg.FeeBudget < h.deliveryCost {
		return "", fmt.Errorf(
			"fee budget %d below delivery cost %d", msg.FeeBudget, h.deliveryCost,
		)
	}

	h.lock.Lock()
	defer h.lock.Unlock()

	if excess := msg.FeeBudget - h.deliveryCost; excess > 0 && !msg.RefundTo.IsZero() {
		h.refunds[msg.RefundTo] += excess
	}

	handle := uuid.NewString()
	h.pending = append(h.pending, &pendingMessage{
		handle:      handle,
		source:      source,
		destination: msg.Destination,
		payload:     msg.Payload,
	})
	return handle, nil
}

type endpoint struct {
	hub   *Hub
	chain domain.ChainID

	handlerLock sync.RWMutex
	inbound     ports.MessageHandler
}

var _ ports.MessageTransport = (*endpoint)(nil)

func (e *endpoint) Send(_ context.Context, msg ports.OutboundMessage) (string, error) {
	return e.hub.send(e.chain, msg)
}

func (e *endpoint) Subscribe(handler ports.MessageHandler) {
	e.handlerLock.Lock()
	defer e.handlerLock.Unlock()
	e.inbound = handler
}

func (e *endpoint) handler() ports.MessageHandler {
	e.handlerLock.RLock()
	defer e.handlerLock.RUnlock()
	return e.inbound
}
