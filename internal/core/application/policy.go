package application

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/0xYaper/Portal/internal/core/ports"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const eventsChannelSize = 32

// reentrancyGuard blocks a custody-moving operation from being re-entered by
// a nested call triggered as a side effect of itself. The flag is set on
// entry and cleared on every exit path via defer.
type reentrancyGuard struct {
	busy atomic.Bool
}

func (g *reentrancyGuard) enter() domain.Error {
	if !g.busy.CompareAndSwap(false, true) {
		return domain.REENTRANT_CALL.New("operation already in progress")
	}
	return nil
}

func (g *reentrancyGuard) exit() {
	g.busy.Store(false)
}

// bridgePolicy carries the fee, pause, escrow and event machinery shared by
// the custodian and the issuer. Both role services embed it.
type bridgePolicy struct {
	role     string
	chainID  domain.ChainID
	roleAddr domain.Address
	trusted  map[domain.ChainID]struct{}

	repoManager ports.RepoManager
	bank        ports.Bank

	guard    reentrancyGuard
	eventsCh chan []domain.Event
}

func newBridgePolicy(
	role string, chainID domain.ChainID, roleAddr domain.Address,
	trustedChains []domain.ChainID,
	repoManager ports.RepoManager, bank ports.Bank,
) *bridgePolicy {
	trusted := make(map[domain.ChainID]struct{}, len(trustedChains))
	for _, chain := range trustedChains {
		trusted[chain] = struct{}{}
	}
	return &bridgePolicy{
		role:        role,
		chainID:     chainID,
		roleAddr:    roleAddr,
		trusted:     trusted,
		repoManager: repoManager,
		bank:        bank,
		eventsCh:    make(chan []domain.Event, eventsChannelSize),
	}
}

func (p *bridgePolicy) start() {
	p.repoManager.Events().RegisterEventsHandler(domain.BridgeTopic, p.propagateEvents)
}

func (p *bridgePolicy) stop() {
	p.repoManager.Events().ClearRegisteredHandlers(domain.BridgeTopic)
}

func (p *bridgePolicy) settings(ctx context.Context) (domain.Settings, domain.Error) {
	settings, err := p.repoManager.Settings().Get(ctx)
	if err != nil {
		return domain.Settings{}, domain.STORE_FAILURE.Wrap(err)
	}
	if settings == nil {
		return domain.Settings{}, nil
	}
	return *settings, nil
}

func (p *bridgePolicy) requireActive(ctx context.Context) domain.Error {
	settings, err := p.settings(ctx)
	if err != nil {
		return err
	}
	if settings.Paused {
		return domain.BRIDGE_PAUSED.New("bridge is paused")
	}
	return nil
}

// requiredFee fails closed: a destination missing from the schedule is not
// bridgeable, it does not default to a zero fee.
func (p *bridgePolicy) requiredFee(
	ctx context.Context, destination domain.ChainID,
) (uint64, domain.Error) {
	schedule, err := p.repoManager.Fees().GetFeeSchedule(ctx)
	if err != nil {
		return 0, domain.STORE_FAILURE.Wrap(err)
	}
	fee, ok := schedule.RequiredFee(destination)
	if !ok {
		return 0, domain.UNKNOWN_DESTINATION.New(
			"no fee configured for destination %s", destination,
		)
	}
	return fee, nil
}

func (p *bridgePolicy) isTrustedSource(source domain.ChainID) bool {
	_, ok := p.trusted[source]
	return ok
}

func (p *bridgePolicy) updateSettings(
	ctx context.Context, update func(s *domain.Settings),
) domain.Error {
	settings, err := p.settings(ctx)
	if err != nil {
		return err
	}
	update(&settings)
	settings.UpdatedAt = time.Now()
	if err := p.repoManager.Settings().Upsert(ctx, settings); err != nil {
		return domain.STORE_FAILURE.Wrap(err)
	}
	return nil
}

func (p *bridgePolicy) pause(ctx context.Context) domain.Error {
	if err := p.updateSettings(ctx, func(s *domain.Settings) {
		s.Paused = true
	}); err != nil {
		return err
	}
	log.WithField("chain", p.chainID).Warn("bridge paused")
	return p.saveEvents(ctx, domain.BridgePaused{})
}

func (p *bridgePolicy) unpause(ctx context.Context) domain.Error {
	if err := p.updateSettings(ctx, func(s *domain.Settings) {
		s.Paused = false
	}); err != nil {
		return err
	}
	log.WithField("chain", p.chainID).Info("bridge unpaused")
	return p.saveEvents(ctx, domain.BridgeActive{})
}

func (p *bridgePolicy) setFeeSchedule(
	ctx context.Context, schedule domain.FeeSchedule,
) domain.Error {
	if err := p.repoManager.Fees().UpsertFeeSchedule(ctx, schedule); err != nil {
		return domain.STORE_FAILURE.Wrap(err)
	}
	return nil
}

// withdrawFees sweeps the whole escrow to recipient. Available while paused:
// pause protects bridging flow, not fee custody. The sweep is restored if
// the value transfer fails.
func (p *bridgePolicy) withdrawFees(
	ctx context.Context, recipient domain.Address,
) (uint64, domain.Error) {
	if err := p.guard.enter(); err != nil {
		return 0, err
	}
	defer p.guard.exit()

	if recipient.IsZero() {
		return 0, domain.NULL_RECIPIENT.New("withdrawal recipient is null")
	}

	amount, err := p.repoManager.Fees().SweepEscrow(ctx)
	if err != nil {
		return 0, domain.STORE_FAILURE.Wrap(err)
	}
	if amount == 0 {
		return 0, domain.EMPTY_ESCROW.New("fee escrow is empty")
	}

	if err := p.bank.Transfer(ctx, recipient, amount); err != nil {
		if _, restoreErr := p.repoManager.Fees().IncreaseEscrow(ctx, amount); restoreErr != nil {
			log.WithError(restoreErr).Error("failed to restore escrow after payout failure")
		}
		return 0, domain.PAYOUT_FAILURE.Wrap(err)
	}

	log.WithField("recipient", recipient).
		WithField("amount", amount).
		Info("fee escrow swept")

	return amount, p.saveEvents(ctx, domain.FeesWithdrawn{
		Recipient: recipient,
		Amount:    amount,
	})
}

func (p *bridgePolicy) getInfo(ctx context.Context) (*ServiceInfo, error) {
	settings, err := p.settings(ctx)
	if err != nil {
		return nil, err
	}
	schedule, storeErr := p.repoManager.Fees().GetFeeSchedule(ctx)
	if storeErr != nil {
		return nil, storeErr
	}
	balance, storeErr := p.repoManager.Fees().GetEscrowBalance(ctx)
	if storeErr != nil {
		return nil, storeErr
	}
	return &ServiceInfo{
		Role:          p.role,
		ChainID:       p.chainID.String(),
		Paused:        settings.Paused,
		FeeSchedule:   schedule,
		EscrowBalance: balance,
	}, nil
}

func (p *bridgePolicy) listTransfers(ctx context.Context) ([]domain.BridgeTransfer, error) {
	return p.repoManager.Transfers().GetAllTransfers(ctx)
}

func (p *bridgePolicy) saveEvents(ctx context.Context, events ...domain.Event) domain.Error {
	if err := p.repoManager.Events().Save(
		ctx, domain.BridgeTopic, uuid.NewString(), events,
	); err != nil {
		return domain.STORE_FAILURE.Wrap(err)
	}
	return nil
}

func (p *bridgePolicy) propagateEvents(events []domain.Event) {
	select {
	case p.eventsCh <- events:
	default:
		log.Warn("events channel full, dropping events")
	}
}

func (p *bridgePolicy) getEventsChannel() <-chan []domain.Event {
	return p.eventsCh
}
