package application

import (
	"context"

	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/0xYaper/Portal/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// CustodianService is the origin-side role. It owns the lock table: an asset
// bridged out is transferred to the custodian's own registry account and
// marked locked, and only an inbound message from a trusted counterpart
// issuer releases it again.
type CustodianService interface {
	BridgeService
	GetLockStatus(ctx context.Context, assetID domain.AssetID) (*domain.LockEntry, error)
}

type custodianService struct {
	*bridgePolicy

	registry  ports.AssetRegistry
	transport ports.MessageTransport
}

func NewCustodianService(
	chainID domain.ChainID, custodianAddr domain.Address,
	trustedChains []domain.ChainID,
	repoManager ports.RepoManager,
	registry ports.AssetRegistry,
	transport ports.MessageTransport,
	bank ports.Bank,
) CustodianService {
	return &custodianService{
		bridgePolicy: newBridgePolicy(
			RoleCustodian, chainID, custodianAddr, trustedChains, repoManager, bank,
		),
		registry:  registry,
		transport: transport,
	}
}

func (s *custodianService) Start() error {
	s.bridgePolicy.start()
	s.transport.Subscribe(func(ctx context.Context, msg ports.InboundMessage) error {
		if err := s.credit(ctx, msg); err != nil {
			err.Log().WithError(err).Warn("rejected inbound unlock")
			return err
		}
		return nil
	})
	log.WithField("chain", s.chainID).Info("custodian service started")
	return nil
}

func (s *custodianService) Stop() {
	s.bridgePolicy.stop()
	s.repoManager.Close()
}

// BridgeOut locks the asset and emits the outbound message. The lock entry,
// the fee accrual and the registry custody transfer commit together or not
// at all: any later failure unwinds the earlier steps before returning.
func (s *custodianService) BridgeOut(
	ctx context.Context, req BridgeOutRequest,
) (*BridgeReceipt, domain.Error) {
	if err := s.guard.enter(); err != nil {
		return nil, err
	}
	defer s.guard.exit()

	if err := s.requireActive(ctx); err != nil {
		return nil, err
	}

	fee, err := s.requiredFee(ctx, req.Destination)
	if err != nil {
		return nil, err
	}
	if req.Payment < fee {
		return nil, domain.INSUFFICIENT_FEE.New(
			"payment %d below required fee %d for %s", req.Payment, fee, req.Destination,
		)
	}

	recipient := req.Recipient
	if recipient.IsZero() {
		recipient = req.Holder
	}

	owner, regErr := s.registry.OwnerOf(ctx, req.AssetID)
	if regErr != nil {
		return nil, domain.REGISTRY_FAILURE.Wrap(regErr)
	}
	if owner != req.Holder {
		approved, regErr := s.registry.IsApproved(ctx, req.Holder, req.AssetID)
		if regErr != nil {
			return nil, domain.REGISTRY_FAILURE.Wrap(regErr)
		}
		if !approved {
			return nil, domain.UNAUTHORIZED.New(
				"%s is not owner nor approved for asset %d", req.Holder, req.AssetID,
			)
		}
	}

	entry, storeErr := s.repoManager.Locks().GetLock(ctx, req.AssetID)
	if storeErr != nil {
		return nil, domain.STORE_FAILURE.Wrap(storeErr)
	}
	if entry != nil {
		return nil, domain.ASSET_ALREADY_LOCKED.New("asset %d is already locked", req.AssetID)
	}

	if regErr := s.registry.TransferCustody(ctx, owner, s.roleAddr, req.AssetID); regErr != nil {
		return nil, domain.REGISTRY_FAILURE.Wrap(regErr)
	}

	lock := domain.NewLockEntry(req.AssetID, req.Holder, req.Destination)
	if storeErr := s.repoManager.Locks().AddLock(ctx, lock); storeErr != nil {
		s.unwindLock(ctx, req.AssetID, owner, false, 0)
		return nil, domain.STORE_FAILURE.Wrap(storeErr)
	}

	balance, storeErr := s.repoManager.Fees().IncreaseEscrow(ctx, fee)
	if storeErr != nil {
		s.unwindLock(ctx, req.AssetID, owner, true, 0)
		return nil, domain.STORE_FAILURE.Wrap(storeErr)
	}

	payload, encErr := domain.Envelope{AssetID: req.AssetID, Recipient: recipient}.Encode()
	if encErr != nil {
		s.unwindLock(ctx, req.AssetID, owner, true, fee)
		return nil, domain.BAD_ENVELOPE.Wrap(encErr)
	}

	handle, sendErr := s.transport.Send(ctx, ports.OutboundMessage{
		Destination: req.Destination,
		Payload:     payload,
		FeeBudget:   req.Payment - fee,
		RefundTo:    req.RefundTo,
	})
	if sendErr != nil {
		s.unwindLock(ctx, req.AssetID, owner, true, fee)
		return nil, domain.TRANSPORT_FAILURE.Wrap(sendErr)
	}

	transfer := domain.NewBridgeTransfer(
		req.AssetID, domain.TransferOutbound, s.chainID, req.Destination,
		req.Holder, recipient, fee, domain.TransferPending,
	)
	if storeErr := s.repoManager.Transfers().AddTransfer(ctx, transfer); storeErr != nil {
		log.WithError(storeErr).Error("failed to record outbound transfer")
	}

	log.WithField("asset", req.AssetID).
		WithField("destination", req.Destination).
		WithField("fee", fee).
		Debug("asset locked")

	if err := s.saveEvents(ctx,
		domain.AssetLocked{
			AssetID:     req.AssetID,
			Holder:      req.Holder,
			Destination: req.Destination,
		},
		domain.FeesCollected{Amount: fee, NewBalance: balance},
	); err != nil {
		return nil, err
	}

	return &BridgeReceipt{
		TransferId:    transfer.Id,
		MessageHandle: handle,
		FeePaid:       fee,
	}, nil
}

// credit handles a delivered unlock message. The lock check is the
// anti-double-spend defense: a duplicate or forged unlock for an asset the
// custodian never locked is rejected with no state change.
func (s *custodianService) credit(ctx context.Context, msg ports.InboundMessage) domain.Error {
	if err := s.guard.enter(); err != nil {
		return err
	}
	defer s.guard.exit()

	if err := s.requireActive(ctx); err != nil {
		return err
	}

	if !s.isTrustedSource(msg.Source) {
		return domain.UNAUTHORIZED.New("message from unrecognized chain %s", msg.Source)
	}

	envelope, decErr := domain.DecodeEnvelope(msg.Payload)
	if decErr != nil {
		return domain.BAD_ENVELOPE.Wrap(decErr)
	}
	if envelope.Recipient.IsZero() {
		return domain.NULL_RECIPIENT.New("unlock recipient is null")
	}

	entry, storeErr := s.repoManager.Locks().GetLock(ctx, envelope.AssetID)
	if storeErr != nil {
		return domain.STORE_FAILURE.Wrap(storeErr)
	}
	if entry == nil {
		return domain.ASSET_NOT_LOCKED.New("asset %d is not locked", envelope.AssetID)
	}

	// the lock entry goes first so that a custody transfer failure can
	// restore it and leave no partial state behind for the redelivery.
	if storeErr := s.repoManager.Locks().DeleteLock(ctx, envelope.AssetID); storeErr != nil {
		return domain.STORE_FAILURE.Wrap(storeErr)
	}

	if regErr := s.registry.TransferCustody(
		ctx, s.roleAddr, envelope.Recipient, envelope.AssetID,
	); regErr != nil {
		if storeErr := s.repoManager.Locks().AddLock(ctx, *entry); storeErr != nil {
			log.WithError(storeErr).Error("failed to restore lock entry")
		}
		return domain.REGISTRY_FAILURE.Wrap(regErr)
	}

	transfer := domain.NewBridgeTransfer(
		envelope.AssetID, domain.TransferInbound, msg.Source, s.chainID,
		s.roleAddr, envelope.Recipient, 0, domain.TransferCompleted,
	)
	if storeErr := s.repoManager.Transfers().AddTransfer(ctx, transfer); storeErr != nil {
		log.WithError(storeErr).Error("failed to record inbound transfer")
	}

	log.WithField("asset", envelope.AssetID).
		WithField("recipient", envelope.Recipient).
		Debug("asset unlocked")

	// the unlock committed: an event store failure must not nack the
	// message, a redelivery would only hit the lock check and fail.
	if err := s.saveEvents(ctx, domain.AssetUnlocked{
		AssetID:   envelope.AssetID,
		Recipient: envelope.Recipient,
		Source:    msg.Source,
	}); err != nil {
		log.WithError(err).Error("failed to store unlock events")
	}
	return nil
}

// EmergencyRecover transfers a custodian-held asset to recipient and clears
// its lock entry. It works while paused: it exists to rescue assets stranded
// by undeliverable messages, which is exactly when the bridge is paused.
func (s *custodianService) EmergencyRecover(
	ctx context.Context, assetID domain.AssetID, recipient domain.Address,
) domain.Error {
	if err := s.guard.enter(); err != nil {
		return err
	}
	defer s.guard.exit()

	if recipient.IsZero() {
		return domain.NULL_RECIPIENT.New("recovery recipient is null")
	}

	owner, regErr := s.registry.OwnerOf(ctx, assetID)
	if regErr != nil {
		return domain.REGISTRY_FAILURE.Wrap(regErr)
	}
	if owner != s.roleAddr {
		return domain.ASSET_NOT_HELD.New("asset %d is not custodied by this role", assetID)
	}

	if regErr := s.registry.TransferCustody(ctx, s.roleAddr, recipient, assetID); regErr != nil {
		return domain.REGISTRY_FAILURE.Wrap(regErr)
	}
	if storeErr := s.repoManager.Locks().DeleteLock(ctx, assetID); storeErr != nil {
		return domain.STORE_FAILURE.Wrap(storeErr)
	}

	transfer := domain.NewBridgeTransfer(
		assetID, domain.TransferInbound, s.chainID, s.chainID,
		s.roleAddr, recipient, 0, domain.TransferRecovered,
	)
	if storeErr := s.repoManager.Transfers().AddTransfer(ctx, transfer); storeErr != nil {
		log.WithError(storeErr).Error("failed to record recovery transfer")
	}

	log.WithField("asset", assetID).
		WithField("recipient", recipient).
		Warn("asset recovered by admin")

	return s.saveEvents(ctx, domain.AssetRecovered{AssetID: assetID, Recipient: recipient})
}

func (s *custodianService) GetLockStatus(
	ctx context.Context, assetID domain.AssetID,
) (*domain.LockEntry, error) {
	return s.repoManager.Locks().GetLock(ctx, assetID)
}

func (s *custodianService) Pause(ctx context.Context) domain.Error {
	return s.pause(ctx)
}

func (s *custodianService) Unpause(ctx context.Context) domain.Error {
	return s.unpause(ctx)
}

func (s *custodianService) SetFeeSchedule(
	ctx context.Context, schedule domain.FeeSchedule,
) domain.Error {
	return s.setFeeSchedule(ctx, schedule)
}

func (s *custodianService) WithdrawFees(
	ctx context.Context, recipient domain.Address,
) (uint64, domain.Error) {
	return s.withdrawFees(ctx, recipient)
}

func (s *custodianService) GetInfo(ctx context.Context) (*ServiceInfo, error) {
	return s.getInfo(ctx)
}

func (s *custodianService) ListTransfers(ctx context.Context) ([]domain.BridgeTransfer, error) {
	return s.listTransfers(ctx)
}

func (s *custodianService) GetEventsChannel() <-chan []domain.Event {
	return s.getEventsChannel()
}

// unwindLock reverts the partial effects of a failed BridgeOut. Compensation
// failures are logged, not returned: the original failure is the one the
// caller needs to see.
func (s *custodianService) unwindLock(
	ctx context.Context, assetID domain.AssetID, owner domain.Address,
	lockAdded bool, collectedFee uint64,
) {
	if collectedFee > 0 {
		if _, err := s.repoManager.Fees().DecreaseEscrow(ctx, collectedFee); err != nil {
			log.WithError(err).Error("failed to revert fee accrual")
		}
	}
	if lockAdded {
		if err := s.repoManager.Locks().DeleteLock(ctx, assetID); err != nil {
			log.WithError(err).Error("failed to revert lock entry")
		}
	}
	if err := s.registry.TransferCustody(ctx, s.roleAddr, owner, assetID); err != nil {
		log.WithError(err).Error("failed to revert custody transfer")
	}
}
