package application

import (
	"context"

	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/0xYaper/Portal/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// IssuerService is the destination-side role. It owns no lock table: the
// wrapped instance itself is the state. A mint that finds an instance
// already live is a replayed or duplicated message and is rejected, which is
// what keeps at most one live instance per asset id on this ledger.
type IssuerService interface {
	BridgeService

	// Transfer is the ledger-local (non-bridge) transfer path for wrapped
	// instances. When a transfer validator is configured it is consulted
	// here and only here; bridge-driven mint and burn bypass it.
	Transfer(
		ctx context.Context, operator, from, to domain.Address, assetID domain.AssetID,
	) domain.Error

	SetTransferValidator(ctx context.Context, validator domain.Address) domain.Error
	SetRoyaltyInfo(
		ctx context.Context, receiver domain.Address, basisPoints uint64,
	) domain.Error
	GetRoyaltyInfo(
		ctx context.Context, salePrice uint64,
	) (domain.Address, uint64, error)
}

type issuerService struct {
	*bridgePolicy

	registry  ports.AssetRegistry
	transport ports.MessageTransport
	validator ports.TransferValidator
}

func NewIssuerService(
	chainID domain.ChainID, issuerAddr domain.Address,
	trustedChains []domain.ChainID,
	repoManager ports.RepoManager,
	registry ports.AssetRegistry,
	transport ports.MessageTransport,
	bank ports.Bank,
	validator ports.TransferValidator,
) IssuerService {
	return &issuerService{
		bridgePolicy: newBridgePolicy(
			RoleIssuer, chainID, issuerAddr, trustedChains, repoManager, bank,
		),
		registry:  registry,
		transport: transport,
		validator: validator,
	}
}

func (s *issuerService) Start() error {
	s.bridgePolicy.start()
	s.transport.Subscribe(func(ctx context.Context, msg ports.InboundMessage) error {
		if err := s.credit(ctx, msg); err != nil {
			err.Log().WithError(err).Warn("rejected inbound mint")
			return err
		}
		return nil
	})
	log.WithField("chain", s.chainID).Info("issuer service started")
	return nil
}

func (s *issuerService) Stop() {
	s.bridgePolicy.stop()
	s.repoManager.Close()
}

// BridgeOut burns the wrapped instance and emits the outbound message.
func (s *issuerService) BridgeOut(
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

	if regErr := s.registry.Burn(ctx, req.AssetID); regErr != nil {
		return nil, domain.REGISTRY_FAILURE.Wrap(regErr)
	}

	balance, storeErr := s.repoManager.Fees().IncreaseEscrow(ctx, fee)
	if storeErr != nil {
		s.unwindBurn(ctx, req.AssetID, owner, 0)
		return nil, domain.STORE_FAILURE.Wrap(storeErr)
	}

	payload, encErr := domain.Envelope{AssetID: req.AssetID, Recipient: recipient}.Encode()
	if encErr != nil {
		s.unwindBurn(ctx, req.AssetID, owner, fee)
		return nil, domain.BAD_ENVELOPE.Wrap(encErr)
	}

	handle, sendErr := s.transport.Send(ctx, ports.OutboundMessage{
		Destination: req.Destination,
		Payload:     payload,
		FeeBudget:   req.Payment - fee,
		RefundTo:    req.RefundTo,
	})
	if sendErr != nil {
		s.unwindBurn(ctx, req.AssetID, owner, fee)
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
		Debug("wrapped instance burned")

	if err := s.saveEvents(ctx,
		domain.WrappedBurned{
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

// credit handles a delivered mint message. The existence check is the replay
// defense: two deliveries for the same asset id leave exactly one live
// wrapped instance.
func (s *issuerService) credit(ctx context.Context, msg ports.InboundMessage) domain.Error {
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
		return domain.NULL_RECIPIENT.New("mint recipient is null")
	}

	exists, regErr := s.registry.Exists(ctx, envelope.AssetID)
	if regErr != nil {
		return domain.REGISTRY_FAILURE.Wrap(regErr)
	}
	if exists {
		return domain.ALREADY_MINTED.New(
			"wrapped instance for asset %d already exists", envelope.AssetID,
		)
	}

	if regErr := s.registry.Mint(ctx, envelope.Recipient, envelope.AssetID); regErr != nil {
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
		Debug("wrapped instance minted")

	// the mint committed: an event store failure must not nack the
	// message, a redelivery would only be rejected as already minted.
	if err := s.saveEvents(ctx, domain.WrappedMinted{
		AssetID:   envelope.AssetID,
		Recipient: envelope.Recipient,
		Source:    msg.Source,
	}); err != nil {
		log.WithError(err).Error("failed to store mint events")
	}
	return nil
}

func (s *issuerService) Transfer(
	ctx context.Context, operator, from, to domain.Address, assetID domain.AssetID,
) domain.Error {
	if err := s.guard.enter(); err != nil {
		return err
	}
	defer s.guard.exit()

	if to.IsZero() {
		return domain.NULL_RECIPIENT.New("transfer recipient is null")
	}

	owner, regErr := s.registry.OwnerOf(ctx, assetID)
	if regErr != nil {
		return domain.REGISTRY_FAILURE.Wrap(regErr)
	}
	if owner != from {
		return domain.UNAUTHORIZED.New("%s does not hold asset %d", from, assetID)
	}
	if operator != owner {
		approved, regErr := s.registry.IsApproved(ctx, operator, assetID)
		if regErr != nil {
			return domain.REGISTRY_FAILURE.Wrap(regErr)
		}
		if !approved {
			return domain.UNAUTHORIZED.New(
				"%s is not owner nor approved for asset %d", operator, assetID,
			)
		}
	}

	settings, err := s.settings(ctx)
	if err != nil {
		return err
	}
	if !settings.TransferValidator.IsZero() && s.validator != nil {
		allowed, valErr := s.validator.ValidateTransfer(ctx, from, to, assetID)
		if valErr != nil {
			return domain.REGISTRY_FAILURE.Wrap(valErr)
		}
		if !allowed {
			return domain.UNAUTHORIZED.New(
				"transfer of asset %d from %s to %s rejected by validator",
				assetID, from, to,
			)
		}
	}

	if regErr := s.registry.TransferCustody(ctx, from, to, assetID); regErr != nil {
		return domain.REGISTRY_FAILURE.Wrap(regErr)
	}
	return nil
}

// EmergencyRecover transfers an issuer-held wrapped instance to recipient.
// Like the custodian's variant it works while paused.
func (s *issuerService) EmergencyRecover(
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
		return domain.ASSET_NOT_HELD.New("asset %d is not held by this role", assetID)
	}

	if regErr := s.registry.TransferCustody(ctx, s.roleAddr, recipient, assetID); regErr != nil {
		return domain.REGISTRY_FAILURE.Wrap(regErr)
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
		Warn("wrapped instance recovered by admin")

	return s.saveEvents(ctx, domain.AssetRecovered{AssetID: assetID, Recipient: recipient})
}

func (s *issuerService) SetTransferValidator(
	ctx context.Context, validator domain.Address,
) domain.Error {
	return s.updateSettings(ctx, func(settings *domain.Settings) {
		settings.TransferValidator = validator
	})
}

func (s *issuerService) SetRoyaltyInfo(
	ctx context.Context, receiver domain.Address, basisPoints uint64,
) domain.Error {
	if basisPoints > domain.MaxRoyaltyBasisPoints {
		return domain.INVALID_ROYALTY.New(
			"royalty %d exceeds %d basis points", basisPoints, domain.MaxRoyaltyBasisPoints,
		)
	}
	return s.updateSettings(ctx, func(settings *domain.Settings) {
		settings.Royalty = domain.RoyaltyInfo{
			Receiver:       receiver,
			FeeBasisPoints: basisPoints,
		}
	})
}

func (s *issuerService) GetRoyaltyInfo(
	ctx context.Context, salePrice uint64,
) (domain.Address, uint64, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return domain.ZeroAddress, 0, err
	}
	return settings.Royalty.Receiver, settings.Royalty.RoyaltyAmount(salePrice), nil
}

func (s *issuerService) Pause(ctx context.Context) domain.Error {
	return s.pause(ctx)
}

func (s *issuerService) Unpause(ctx context.Context) domain.Error {
	return s.unpause(ctx)
}

func (s *issuerService) SetFeeSchedule(
	ctx context.Context, schedule domain.FeeSchedule,
) domain.Error {
	return s.setFeeSchedule(ctx, schedule)
}

func (s *issuerService) WithdrawFees(
	ctx context.Context, recipient domain.Address,
) (uint64, domain.Error) {
	return s.withdrawFees(ctx, recipient)
}

func (s *issuerService) GetInfo(ctx context.Context) (*ServiceInfo, error) {
	return s.getInfo(ctx)
}

func (s *issuerService) ListTransfers(ctx context.Context) ([]domain.BridgeTransfer, error) {
	return s.listTransfers(ctx)
}

func (s *issuerService) GetEventsChannel() <-chan []domain.Event {
	return s.getEventsChannel()
}

// unwindBurn re-mints to the previous owner when a debit aborts after the
// burn already happened.
func (s *issuerService) unwindBurn(
	ctx context.Context, assetID domain.AssetID, owner domain.Address, collectedFee uint64,
) {
	if collectedFee > 0 {
		if _, err := s.repoManager.Fees().DecreaseEscrow(ctx, collectedFee); err != nil {
			log.WithError(err).Error("failed to revert fee accrual")
		}
	}
	if err := s.registry.Mint(ctx, owner, assetID); err != nil {
		log.WithError(err).Error("failed to revert burn")
	}
}
