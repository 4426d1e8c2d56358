package db_test

import (
	"context"
	"testing"

	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/0xYaper/Portal/internal/core/ports"
	"github.com/0xYaper/Portal/internal/infrastructure/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	tests := []struct {
		name   string
		config db.ServiceConfig
	}{
		{
			name: "repo_manager_with_inmemory_stores",
			config: db.ServiceConfig{
				EventStoreType:   "badger",
				DataStoreType:    "badger",
				EventStoreConfig: []interface{}{"", nil},
				DataStoreConfig:  []interface{}{"", nil},
			},
		},
		{
			name: "repo_manager_with_badger_stores",
			config: db.ServiceConfig{
				EventStoreType:   "badger",
				DataStoreType:    "badger",
				EventStoreConfig: []interface{}{t.TempDir(), nil},
				DataStoreConfig:  []interface{}{t.TempDir(), nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := db.NewService(tt.config)
			require.NoError(t, err)
			require.NotNil(t, svc)

			testEventRepository(t, svc)
			testLockRepository(t, svc)
			testTransferRepository(t, svc)
			testFeeRepository(t, svc)
			testSettingsRepository(t, svc)

			svc.Close()
		})
	}
}

func TestServiceRejectsUnknownStoreType(t *testing.T) {
	_, err := db.NewService(db.ServiceConfig{
		EventStoreType: "unknown",
		DataStoreType:  "badger",
	})
	require.Error(t, err)

	_, err = db.NewService(db.ServiceConfig{
		EventStoreType:   "badger",
		DataStoreType:    "unknown",
		EventStoreConfig: []interface{}{"", nil},
	})
	require.Error(t, err)
}

func testEventRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_event_repository", func(t *testing.T) {
		ctx := context.Background()

		var handled [][]domain.Event
		svc.Events().RegisterEventsHandler(domain.BridgeTopic, func(events []domain.Event) {
			handled = append(handled, events)
		})
		defer svc.Events().ClearRegisteredHandlers(domain.BridgeTopic)

		events := []domain.Event{
			domain.AssetLocked{AssetID: 1, Holder: "alice", Destination: "sidechain"},
			domain.FeesCollected{Amount: 25, NewBalance: 25},
		}
		err := svc.Events().Save(ctx, domain.BridgeTopic, "evt-1", events)
		require.NoError(t, err)

		require.Len(t, handled, 1)
		require.Len(t, handled[0], 2)
		assert.Equal(t, domain.EventAssetLocked, handled[0][0].Type())
		assert.Equal(t, domain.EventFeesCollected, handled[0][1].Type())

		// events on a different topic don't reach the handler
		err = svc.Events().Save(ctx, "other_topic", "evt-2", []domain.Event{
			domain.BridgePaused{},
		})
		require.NoError(t, err)
		assert.Len(t, handled, 1)

		// a cleared handler receives nothing
		svc.Events().ClearRegisteredHandlers(domain.BridgeTopic)
		err = svc.Events().Save(ctx, domain.BridgeTopic, "evt-3", []domain.Event{
			domain.BridgeActive{},
		})
		require.NoError(t, err)
		assert.Len(t, handled, 1)
	})
}

func testLockRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_lock_repository", func(t *testing.T) {
		ctx := context.Background()

		lock, err := svc.Locks().GetLock(ctx, 404)
		require.NoError(t, err)
		require.Nil(t, lock)

		entry := domain.NewLockEntry(42, "alice", "sidechain")
		require.NoError(t, svc.Locks().AddLock(ctx, entry))

		// a second entry for the same asset is refused
		err = svc.Locks().AddLock(ctx, domain.NewLockEntry(42, "bob", "sidechain"))
		require.Error(t, err)

		got, err := svc.Locks().GetLock(ctx, 42)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, entry.AssetID, got.AssetID)
		assert.Equal(t, entry.OriginalHolder, got.OriginalHolder)
		assert.Equal(t, entry.Destination, got.Destination)

		require.NoError(t, svc.Locks().AddLock(ctx, domain.NewLockEntry(43, "bob", "sidechain")))

		all, err := svc.Locks().GetAllLocks(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		require.NoError(t, svc.Locks().DeleteLock(ctx, 42))
		got, err = svc.Locks().GetLock(ctx, 42)
		require.NoError(t, err)
		assert.Nil(t, got)

		require.NoError(t, svc.Locks().DeleteLock(ctx, 43))
	})
}

func testTransferRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_transfer_repository", func(t *testing.T) {
		ctx := context.Background()

		outbound := domain.NewBridgeTransfer(
			7, domain.TransferOutbound, "origin", "sidechain",
			"alice", "alice", 25, domain.TransferPending,
		)
		inbound := domain.NewBridgeTransfer(
			7, domain.TransferInbound, "sidechain", "origin",
			"bridge-custodian", "bob", 0, domain.TransferCompleted,
		)
		require.NoError(t, svc.Transfers().AddTransfer(ctx, outbound))
		require.NoError(t, svc.Transfers().AddTransfer(ctx, inbound))

		got, err := svc.Transfers().GetTransfer(ctx, outbound.Id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, outbound.AssetID, got.AssetID)
		assert.Equal(t, outbound.Direction, got.Direction)
		assert.Equal(t, outbound.FeePaid, got.FeePaid)

		missing, err := svc.Transfers().GetTransfer(ctx, "no-such-id")
		require.NoError(t, err)
		assert.Nil(t, missing)

		byAsset, err := svc.Transfers().GetTransfersByAsset(ctx, 7)
		require.NoError(t, err)
		assert.Len(t, byAsset, 2)

		all, err := svc.Transfers().GetAllTransfers(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		err = svc.Transfers().UpdateTransferStatus(ctx, outbound.Id, domain.TransferCompleted)
		require.NoError(t, err)
		got, err = svc.Transfers().GetTransfer(ctx, outbound.Id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, domain.TransferCompleted, got.Status)
	})
}

func testFeeRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_fee_repository", func(t *testing.T) {
		ctx := context.Background()

		schedule, err := svc.Fees().GetFeeSchedule(ctx)
		require.NoError(t, err)
		assert.Empty(t, schedule)

		err = svc.Fees().UpsertFeeSchedule(ctx, domain.FeeSchedule{
			"sidechain": 25,
			"otherside": 40,
		})
		require.NoError(t, err)

		schedule, err = svc.Fees().GetFeeSchedule(ctx)
		require.NoError(t, err)
		require.Len(t, schedule, 2)
		fee, ok := schedule.RequiredFee("sidechain")
		require.True(t, ok)
		assert.Equal(t, uint64(25), fee)
		_, ok = schedule.RequiredFee("unknown")
		assert.False(t, ok)

		balance, err := svc.Fees().GetEscrowBalance(ctx)
		require.NoError(t, err)
		assert.Zero(t, balance)

		balance, err = svc.Fees().IncreaseEscrow(ctx, 25)
		require.NoError(t, err)
		assert.Equal(t, uint64(25), balance)

		balance, err = svc.Fees().IncreaseEscrow(ctx, 40)
		require.NoError(t, err)
		assert.Equal(t, uint64(65), balance)

		balance, err = svc.Fees().DecreaseEscrow(ctx, 40)
		require.NoError(t, err)
		assert.Equal(t, uint64(25), balance)

		// cannot go negative
		_, err = svc.Fees().DecreaseEscrow(ctx, 100)
		require.Error(t, err)

		swept, err := svc.Fees().SweepEscrow(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(25), swept)

		balance, err = svc.Fees().GetEscrowBalance(ctx)
		require.NoError(t, err)
		assert.Zero(t, balance)

		// sweeping an empty escrow is a no-op
		swept, err = svc.Fees().SweepEscrow(ctx)
		require.NoError(t, err)
		assert.Zero(t, swept)
	})
}

func testSettingsRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_settings_repository", func(t *testing.T) {
		ctx := context.Background()

		settings, err := svc.Settings().Get(ctx)
		require.NoError(t, err)
		require.Nil(t, settings)

		input := domain.Settings{
			Paused:            true,
			TransferValidator: "validator-policy",
			Royalty: domain.RoyaltyInfo{
				Receiver:       "creator",
				FeeBasisPoints: 250,
			},
		}
		require.NoError(t, svc.Settings().Upsert(ctx, input))

		got, err := svc.Settings().Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Paused)
		assert.Equal(t, input.TransferValidator, got.TransferValidator)
		assert.Equal(t, input.Royalty, got.Royalty)

		input.Paused = false
		require.NoError(t, svc.Settings().Upsert(ctx, input))
		got, err = svc.Settings().Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.False(t, got.Paused)

		require.NoError(t, svc.Settings().Clear(ctx))
		got, err = svc.Settings().Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
