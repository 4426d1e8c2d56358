package domain_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/0xYaper/Portal/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodedErrors(t *testing.T) {
	t.Run("new formats the message", func(t *testing.T) {
		err := domain.INSUFFICIENT_FEE.New("payment %d below required fee %d", 10, 25)
		require.NotNil(t, err)

		assert.Equal(t, uint16(1001), err.Code())
		assert.Equal(t, "INSUFFICIENT_FEE", err.CodeName())
		assert.Equal(t, domain.PolicyViolation, err.Class())
		assert.Contains(t, err.Error(), "INSUFFICIENT_FEE (1001)")
		assert.Contains(t, err.Error(), "payment 10 below required fee 25")
	})

	t.Run("wrap keeps the cause", func(t *testing.T) {
		cause := fmt.Errorf("disk full")
		err := domain.STORE_FAILURE.Wrap(cause)

		assert.Equal(t, domain.ExternalFailure, err.Class())
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, cause, errors.Unwrap(err))
	})

	t.Run("every code belongs to its class range", func(t *testing.T) {
		codes := []domain.Code{
			domain.BRIDGE_PAUSED, domain.INSUFFICIENT_FEE, domain.UNAUTHORIZED,
			domain.NULL_RECIPIENT, domain.UNKNOWN_DESTINATION, domain.REENTRANT_CALL,
			domain.EMPTY_ESCROW, domain.INVALID_ROYALTY,
			domain.ASSET_NOT_LOCKED, domain.ASSET_ALREADY_LOCKED,
			domain.ALREADY_MINTED, domain.ASSET_NOT_HELD,
			domain.REGISTRY_FAILURE, domain.TRANSPORT_FAILURE,
			domain.PAYOUT_FAILURE, domain.STORE_FAILURE, domain.BAD_ENVELOPE,
		}
		for _, code := range codes {
			switch {
			case code.Code < 2000:
				assert.Equal(t, domain.PolicyViolation, code.Class, code.Name)
			case code.Code < 3000:
				assert.Equal(t, domain.InvariantViolation, code.Class, code.Name)
			default:
				assert.Equal(t, domain.ExternalFailure, code.Class, code.Name)
			}
		}
	})
}

func TestRoyaltyAmount(t *testing.T) {
	royalty := domain.RoyaltyInfo{Receiver: "creator", FeeBasisPoints: 250}

	assert.Equal(t, uint64(250), royalty.RoyaltyAmount(10000))
	assert.Equal(t, uint64(25), royalty.RoyaltyAmount(1000))
	assert.Zero(t, royalty.RoyaltyAmount(0))
	// rounds down
	assert.Zero(t, royalty.RoyaltyAmount(3))

	full := domain.RoyaltyInfo{Receiver: "creator", FeeBasisPoints: domain.MaxRoyaltyBasisPoints}
	assert.Equal(t, uint64(10000), full.RoyaltyAmount(10000))

	// sale prices beyond ~1.8e15 would overflow a naive price*bps product
	huge := uint64(5_000_000_000_000_000_000)
	assert.Equal(t, huge/40, royalty.RoyaltyAmount(huge))
	assert.Equal(t, huge, full.RoyaltyAmount(huge))
	assert.Equal(t, uint64(math.MaxUint64), full.RoyaltyAmount(math.MaxUint64))
}

func TestEnvelope(t *testing.T) {
	buf, err := domain.Envelope{AssetID: 42, Recipient: "alice"}.Encode()
	require.NoError(t, err)

	envelope, err := domain.DecodeEnvelope(buf)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetID(42), envelope.AssetID)
	assert.Equal(t, domain.Address("alice"), envelope.Recipient)

	_, err = domain.DecodeEnvelope([]byte("not json"))
	require.Error(t, err)
}

func TestParseAssetID(t *testing.T) {
	id, err := domain.ParseAssetID("42")
	require.NoError(t, err)
	assert.Equal(t, domain.AssetID(42), id)

	_, err = domain.ParseAssetID("not-a-number")
	require.Error(t, err)
	_, err = domain.ParseAssetID("-1")
	require.Error(t, err)
}
