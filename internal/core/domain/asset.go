package domain

import (
	"fmt"
	"strconv"
)

// AssetID is the identity key of an asset across every ledger. The origin
// registry assigns it at creation time and it never changes, no matter how
// many times the asset crosses a bridge.
type AssetID uint64

func (id AssetID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func ParseAssetID(s string) (AssetID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid asset id: %s", s)
	}
	return AssetID(v), nil
}

// Address identifies a holder on a ledger.
type Address string

const ZeroAddress Address = ""

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}

// ChainID identifies a ledger known to the bridge. It doubles as the
// destination class used for fee schedule lookups.
type ChainID string

func (c ChainID) String() string {
	return string(c)
}
