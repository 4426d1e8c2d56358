package domain

import "time"

// LockEntry records custody of an asset held by the origin custodian while a
// wrapped representation lives on another ledger. An entry exists if and only
// if the custodian owns the asset on the registry and no external holder does.
type LockEntry struct {
	AssetID        AssetID
	OriginalHolder Address
	Destination    ChainID
	LockedAt       int64
}

func NewLockEntry(assetID AssetID, holder Address, destination ChainID) LockEntry {
	return LockEntry{
		AssetID:        assetID,
		OriginalHolder: holder,
		Destination:    destination,
		LockedAt:       time.Now().Unix(),
	}
}
