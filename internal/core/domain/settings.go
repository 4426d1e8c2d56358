package domain

import "time"

const MaxRoyaltyBasisPoints = 10000

// RoyaltyInfo is read-only metadata consumed by external marketplaces.
type RoyaltyInfo struct {
	Receiver       Address
	FeeBasisPoints uint64
}

// RoyaltyAmount computes the royalty owed on a sale price. The quotient and
// remainder are scaled separately so the product never overflows uint64.
func (r RoyaltyInfo) RoyaltyAmount(salePrice uint64) uint64 {
	quot, rem := salePrice/MaxRoyaltyBasisPoints, salePrice%MaxRoyaltyBasisPoints
	return quot*r.FeeBasisPoints + rem*r.FeeBasisPoints/MaxRoyaltyBasisPoints
}

// Settings is the administrative state of a deployed role instance. It
// survives restarts: a paused bridge stays paused until an admin unpauses it.
type Settings struct {
	Paused            bool
	TransferValidator Address
	Royalty           RoyaltyInfo
	UpdatedAt         time.Time
}
