package vault

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/rony4d/interest-vault/inter"
	"github.com/rony4d/interest-vault/vaulterr"
)

// BpsDenominator is 100% in basis points.
const BpsDenominator = 10_000

// Split is how a donation was divided.
type Split struct {
	Base  uint64
	Boost uint64
}

// SplitDonation computes boost = floor(amount*bps/10000) and base = amount-boost.
func SplitDonation(amount uint64, bps uint16) (Split, error) {
	if bps > BpsDenominator {
		return Split{}, fmt.Errorf("boost bps %d above %d: %w", bps, BpsDenominator, vaulterr.ErrMalformedInput)
	}
	boost, err := mulDiv(uint256.NewInt(amount), uint256.NewInt(uint64(bps)), uint256.NewInt(BpsDenominator))
	if err != nil {
		return Split{}, err
	}
	// boost <= amount, so it fits in 64 bits.
	b := boost.Uint64()
	return Split{Base: amount - b, Boost: b}, nil
}

// DonationRouter feeds a donation into the share price and the boost pool.
type DonationRouter struct {
	Shares *ShareAccountant
	// Epoch is optional; when nil the boost is forwarded but not accounted to
	// any distribution.
	Epoch   *inter.BoostEpoch
	Custody BoostCustody
}

// Donate splits amount by bps, raises pps by the base part and forwards the
// boost part to custody. With an epoch record, an unbound slot is bound to
// epoch and a slot bound elsewhere is rejected.
func (r *DonationRouter) Donate(amount, epoch uint64, bps uint16) (Split, error) {
	split, err := SplitDonation(amount, bps)
	if err != nil {
		return Split{}, err
	}
	if r.Epoch != nil && r.Epoch.Bound() && r.Epoch.Epoch != epoch {
		return Split{}, fmt.Errorf("donate to epoch %d, bound %d: %w", epoch, r.Epoch.Epoch, vaulterr.ErrEpochMismatch)
	}

	if split.Boost > 0 && r.Custody == nil {
		return Split{}, fmt.Errorf("donate: no boost custody: %w", vaulterr.ErrMalformedInput)
	}

	saved := *r.Shares.rec
	if err := r.Shares.ApplyYield(split.Base); err != nil {
		return Split{}, err
	}
	if split.Boost > 0 {
		if err := r.Custody.ForwardBoost(split.Boost); err != nil {
			*r.Shares.rec = saved
			return Split{}, fmt.Errorf("forward boost: %w", err)
		}
	}
	if r.Epoch != nil {
		if !r.Epoch.Bound() {
			r.Epoch.Epoch = epoch
		}
		r.Epoch.BoostTotal = saturatingAdd64(r.Epoch.BoostTotal, split.Boost)
	}
	return split, nil
}
