package vault

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/rony4d/interest-vault/inter"
	"github.com/rony4d/interest-vault/merkle"
	"github.com/rony4d/interest-vault/vaulterr"
)

// ClaimRequest is one claimant's request against the live epoch.
type ClaimRequest struct {
	Claimant solana.PublicKey
	Epoch    uint64
	Index    uint32
	Weight   uint256.Int
	Proof    []common.Hash
}

// ClaimVerifier pays a claim at most once per index of the bound epoch.
type ClaimVerifier struct {
	Epoch  *inter.BoostEpoch
	Bitmap *inter.ClaimBitmap
	Payer  Payer
}

// Claim checks the request against the epoch slot and the bitmap, verifies
// the merkle path, pays floor(boost_total*weight/total_weight) and marks the
// index. The bit is set only after the payer succeeds.
func (v *ClaimVerifier) Claim(req ClaimRequest) (uint64, error) {
	ep := v.Epoch
	if ep.Epoch != req.Epoch {
		return 0, fmt.Errorf("claim epoch %d, bound %d: %w", req.Epoch, ep.Epoch, vaulterr.ErrEpochMismatch)
	}
	if ep.TotalWeight.IsZero() {
		return 0, vaulterr.ErrNoActiveEpoch
	}
	if !v.Bitmap.InRange(req.Index) {
		return 0, fmt.Errorf("claim index %d: %w", req.Index, vaulterr.ErrIndexOutOfRange)
	}
	if v.Bitmap.Claimed(req.Index) {
		return 0, fmt.Errorf("claim index %d: %w", req.Index, vaulterr.ErrAlreadyClaimed)
	}

	leaf := merkle.Leaf(req.Index, req.Claimant, &req.Weight)
	if len(req.Proof) > inter.MaxProofNodes {
		return 0, fmt.Errorf("proof of %d nodes: %w", len(req.Proof), vaulterr.ErrProofTooLong)
	}
	if !merkle.Verify(ep.Root, leaf, req.Proof) {
		return 0, fmt.Errorf("claim index %d: %w", req.Index, vaulterr.ErrProofInvalid)
	}

	payout, err := Payout(ep.BoostTotal, &req.Weight, &ep.TotalWeight)
	if err != nil {
		return 0, err
	}
	if err := v.Payer.PayBoost(req.Claimant, payout); err != nil {
		return 0, fmt.Errorf("pay claim %d: %w", req.Index, err)
	}
	v.Bitmap.MarkClaimed(req.Index)
	return payout, nil
}

// Payout returns floor(boostTotal*weight/totalWeight). The product is formed
// in 256 bits; a result wider than 64 bits is AmountTooLarge.
func Payout(boostTotal uint64, weight, totalWeight *uint256.Int) (uint64, error) {
	if totalWeight.IsZero() {
		return 0, vaulterr.ErrNoActiveEpoch
	}
	if !fitsU128(weight) || !fitsU128(totalWeight) {
		return 0, fmt.Errorf("claim weight: %w", vaulterr.ErrArithmeticOverflow)
	}
	q, err := mulDiv(uint256.NewInt(boostTotal), weight, totalWeight)
	if err != nil {
		return 0, err
	}
	return toU64(q, "claim payout")
}
