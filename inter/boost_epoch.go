package inter

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/rony4d/interest-vault/utils/bits"
	"github.com/rony4d/interest-vault/utils/fast"
	"github.com/rony4d/interest-vault/vaulterr"
)

// BoostEpochSize is the encoded size of a BoostEpoch.
const BoostEpochSize = 8 + 32 + 16 + 8 + 8

// BoostEpoch is the single live distribution slot of a vault. Posting a root
// overwrites Epoch, Root and TotalWeight; donations accumulate BoostTotal.
type BoostEpoch struct {
	// Epoch is the bound distribution period. Zero means unbound.
	Epoch uint64
	// Root is the sorted-pair merkle root over the weight leaves.
	Root common.Hash
	// TotalWeight is the sum of all leaf weights (u128). Zero means no claims yet.
	TotalWeight uint256.Int
	// BoostTotal is the boost amount accumulated for Epoch, read live at claim time.
	BoostTotal uint64
}

// Bound reports whether the slot is bound to an epoch.
func (e *BoostEpoch) Bound() bool {
	return e.Epoch != 0
}

// MarshalBinary encodes the slot into its fixed 72-byte layout.
func (e *BoostEpoch) MarshalBinary() ([]byte, error) {
	if !fitsU128(&e.TotalWeight) {
		return nil, fmt.Errorf("boost epoch: %w", vaulterr.ErrArithmeticOverflow)
	}
	w := fast.NewWriter(make([]byte, 0, BoostEpochSize))
	w.U64(e.Epoch)
	w.Write(e.Root[:])
	w.U128(&e.TotalWeight)
	w.U64(e.BoostTotal)
	w.Zeros(8)
	return w.Bytes(), nil
}

// UnmarshalBinary decodes a slot from at least BoostEpochSize bytes.
func (e *BoostEpoch) UnmarshalBinary(b []byte) error {
	if len(b) < BoostEpochSize {
		return fmt.Errorf("boost epoch: %d bytes, want %d: %w", len(b), BoostEpochSize, vaulterr.ErrMalformedInput)
	}
	rd := fast.NewReader(b[:BoostEpochSize])
	e.Epoch = rd.U64()
	rd.ReadInto(e.Root[:])
	e.TotalWeight = rd.U128()
	e.BoostTotal = rd.U64()
	rd.Skip(8)
	if err := rd.Err(); err != nil {
		return fmt.Errorf("boost epoch: %v: %w", err, vaulterr.ErrMalformedInput)
	}
	return nil
}

// ClaimBitmapSize is the encoded size of a ClaimBitmap.
const ClaimBitmapSize = 32

// ClaimBitmap holds one paid flag per claim index 0..255 for the bound epoch.
// Bits are never cleared; a new epoch gets a fresh bitmap account.
type ClaimBitmap [ClaimBitmapSize]byte

func (m *ClaimBitmap) flags() bits.Array {
	return bits.Array{Bytes: m[:]}
}

// InRange reports whether index addresses a byte inside the bitmap.
func (m *ClaimBitmap) InRange(index uint32) bool {
	return m.flags().InRange(index)
}

// Claimed reports whether index has already been paid.
func (m *ClaimBitmap) Claimed(index uint32) bool {
	return m.flags().Get(index)
}

// MarkClaimed sets the bit for index; it reports false when index is out of range.
func (m *ClaimBitmap) MarkClaimed(index uint32) bool {
	return m.flags().Set(index)
}

// Count returns how many indices have been paid.
func (m *ClaimBitmap) Count() int {
	return m.flags().Count()
}

// MarshalBinary returns the 32 raw bitmap bytes.
func (m *ClaimBitmap) MarshalBinary() ([]byte, error) {
	out := make([]byte, ClaimBitmapSize)
	copy(out, m[:])
	return out, nil
}

// UnmarshalBinary loads the bitmap from at least 32 bytes.
func (m *ClaimBitmap) UnmarshalBinary(b []byte) error {
	if len(b) < ClaimBitmapSize {
		return fmt.Errorf("claim bitmap: %d bytes, want %d: %w", len(b), ClaimBitmapSize, vaulterr.ErrMalformedInput)
	}
	copy(m[:], b)
	return nil
}
