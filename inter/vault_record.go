// Package inter defines the byte-exact records a vault keeps in its accounts
// and the instruction payloads that mutate them.
//
// Every record is a plain Go struct with explicit MarshalBinary/UnmarshalBinary
// at the storage boundary. Nothing is ever cast in place: the host loads bytes,
// decodes a value, the core works on the value, and the host encodes it back.
//
// Layouts (all multi-byte integers little-endian):
//
//	VaultRecord  admin(32) operator(32) base_mint(32) share_mint(32) vault_authority(32)
//	             nonce(1) pad(7) total_shares(16) pps(16) buffered_base(8) settle_slot(8)  = 216 bytes
//	BoostEpoch   epoch(8) root(32) total_weight(16) boost_total(8) pad(8)                  =  72 bytes
//	ClaimBitmap  32 bytes, 256 flags                                                        =  32 bytes

package inter

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/rony4d/interest-vault/utils/fast"
	"github.com/rony4d/interest-vault/vaulterr"
)

// RAY is the fixed-point scale of the price-per-share: RAY represents 1.0.
const RAY uint64 = 1_000_000_000_000

// VaultRecordSize is the encoded size of a VaultRecord.
const VaultRecordSize = 5*32 + 1 + 7 + 16 + 16 + 8 + 8

// VaultRecord is the single state record of a vault.
type VaultRecord struct {
	// Admin created the vault; it is one of the vault authority seeds.
	Admin solana.PublicKey
	// Operator is trusted to post merkle roots.
	Operator solana.PublicKey
	// BaseMint is the deposited asset; also a vault authority seed.
	BaseMint solana.PublicKey
	// ShareMint is minted on deposit and burned on withdraw. Its supply must
	// always equal TotalShares.
	ShareMint solana.PublicKey
	// VaultAuthority is the program-derived address that owns the vault's
	// token accounts and signs every vault-authorized transfer.
	VaultAuthority solana.PublicKey
	// Nonce is the derivation bump stored at init and replayed on every signature.
	Nonce uint8

	// TotalShares is the outstanding share count (u128).
	TotalShares uint256.Int
	// PPS is the price-per-share scaled by RAY (u128). Starts at RAY.
	PPS uint256.Int
	// BufferedBase holds base yield donated while TotalShares was zero.
	BufferedBase uint64
	// SettleSlot is a passive hook; no vault logic reads or writes it.
	SettleSlot uint64
}

// fitsU128 reports whether v can be stored in a 16-byte field.
func fitsU128(v *uint256.Int) bool {
	return v[2] == 0 && v[3] == 0
}

// MarshalBinary encodes the record into its fixed 216-byte layout.
func (r *VaultRecord) MarshalBinary() ([]byte, error) {
	if !fitsU128(&r.TotalShares) || !fitsU128(&r.PPS) {
		return nil, fmt.Errorf("vault record: %w", vaulterr.ErrArithmeticOverflow)
	}
	w := fast.NewWriter(make([]byte, 0, VaultRecordSize))
	w.Write(r.Admin[:])
	w.Write(r.Operator[:])
	w.Write(r.BaseMint[:])
	w.Write(r.ShareMint[:])
	w.Write(r.VaultAuthority[:])
	w.WriteByte(r.Nonce)
	w.Zeros(7)
	w.U128(&r.TotalShares)
	w.U128(&r.PPS)
	w.U64(r.BufferedBase)
	w.U64(r.SettleSlot)
	return w.Bytes(), nil
}

// UnmarshalBinary decodes a record from at least VaultRecordSize bytes.
// Trailing bytes (account slack) are ignored.
func (r *VaultRecord) UnmarshalBinary(b []byte) error {
	if len(b) < VaultRecordSize {
		return fmt.Errorf("vault record: %d bytes, want %d: %w", len(b), VaultRecordSize, vaulterr.ErrMalformedInput)
	}
	rd := fast.NewReader(b[:VaultRecordSize])
	rd.ReadInto(r.Admin[:])
	rd.ReadInto(r.Operator[:])
	rd.ReadInto(r.BaseMint[:])
	rd.ReadInto(r.ShareMint[:])
	rd.ReadInto(r.VaultAuthority[:])
	r.Nonce = rd.ReadByte()
	rd.Skip(7)
	r.TotalShares = rd.U128()
	r.PPS = rd.U128()
	r.BufferedBase = rd.U64()
	r.SettleSlot = rd.U64()
	if err := rd.Err(); err != nil {
		return fmt.Errorf("vault record: %v: %w", err, vaulterr.ErrMalformedInput)
	}
	return nil
}
