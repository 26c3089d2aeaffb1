package inter

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/rony4d/interest-vault/utils/fast"
	"github.com/rony4d/interest-vault/vaulterr"
)

// Op is the selector carried in the first byte of every instruction payload.
type Op uint8

const (
	OpInit Op = iota
	OpDeposit
	OpWithdraw
	OpDonate
	OpPostRoot
	OpClaim
)

// MaxProofNodes is the longest merkle path a claim may carry.
const MaxProofNodes = 16

// MaxEncodedProofNodes is the most proof nodes a claim payload can frame.
const MaxEncodedProofNodes = 255

func (op Op) String() string {
	switch op {
	case OpInit:
		return "init"
	case OpDeposit:
		return "deposit"
	case OpWithdraw:
		return "withdraw"
	case OpDonate:
		return "donate"
	case OpPostRoot:
		return "post_root"
	case OpClaim:
		return "claim"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

// Payload is a decoded instruction. Encode returns the selector byte followed
// by the fixed-width fields in wire order.
type Payload interface {
	Op() Op
	Encode() []byte
}

// InitArgs: decimals u8.
type InitArgs struct {
	Decimals uint8
}

// DepositArgs: amount u64, decimals u8.
type DepositArgs struct {
	Amount   uint64
	Decimals uint8
}

// WithdrawArgs: shares u64, decimals u8.
type WithdrawArgs struct {
	Shares   uint64
	Decimals uint8
}

// DonateArgs: amount u64, epoch u64, boost_bps u16, decimals u8.
type DonateArgs struct {
	Amount   uint64
	Epoch    uint64
	BoostBps uint16
	Decimals uint8
}

// PostRootArgs: epoch u64, total_weight u128, root 32B.
type PostRootArgs struct {
	Epoch       uint64
	TotalWeight uint256.Int
	Root        common.Hash
}

// ClaimArgs: epoch u64, index u32, weight u128, proof_len u8, proof_len x 32B.
type ClaimArgs struct {
	Epoch  uint64
	Index  uint32
	Weight uint256.Int
	Proof  []common.Hash
}

func (InitArgs) Op() Op     { return OpInit }
func (DepositArgs) Op() Op  { return OpDeposit }
func (WithdrawArgs) Op() Op { return OpWithdraw }
func (DonateArgs) Op() Op   { return OpDonate }
func (PostRootArgs) Op() Op { return OpPostRoot }
func (ClaimArgs) Op() Op    { return OpClaim }

func newPayloadWriter(op Op, size int) *fast.Writer {
	w := fast.NewWriter(make([]byte, 0, 1+size))
	w.WriteByte(byte(op))
	return w
}

func (a InitArgs) Encode() []byte {
	w := newPayloadWriter(OpInit, 1)
	w.WriteByte(a.Decimals)
	return w.Bytes()
}

func (a DepositArgs) Encode() []byte {
	w := newPayloadWriter(OpDeposit, 9)
	w.U64(a.Amount)
	w.WriteByte(a.Decimals)
	return w.Bytes()
}

func (a WithdrawArgs) Encode() []byte {
	w := newPayloadWriter(OpWithdraw, 9)
	w.U64(a.Shares)
	w.WriteByte(a.Decimals)
	return w.Bytes()
}

func (a DonateArgs) Encode() []byte {
	w := newPayloadWriter(OpDonate, 19)
	w.U64(a.Amount)
	w.U64(a.Epoch)
	w.U16(a.BoostBps)
	w.WriteByte(a.Decimals)
	return w.Bytes()
}

func (a PostRootArgs) Encode() []byte {
	w := newPayloadWriter(OpPostRoot, 56)
	w.U64(a.Epoch)
	w.U128(&a.TotalWeight)
	w.Write(a.Root[:])
	return w.Bytes()
}

// Encode writes proof_len as a single byte, so at most MaxEncodedProofNodes
// nodes are written. A longer proof is cut to that length, which the claim
// verifier still rejects with ErrProofTooLong.
func (a ClaimArgs) Encode() []byte {
	proof := a.Proof
	if len(proof) > MaxEncodedProofNodes {
		proof = proof[:MaxEncodedProofNodes]
	}
	w := newPayloadWriter(OpClaim, 29+32*len(proof))
	w.U64(a.Epoch)
	w.U32(a.Index)
	w.U128(&a.Weight)
	w.WriteByte(byte(len(proof)))
	for _, node := range proof {
		w.Write(node[:])
	}
	return w.Bytes()
}

// DecodePayload parses a full instruction payload (selector included).
// Truncated fields, trailing bytes and unknown selectors are ErrMalformedInput.
// A claim proof longer than MaxProofNodes still decodes; the claim verifier
// rejects it with ErrProofTooLong.
func DecodePayload(data []byte) (Payload, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty instruction: %w", vaulterr.ErrMalformedInput)
	}
	op := Op(data[0])
	r := fast.NewReader(data[1:])

	var p Payload
	switch op {
	case OpInit:
		p = InitArgs{Decimals: r.ReadByte()}
	case OpDeposit:
		p = DepositArgs{Amount: r.U64(), Decimals: r.ReadByte()}
	case OpWithdraw:
		p = WithdrawArgs{Shares: r.U64(), Decimals: r.ReadByte()}
	case OpDonate:
		p = DonateArgs{Amount: r.U64(), Epoch: r.U64(), BoostBps: r.U16(), Decimals: r.ReadByte()}
	case OpPostRoot:
		a := PostRootArgs{Epoch: r.U64(), TotalWeight: r.U128()}
		r.ReadInto(a.Root[:])
		p = a
	case OpClaim:
		a := ClaimArgs{Epoch: r.U64(), Index: r.U32(), Weight: r.U128()}
		n := int(r.ReadByte())
		if r.Err() == nil && r.Remaining() < n*32 {
			return nil, fmt.Errorf("%s: proof_len %d needs %d bytes, have %d: %w",
				op, n, n*32, r.Remaining(), vaulterr.ErrMalformedInput)
		}
		a.Proof = make([]common.Hash, n)
		for i := range a.Proof {
			r.ReadInto(a.Proof[i][:])
		}
		p = a
	default:
		return nil, fmt.Errorf("unknown selector %d: %w", data[0], vaulterr.ErrMalformedInput)
	}

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, vaulterr.ErrMalformedInput)
	}
	if !r.Empty() {
		return nil, fmt.Errorf("%s: %d trailing bytes: %w", op, r.Remaining(), vaulterr.ErrMalformedInput)
	}
	return p, nil
}
