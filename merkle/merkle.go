// Package merkle implements the hashing primitive behind boost claims:
// domain-separated weight leaves and sorted-pair merkle paths over keccak256.
//
// Sorted-pair hashing orders the two children lexicographically before
// concatenating them, so a proof is just the list of siblings from leaf to
// root; nobody has to track whether a node sat on the left or the right.
package merkle

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/rony4d/interest-vault/utils/fast"
)

// LeafTag prefixes every weight leaf so it cannot collide with hashes from
// any other tree built over keccak256.
var LeafTag = []byte("weight")

// Leaf returns keccak256("weight" || le32(index) || claimant || le128(weight)).
func Leaf(index uint32, claimant solana.PublicKey, weight *uint256.Int) common.Hash {
	w := fast.NewWriter(make([]byte, 0, len(LeafTag)+4+32+16))
	w.Write(LeafTag)
	w.U32(index)
	w.Write(claimant[:])
	w.U128(weight)
	return crypto.Keccak256Hash(w.Bytes())
}

// HashPair returns keccak256(min(a,b) || max(a,b)).
func HashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

// Fold walks proof from leaf upwards and returns the implied root.
func Fold(leaf common.Hash, proof []common.Hash) common.Hash {
	cur := leaf
	for _, sibling := range proof {
		cur = HashPair(cur, sibling)
	}
	return cur
}

// Verify reports whether proof connects leaf to root. An empty proof means a
// single-leaf tree: the leaf itself must equal the root.
func Verify(root, leaf common.Hash, proof []common.Hash) bool {
	return Fold(leaf, proof) == root
}
