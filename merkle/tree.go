package merkle

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/rony4d/interest-vault/vaulterr"
)

// tree.go builds the off-chain side of a distribution: the operator collects
// (index, claimant, weight) entries, builds the tree, posts Root and
// TotalWeight, and hands every claimant its proof.

var (
	ErrEmptyTree      = errors.New("merkle tree needs at least one entry")
	ErrDuplicateIndex = errors.New("duplicate claim index")
)

// Entry is one claimant's allocation in an epoch.
type Entry struct {
	Index    uint32
	Claimant solana.PublicKey
	Weight   uint256.Int
}

// Tree is an immutable sorted-pair merkle tree. levels[0] holds the leaves in
// entry order; the last level holds the root alone.
type Tree struct {
	entries  []Entry
	levels   [][]common.Hash
	byIndex  map[uint32]int
	totalWgt uint256.Int
}

// Build hashes entries into a tree. An unpaired node at the end of a level is
// promoted to the next level unchanged, so it contributes no sibling to proofs.
// The sum of weights must fit in 128 bits.
func Build(entries []Entry) (*Tree, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyTree
	}

	t := &Tree{
		entries: append([]Entry(nil), entries...),
		byIndex: make(map[uint32]int, len(entries)),
	}
	leaves := make([]common.Hash, len(entries))
	for pos, e := range t.entries {
		if _, dup := t.byIndex[e.Index]; dup {
			return nil, fmt.Errorf("index %d: %w", e.Index, ErrDuplicateIndex)
		}
		t.byIndex[e.Index] = pos

		sum, overflow := new(uint256.Int).AddOverflow(&t.totalWgt, &e.Weight)
		if overflow || sum[2] != 0 || sum[3] != 0 {
			return nil, fmt.Errorf("total weight: %w", vaulterr.ErrArithmeticOverflow)
		}
		t.totalWgt = *sum

		leaves[pos] = Leaf(e.Index, e.Claimant, &e.Weight)
	}

	t.levels = append(t.levels, leaves)
	for level := leaves; len(level) > 1; {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, HashPair(level[i], level[i+1]))
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t, nil
}

// Root returns the tree root.
func (t *Tree) Root() common.Hash {
	return t.levels[len(t.levels)-1][0]
}

// TotalWeight returns the sum of all entry weights.
func (t *Tree) TotalWeight() uint256.Int {
	return t.totalWgt
}

// Len returns the number of entries.
func (t *Tree) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the entries in leaf order.
func (t *Tree) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Proof returns the sibling path for the entry at leaf position pos.
func (t *Tree) Proof(pos int) []common.Hash {
	proof := make([]common.Hash, 0, len(t.levels)-1)
	for _, level := range t.levels[:len(t.levels)-1] {
		sib := pos ^ 1
		if sib < len(level) {
			proof = append(proof, level[sib])
		}
		pos /= 2
	}
	return proof
}

// ProofFor returns the entry and proof for a claim index.
func (t *Tree) ProofFor(index uint32) (Entry, []common.Hash, bool) {
	pos, ok := t.byIndex[index]
	if !ok {
		return Entry{}, nil, false
	}
	return t.entries[pos], t.Proof(pos), true
}
