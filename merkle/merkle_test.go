package merkle

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/interest-vault/vaulterr"
)

// randomEntries builds n entries with sequential indices and random claimants/weights.
func randomEntries(r *rand.Rand, n int) []Entry {
	out := make([]Entry, n)
	for i := range out {
		var pk solana.PublicKey
		r.Read(pk[:])
		out[i] = Entry{Index: uint32(i), Claimant: pk, Weight: *uint256.NewInt(uint64(1 + r.Intn(1000)))}
	}
	return out
}

// TestLeaf_Preimage verifies the exact byte preimage of a weight leaf.
func TestLeaf_Preimage(t *testing.T) {
	var claimant solana.PublicKey
	for i := range claimant {
		claimant[i] = byte(i)
	}
	weight := uint256.Int{0x0102, 0x03, 0, 0}

	preimage := []byte("weight")
	preimage = append(preimage, 0x05, 0x01, 0x00, 0x00) // index 261
	preimage = append(preimage, claimant[:]...)
	preimage = append(preimage, 0x02, 0x01, 0, 0, 0, 0, 0, 0, 0x03, 0, 0, 0, 0, 0, 0, 0)
	require.Len(t, preimage, 6+4+32+16)

	want := common.BytesToHash(crypto.Keccak256(preimage))
	require.Equal(t, want, Leaf(261, claimant, &weight))
}

// TestLeaf_FieldsMatter verifies that every leaf field changes the hash.
func TestLeaf_FieldsMatter(t *testing.T) {
	pk := solana.PublicKey{1}
	other := solana.PublicKey{2}
	base := Leaf(1, pk, uint256.NewInt(100))

	assert.NotEqual(t, base, Leaf(2, pk, uint256.NewInt(100)))
	assert.NotEqual(t, base, Leaf(1, other, uint256.NewInt(100)))
	assert.NotEqual(t, base, Leaf(1, pk, uint256.NewInt(101)))
}

// TestHashPair_Sorted verifies that pair hashing ignores argument order and
// hashes the smaller node first.
func TestHashPair_Sorted(t *testing.T) {
	a := common.HexToHash("0x01")
	b := common.HexToHash("0xff")

	require.Equal(t, HashPair(a, b), HashPair(b, a))
	require.Equal(t, crypto.Keccak256Hash(a[:], b[:]), HashPair(b, a))
	require.NotEqual(t, crypto.Keccak256Hash(b[:], a[:]), HashPair(a, b))
}

// TestVerify_SingleLeaf verifies that an empty proof succeeds only when the leaf is the root.
func TestVerify_SingleLeaf(t *testing.T) {
	leaf := Leaf(0, solana.PublicKey{9}, uint256.NewInt(5))

	tree, err := Build([]Entry{{Index: 0, Claimant: solana.PublicKey{9}, Weight: *uint256.NewInt(5)}})
	require.NoError(t, err)
	require.Equal(t, leaf, tree.Root())
	require.Empty(t, tree.Proof(0))

	assert.True(t, Verify(leaf, leaf, nil))
	assert.False(t, Verify(common.Hash{1}, leaf, nil))
}

// TestTree_AllProofsVerify builds trees of several sizes (including odd ones
// with promoted nodes) and checks that every proof folds to the root.
func TestTree_AllProofsVerify(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 33, 256} {
		t.Run(fmt.Sprintf("%d leaves", n), func(t *testing.T) {
			entries := randomEntries(r, n)
			tree, err := Build(entries)
			require.NoError(t, err)
			require.Equal(t, n, tree.Len())

			var total uint256.Int
			for pos, e := range entries {
				total.Add(&total, &e.Weight)

				got, proof, ok := tree.ProofFor(e.Index)
				require.True(t, ok)
				require.Equal(t, e, got)
				require.Equal(t, tree.Proof(pos), proof)
				require.LessOrEqual(t, len(proof), 16)

				leaf := Leaf(e.Index, e.Claimant, &e.Weight)
				require.Truef(t, Verify(tree.Root(), leaf, proof), "proof for leaf %d", pos)

				// The same proof must not authenticate a different weight.
				bumped := new(uint256.Int).AddUint64(&e.Weight, 1)
				require.False(t, Verify(tree.Root(), Leaf(e.Index, e.Claimant, bumped), proof))
			}
			require.Equal(t, total, tree.TotalWeight())
		})
	}
}

// TestTree_TamperedProof verifies that flipping any bit of a sibling breaks the proof.
func TestTree_TamperedProof(t *testing.T) {
	entries := randomEntries(rand.New(rand.NewSource(1)), 6)
	tree, err := Build(entries)
	require.NoError(t, err)

	e, proof, _ := tree.ProofFor(4)
	leaf := Leaf(e.Index, e.Claimant, &e.Weight)
	for i := range proof {
		bad := append([]common.Hash(nil), proof...)
		bad[i][31] ^= 0x01
		assert.Falsef(t, Verify(tree.Root(), leaf, bad), "tampered sibling %d", i)
	}
	assert.False(t, Verify(tree.Root(), leaf, proof[:len(proof)-1]), "truncated proof")
}

// TestBuild_Errors covers empty input, duplicate indices and weight overflow.
func TestBuild_Errors(t *testing.T) {
	_, err := Build(nil)
	require.ErrorIs(t, err, ErrEmptyTree)

	_, err = Build([]Entry{{Index: 1}, {Index: 1}})
	require.ErrorIs(t, err, ErrDuplicateIndex)

	max128 := uint256.Int{^uint64(0), ^uint64(0), 0, 0}
	_, err = Build([]Entry{{Index: 0, Weight: max128}, {Index: 1, Weight: *uint256.NewInt(1)}})
	require.ErrorIs(t, err, vaulterr.ErrArithmeticOverflow)

	_, _, ok := mustBuild(t, []Entry{{Index: 3}}).ProofFor(4)
	require.False(t, ok)
}

func mustBuild(t *testing.T, entries []Entry) *Tree {
	t.Helper()
	tree, err := Build(entries)
	require.NoError(t, err)
	return tree
}
