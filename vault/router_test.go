package vault

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/interest-vault/inter"
	"github.com/rony4d/interest-vault/vaulterr"
)

type custody struct {
	forwarded uint64
	calls     int
	err       error
}

func (c *custody) ForwardBoost(amount uint64) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	c.forwarded += amount
	return nil
}

func TestSplitDonation(t *testing.T) {
	for _, tc := range []struct {
		name   string
		amount uint64
		bps    uint16
		want   Split
	}{
		{"no boost", 1000, 0, Split{Base: 1000}},
		{"all boost", 1000, 10_000, Split{Boost: 1000}},
		{"quarter", 1000, 2500, Split{Base: 750, Boost: 250}},
		{"floors boost", 999, 3333, Split{Base: 667, Boost: 332}},
		{"max amount", ^uint64(0), 10_000, Split{Boost: ^uint64(0)}},
		{"zero", 0, 5000, Split{}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SplitDonation(tc.amount, tc.bps)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.amount, got.Base+got.Boost)
		})
	}

	_, err := SplitDonation(1, 10_001)
	require.ErrorIs(t, err, vaulterr.ErrMalformedInput)
}

func TestDonate_Extremes(t *testing.T) {
	t.Run("bps 0 is all base yield", func(t *testing.T) {
		require := require.New(t)
		a, rec := newAccountant()
		_, err := a.Deposit(1000)
		require.NoError(err)
		c := &custody{}
		ep := &inter.BoostEpoch{}
		r := &DonationRouter{Shares: a, Epoch: ep, Custody: c}

		split, err := r.Donate(500, 1, 0)
		require.NoError(err)
		require.Equal(Split{Base: 500}, split)
		require.Equal(*uint256.NewInt(inter.RAY*3/2), rec.PPS)
		require.Zero(c.calls, "nothing forwarded")
		require.Zero(ep.BoostTotal)
	})
	t.Run("bps 10000 is all boost", func(t *testing.T) {
		require := require.New(t)
		a, rec := newAccountant()
		_, err := a.Deposit(1000)
		require.NoError(err)
		c := &custody{}
		ep := &inter.BoostEpoch{Epoch: 4}
		r := &DonationRouter{Shares: a, Epoch: ep, Custody: c}

		split, err := r.Donate(500, 4, 10_000)
		require.NoError(err)
		require.Equal(Split{Boost: 500}, split)
		require.Equal(*uint256.NewInt(inter.RAY), rec.PPS, "base contribution is zero")
		require.Equal(uint64(500), c.forwarded)
		require.Equal(uint64(500), ep.BoostTotal)
	})
}

func TestDonate_EpochBinding(t *testing.T) {
	require := require.New(t)
	a, rec := newAccountant()
	ep := &inter.BoostEpoch{}
	r := &DonationRouter{Shares: a, Epoch: ep, Custody: &custody{}}

	_, err := r.Donate(100, 7, 5000)
	require.NoError(err)
	require.Equal(uint64(7), ep.Epoch, "unbound slot is bound to the requested epoch")
	require.Equal(uint64(50), ep.BoostTotal)
	require.Equal(uint64(50), rec.BufferedBase)

	_, err = r.Donate(100, 8, 5000)
	require.ErrorIs(err, vaulterr.ErrEpochMismatch)
	require.Equal(uint64(50), ep.BoostTotal)
	require.Equal(uint64(50), rec.BufferedBase, "rejected donation leaves base untouched")

	ep.BoostTotal = ^uint64(0) - 10
	_, err = r.Donate(100, 7, 5000)
	require.NoError(err)
	require.Equal(^uint64(0), ep.BoostTotal, "boost total saturates")
}

func TestDonate_NoEpochRecord(t *testing.T) {
	a, _ := newAccountant()
	c := &custody{}
	r := &DonationRouter{Shares: a, Custody: c}

	split, err := r.Donate(1000, 99, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(100), split.Boost)
	require.Equal(t, uint64(100), c.forwarded)
}

func TestDonate_CustodyFailureRestoresPrice(t *testing.T) {
	require := require.New(t)
	a, rec := newAccountant()
	_, err := a.Deposit(1000)
	require.NoError(err)

	boom := errors.New("custody offline")
	ep := &inter.BoostEpoch{}
	r := &DonationRouter{Shares: a, Epoch: ep, Custody: &custody{err: boom}}

	_, err = r.Donate(1000, 1, 5000)
	require.ErrorIs(err, boom)
	require.Equal(*uint256.NewInt(inter.RAY), rec.PPS)
	require.False(ep.Bound())
	require.Zero(ep.BoostTotal)

	r.Custody = nil
	_, err = r.Donate(1000, 1, 5000)
	require.ErrorIs(err, vaulterr.ErrMalformedInput)
}

func TestPostRoot(t *testing.T) {
	require := require.New(t)
	operator := solana.PublicKey{1}
	ep := &inter.BoostEpoch{Epoch: 3, BoostTotal: 77}
	m := &EpochManager{Epoch: ep, Authority: OperatorAuthority{Operator: operator}}

	root := common.HexToHash("0xabcdef")
	err := m.PostRoot(solana.PublicKey{2}, 4, uint256.NewInt(10), root)
	require.ErrorIs(err, vaulterr.ErrAuthenticationFailure)
	require.Equal(uint64(3), ep.Epoch)

	require.NoError(m.PostRoot(operator, 4, uint256.NewInt(10), root))
	require.Equal(inter.BoostEpoch{Epoch: 4, Root: root, TotalWeight: *uint256.NewInt(10), BoostTotal: 77}, *ep)

	// Overwrite is unconditional, even to an older epoch.
	require.NoError(m.PostRoot(operator, 2, uint256.NewInt(1), common.Hash{}))
	require.Equal(uint64(2), ep.Epoch)
	require.Equal(uint64(77), ep.BoostTotal)

	wide := uint256.NewInt(1)
	wide.Lsh(wide, 128)
	require.ErrorIs(m.PostRoot(operator, 5, wide, root), vaulterr.ErrArithmeticOverflow)
}

func TestRootAuthorityFunc(t *testing.T) {
	var seen uint64
	m := &EpochManager{
		Epoch: &inter.BoostEpoch{},
		Authority: RootAuthorityFunc(func(_ solana.PublicKey, epoch uint64) error {
			seen = epoch
			if epoch%2 == 1 {
				return vaulterr.ErrAuthenticationFailure
			}
			return nil
		}),
	}
	require.NoError(t, m.PostRoot(solana.PublicKey{}, 6, uint256.NewInt(1), common.Hash{}))
	require.Equal(t, uint64(6), seen)
	require.Error(t, m.PostRoot(solana.PublicKey{}, 7, uint256.NewInt(1), common.Hash{}))

	require.ErrorIs(t, (&EpochManager{Epoch: &inter.BoostEpoch{}}).PostRoot(solana.PublicKey{}, 1, uint256.NewInt(1), common.Hash{}), vaulterr.ErrAuthenticationFailure)
}
