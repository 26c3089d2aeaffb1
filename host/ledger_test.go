package host

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rony4d/interest-vault/vault"
	"github.com/rony4d/interest-vault/vault/authority"
	"github.com/rony4d/interest-vault/vaulterr"
)

func TestLedger_VaultSignature(t *testing.T) {
	program := LabelKey("program")
	mint, admin := LabelKey("mint"), LabelKey("admin")
	pda, seeds, err := authority.Find(program, mint, admin)
	require.NoError(t, err)

	store := NewMemStore()
	require.NoError(t, store.Update(func(tx *Tx) error {
		l := NewLedger(tx, program)
		require.NoError(t, l.CreateMint(mint, admin, 6))
		require.NoError(t, l.OpenAccount(LabelKey("custody"), mint, pda))
		require.NoError(t, l.OpenAccount(LabelKey("out"), mint, admin))
		return l.MintTo(mint, LabelKey("custody"), admin, 100, 6, vault.Signed(admin))
	}))

	for _, tc := range []struct {
		name string
		auth vault.Authorization
		want error
	}{
		{"plain signer cannot speak for the vault", vault.Signed(admin), vaulterr.ErrAuthenticationFailure},
		{"wrong nonce", vault.VaultSigned(pda, authority.Seeds{BaseMint: mint, Admin: admin, Nonce: seeds.Nonce - 1}), nil},
		{"swapped seeds", vault.VaultSigned(pda, authority.Seeds{BaseMint: admin, Admin: mint, Nonce: seeds.Nonce}), nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Update(func(tx *Tx) error {
				return NewLedger(tx, program).Transfer(LabelKey("custody"), LabelKey("out"), pda, 10, 6, tc.auth)
			})
			require.Error(t, err)
			if tc.want != nil {
				require.ErrorIs(t, err, tc.want)
			}
		})
	}

	var calls []TokenCall
	require.NoError(t, store.Update(func(tx *Tx) error {
		l := NewLedger(tx, program)
		err := l.Transfer(LabelKey("custody"), LabelKey("out"), pda, 10, 6, vault.VaultSigned(pda, seeds))
		calls = l.Calls()
		return err
	}))
	require.Len(t, calls, 1)
	require.Equal(t, []byte{12, 10, 0, 0, 0, 0, 0, 0, 0, 6}, calls[0].Data())

	snap, err := store.Snapshot()
	require.NoError(t, err)
	require.Equal(t, uint64(90), snap.Balance(LabelKey("custody")))
	require.Equal(t, uint64(10), snap.Balance(LabelKey("out")))
	require.Equal(t, uint64(100), snap.Supply(mint))
}

func TestLedger_Checks(t *testing.T) {
	owner := LabelKey("owner")
	usdc, other := LabelKey("usdc"), LabelKey("other")
	store := NewMemStore()
	require.NoError(t, store.Update(func(tx *Tx) error {
		l := NewLedger(tx, LabelKey("program"))
		require.NoError(t, l.CreateMint(usdc, owner, 6))
		require.NoError(t, l.CreateMint(other, owner, 9))
		require.NoError(t, l.OpenAccount(LabelKey("a"), usdc, owner))
		require.NoError(t, l.OpenAccount(LabelKey("b"), other, owner))
		require.ErrorIs(t, l.OpenAccount(LabelKey("a"), usdc, owner), vaulterr.ErrMalformedInput)
		require.ErrorIs(t, l.CreateMint(usdc, owner, 6), vaulterr.ErrMalformedInput)
		return l.MintTo(usdc, LabelKey("a"), owner, 50, 6, vault.Signed(owner))
	}))

	update := func(fn func(l *Ledger) error) error {
		return store.Update(func(tx *Tx) error { return fn(NewLedger(tx, LabelKey("program"))) })
	}
	signed := vault.Signed(owner)

	require.ErrorIs(t, update(func(l *Ledger) error {
		return l.Transfer(LabelKey("a"), LabelKey("b"), owner, 1, 6, signed)
	}), vaulterr.ErrAddressMismatch)
	require.ErrorIs(t, update(func(l *Ledger) error {
		return l.Transfer(LabelKey("a"), LabelKey("a"), owner, 1, 9, signed)
	}), vaulterr.ErrMalformedInput)
	require.ErrorIs(t, update(func(l *Ledger) error {
		return l.MintTo(usdc, LabelKey("b"), owner, 1, 6, signed)
	}), vaulterr.ErrAddressMismatch)
	require.ErrorIs(t, update(func(l *Ledger) error {
		return l.MintTo(usdc, LabelKey("a"), LabelKey("stranger"), 1, 6, vault.Signed(LabelKey("stranger")))
	}), vaulterr.ErrAuthenticationFailure)
	require.ErrorIs(t, update(func(l *Ledger) error {
		return l.Burn(LabelKey("a"), usdc, owner, 51, 6, signed)
	}), vaulterr.ErrInsufficientShares)
	require.ErrorIs(t, update(func(l *Ledger) error {
		return l.Transfer(LabelKey("a"), LabelKey("missing"), owner, 1, 6, signed)
	}), ErrAccountNotFound)

	require.NoError(t, update(func(l *Ledger) error {
		return l.Burn(LabelKey("a"), usdc, owner, 20, 6, signed)
	}))
	snap, err := store.Snapshot()
	require.NoError(t, err)
	require.Equal(t, uint64(30), snap.Supply(usdc))
	require.Equal(t, uint64(30), snap.Balance(LabelKey("a")))
}

func TestStore_UpdateRollsBack(t *testing.T) {
	store := NewMemStore()
	addr := LabelKey("record")
	require.NoError(t, store.Update(func(tx *Tx) error {
		return tx.SetProgramData(addr, []byte{1})
	}))

	err := store.Update(func(tx *Tx) error {
		require.NoError(t, tx.SetProgramData(addr, []byte{2}))
		require.NoError(t, tx.SetProgramData(LabelKey("new"), []byte{3}))
		return vaulterr.ErrProofInvalid
	})
	require.ErrorIs(t, err, vaulterr.ErrProofInvalid)

	require.NoError(t, store.View(func(tx *Tx) error {
		got, ok, err := tx.ProgramData(addr)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, []byte{1}, got)
		_, ok, err = tx.ProgramData(LabelKey("new"))
		require.NoError(t, err)
		require.False(t, ok)
		return tx.SetProgramData(addr, []byte{9})
	}))

	snap, err := store.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Programs, 1)
	require.Equal(t, []byte{1}, snap.Programs[0].Data, "view writes are discarded")
}
