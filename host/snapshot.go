package host

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gagliardetto/solana-go"
)

// MintEntry is a mint in a snapshot.
type MintEntry struct {
	Address solana.PublicKey
	Mint    Mint
}

// TokenEntry is a token account in a snapshot.
type TokenEntry struct {
	Address solana.PublicKey
	Account TokenAccount
}

// ProgramEntry is a program-owned account in a snapshot.
type ProgramEntry struct {
	Address solana.PublicKey
	Data    []byte
}

// Snapshot is the full store content in address order.
type Snapshot struct {
	Mints    []MintEntry
	Accounts []TokenEntry
	Programs []ProgramEntry
}

// Snapshot reads every account in the store.
func (s *Store) Snapshot() (*Snapshot, error) {
	snap := new(Snapshot)
	err := s.View(func(tx *Tx) error {
		if err := forEach(tx.mints, func(addr solana.PublicKey, raw []byte) error {
			var m Mint
			if err := rlp.DecodeBytes(raw, &m); err != nil {
				return err
			}
			snap.Mints = append(snap.Mints, MintEntry{Address: addr, Mint: m})
			return nil
		}); err != nil {
			return err
		}
		if err := forEach(tx.tokens, func(addr solana.PublicKey, raw []byte) error {
			var acc TokenAccount
			if err := rlp.DecodeBytes(raw, &acc); err != nil {
				return err
			}
			snap.Accounts = append(snap.Accounts, TokenEntry{Address: addr, Account: acc})
			return nil
		}); err != nil {
			return err
		}
		return forEach(tx.programs, func(addr solana.PublicKey, raw []byte) error {
			snap.Programs = append(snap.Programs, ProgramEntry{Address: addr, Data: common.CopyBytes(raw)})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Hash is the keccak256 of the snapshot's RLP encoding.
func (s *Snapshot) Hash() common.Hash {
	enc, err := rlp.EncodeToBytes(s)
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(enc)
}

// Balance returns the amount held by a token account, zero if absent.
func (s *Snapshot) Balance(addr solana.PublicKey) uint64 {
	for _, e := range s.Accounts {
		if e.Address == addr {
			return e.Account.Amount
		}
	}
	return 0
}

// Supply returns the supply of a mint, zero if absent.
func (s *Snapshot) Supply(mint solana.PublicKey) uint64 {
	for _, e := range s.Mints {
		if e.Address == mint {
			return e.Mint.Supply
		}
	}
	return 0
}
