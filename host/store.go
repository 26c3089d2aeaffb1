// Package host is the execution environment the vault core assumes: a
// transactional account store, a token ledger and an instruction processor
// that serializes writers per account.
package host

import (
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/kvdb"
	"github.com/Fantom-foundation/lachesis-base/kvdb/flushable"
	"github.com/Fantom-foundation/lachesis-base/kvdb/memorydb"
	"github.com/Fantom-foundation/lachesis-base/kvdb/table"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gagliardetto/solana-go"

	"github.com/rony4d/interest-vault/vaulterr"
)

// ErrAccountNotFound is returned when an instruction names an account the
// store does not hold.
var ErrAccountNotFound = fmt.Errorf("account not found: %w", vaulterr.ErrAddressMismatch)

// Table prefixes.
var (
	programPrefix = []byte("p")
	tokenPrefix   = []byte("t")
	mintPrefix    = []byte("m")
)

// Store keeps every account the processor can touch. Records are keyed by
// address inside a prefixed table per account kind.
type Store struct {
	db kvdb.Store
}

// NewStore wraps db.
func NewStore(db kvdb.Store) *Store {
	return &Store{db: db}
}

// NewMemStore returns a store over an in-memory database.
func NewMemStore() *Store {
	return NewStore(memorydb.New())
}

// Update runs fn against a write overlay. The overlay is flushed into the
// store when fn succeeds and dropped when it fails, so either every write of
// fn lands or none does.
func (s *Store) Update(fn func(tx *Tx) error) error {
	overlay := flushable.Wrap(s.db)
	if err := fn(newTx(overlay)); err != nil {
		overlay.DropNotFlushed()
		return err
	}
	return overlay.Flush()
}

// View runs fn against a throwaway overlay; writes made by fn are discarded.
func (s *Store) View(fn func(tx *Tx) error) error {
	overlay := flushable.Wrap(s.db)
	defer overlay.DropNotFlushed()
	return fn(newTx(overlay))
}

// Tx is one unit of work over the store.
type Tx struct {
	programs kvdb.Store
	tokens   kvdb.Store
	mints    kvdb.Store
}

func newTx(db kvdb.Store) *Tx {
	return &Tx{
		programs: table.New(db, programPrefix),
		tokens:   table.New(db, tokenPrefix),
		mints:    table.New(db, mintPrefix),
	}
}

func get(t kvdb.Store, key solana.PublicKey) ([]byte, bool, error) {
	ok, err := t.Has(key[:])
	if err != nil || !ok {
		return nil, false, err
	}
	val, err := t.Get(key[:])
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// ProgramData returns the raw data of a program-owned account.
func (tx *Tx) ProgramData(addr solana.PublicKey) ([]byte, bool, error) {
	return get(tx.programs, addr)
}

// SetProgramData replaces the data of a program-owned account.
func (tx *Tx) SetProgramData(addr solana.PublicKey, data []byte) error {
	return tx.programs.Put(addr[:], data)
}

// TokenAccount loads a token account.
func (tx *Tx) TokenAccount(addr solana.PublicKey) (TokenAccount, error) {
	var acc TokenAccount
	raw, ok, err := get(tx.tokens, addr)
	if err != nil {
		return acc, err
	}
	if !ok {
		return acc, fmt.Errorf("token account %s: %w", addr, ErrAccountNotFound)
	}
	if err := rlp.DecodeBytes(raw, &acc); err != nil {
		return acc, fmt.Errorf("token account %s: %v: %w", addr, err, vaulterr.ErrMalformedInput)
	}
	return acc, nil
}

// PutTokenAccount stores a token account.
func (tx *Tx) PutTokenAccount(addr solana.PublicKey, acc TokenAccount) error {
	raw, err := rlp.EncodeToBytes(&acc)
	if err != nil {
		return err
	}
	return tx.tokens.Put(addr[:], raw)
}

// Mint loads a mint.
func (tx *Tx) Mint(addr solana.PublicKey) (Mint, error) {
	var m Mint
	raw, ok, err := get(tx.mints, addr)
	if err != nil {
		return m, err
	}
	if !ok {
		return m, fmt.Errorf("mint %s: %w", addr, ErrAccountNotFound)
	}
	if err := rlp.DecodeBytes(raw, &m); err != nil {
		return m, fmt.Errorf("mint %s: %v: %w", addr, err, vaulterr.ErrMalformedInput)
	}
	return m, nil
}

// PutMint stores a mint.
func (tx *Tx) PutMint(addr solana.PublicKey, m Mint) error {
	raw, err := rlp.EncodeToBytes(&m)
	if err != nil {
		return err
	}
	return tx.mints.Put(addr[:], raw)
}

// forEach walks a table in key order.
func forEach(t kvdb.Store, fn func(addr solana.PublicKey, val []byte) error) error {
	it := t.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		var addr solana.PublicKey
		copy(addr[:], it.Key())
		if err := fn(addr, it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}
