package host

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rony4d/interest-vault/utils/fast"
	"github.com/rony4d/interest-vault/vault"
	"github.com/rony4d/interest-vault/vaulterr"
)

// Mint is a fungible asset definition.
type Mint struct {
	Authority solana.PublicKey
	Decimals  uint8
	Supply    uint64
}

// TokenAccount holds a balance of one mint for one owner.
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// Checked token instruction tags, as carried in the first data byte.
const (
	TagTransferChecked uint8 = 12
	TagMintToChecked   uint8 = 14
	TagBurnChecked     uint8 = 15
)

// TokenCall records one executed token movement.
type TokenCall struct {
	Tag      uint8
	Src      solana.PublicKey
	Dst      solana.PublicKey
	Amount   uint64
	Decimals uint8
	// VaultSigned is set when the call carried vault authority seeds.
	VaultSigned bool
}

// Data returns the checked instruction data: tag, amount (LE u64), decimals.
func (c TokenCall) Data() []byte {
	w := fast.NewWriter(make([]byte, 0, 10))
	w.WriteByte(c.Tag)
	w.U64(c.Amount)
	w.WriteByte(c.Decimals)
	return w.Bytes()
}

// Ledger executes token movements inside one Tx. It is the vault's
// TokenProgram: every call checks decimals, mint membership and the owner's
// authorization, and vault-signed calls must re-derive the vault authority
// from their seeds under ProgramID.
type Ledger struct {
	ProgramID solana.PublicKey

	tx    *Tx
	calls []TokenCall
}

var _ vault.TokenProgram = (*Ledger)(nil)

// NewLedger returns a ledger over tx.
func NewLedger(tx *Tx, programID solana.PublicKey) *Ledger {
	return &Ledger{ProgramID: programID, tx: tx}
}

// Calls returns the movements executed so far.
func (l *Ledger) Calls() []TokenCall {
	return append([]TokenCall(nil), l.calls...)
}

// CreateMint registers a new mint with zero supply.
func (l *Ledger) CreateMint(addr, authority solana.PublicKey, decimals uint8) error {
	if _, err := l.tx.Mint(addr); err == nil {
		return fmt.Errorf("mint %s exists: %w", addr, vaulterr.ErrMalformedInput)
	}
	return l.tx.PutMint(addr, Mint{Authority: authority, Decimals: decimals})
}

// OpenAccount registers an empty token account.
func (l *Ledger) OpenAccount(addr, mint, owner solana.PublicKey) error {
	if _, err := l.tx.Mint(mint); err != nil {
		return err
	}
	if _, err := l.tx.TokenAccount(addr); err == nil {
		return fmt.Errorf("token account %s exists: %w", addr, vaulterr.ErrMalformedInput)
	}
	return l.tx.PutTokenAccount(addr, TokenAccount{Mint: mint, Owner: owner})
}

func (l *Ledger) authorize(owner solana.PublicKey, auth vault.Authorization) error {
	if !auth.Signer.Equals(owner) {
		return fmt.Errorf("owner %s, signer %s: %w", owner, auth.Signer, vaulterr.ErrAuthenticationFailure)
	}
	if auth.Vault != nil {
		return auth.Vault.Verify(l.ProgramID, owner)
	}
	return nil
}

func checkDecimals(m Mint, mint solana.PublicKey, decimals uint8) error {
	if m.Decimals != decimals {
		return fmt.Errorf("mint %s has %d decimals, call says %d: %w", mint, m.Decimals, decimals, vaulterr.ErrMalformedInput)
	}
	return nil
}

func (l *Ledger) record(tag uint8, src, dst solana.PublicKey, amount uint64, decimals uint8, auth vault.Authorization) {
	l.calls = append(l.calls, TokenCall{
		Tag: tag, Src: src, Dst: dst, Amount: amount, Decimals: decimals,
		VaultSigned: auth.Vault != nil,
	})
}

// Transfer moves amount from src to dst. owner must own src.
func (l *Ledger) Transfer(src, dst, owner solana.PublicKey, amount uint64, decimals uint8, auth vault.Authorization) error {
	from, err := l.tx.TokenAccount(src)
	if err != nil {
		return err
	}
	to, err := l.tx.TokenAccount(dst)
	if err != nil {
		return err
	}
	if !from.Mint.Equals(to.Mint) {
		return fmt.Errorf("transfer %s -> %s across mints: %w", src, dst, vaulterr.ErrAddressMismatch)
	}
	if !from.Owner.Equals(owner) {
		return fmt.Errorf("account %s not owned by %s: %w", src, owner, vaulterr.ErrAuthenticationFailure)
	}
	if err := l.authorize(owner, auth); err != nil {
		return err
	}
	m, err := l.tx.Mint(from.Mint)
	if err != nil {
		return err
	}
	if err := checkDecimals(m, from.Mint, decimals); err != nil {
		return err
	}
	if from.Amount < amount {
		return fmt.Errorf("account %s holds %d, transfer %d: %w", src, from.Amount, amount, vaulterr.ErrArithmeticUnderflow)
	}

	if src.Equals(dst) {
		l.record(TagTransferChecked, src, dst, amount, decimals, auth)
		return nil
	}
	if to.Amount+amount < to.Amount {
		return fmt.Errorf("account %s balance: %w", dst, vaulterr.ErrArithmeticOverflow)
	}
	from.Amount -= amount
	to.Amount += amount
	if err := l.tx.PutTokenAccount(src, from); err != nil {
		return err
	}
	if err := l.tx.PutTokenAccount(dst, to); err != nil {
		return err
	}
	l.record(TagTransferChecked, src, dst, amount, decimals, auth)
	return nil
}

// MintTo issues amount new units of mint into dst.
func (l *Ledger) MintTo(mint, dst, mintAuthority solana.PublicKey, amount uint64, decimals uint8, auth vault.Authorization) error {
	m, err := l.tx.Mint(mint)
	if err != nil {
		return err
	}
	if !m.Authority.Equals(mintAuthority) {
		return fmt.Errorf("mint %s authority is %s, not %s: %w", mint, m.Authority, mintAuthority, vaulterr.ErrAuthenticationFailure)
	}
	if err := l.authorize(mintAuthority, auth); err != nil {
		return err
	}
	if err := checkDecimals(m, mint, decimals); err != nil {
		return err
	}
	to, err := l.tx.TokenAccount(dst)
	if err != nil {
		return err
	}
	if !to.Mint.Equals(mint) {
		return fmt.Errorf("account %s is not of mint %s: %w", dst, mint, vaulterr.ErrAddressMismatch)
	}
	if m.Supply+amount < m.Supply || to.Amount+amount < to.Amount {
		return fmt.Errorf("mint %s supply: %w", mint, vaulterr.ErrArithmeticOverflow)
	}
	m.Supply += amount
	to.Amount += amount
	if err := l.tx.PutMint(mint, m); err != nil {
		return err
	}
	if err := l.tx.PutTokenAccount(dst, to); err != nil {
		return err
	}
	l.record(TagMintToChecked, mint, dst, amount, decimals, auth)
	return nil
}

// Burn destroys amount units held in src.
func (l *Ledger) Burn(src, mint, owner solana.PublicKey, amount uint64, decimals uint8, auth vault.Authorization) error {
	from, err := l.tx.TokenAccount(src)
	if err != nil {
		return err
	}
	if !from.Mint.Equals(mint) {
		return fmt.Errorf("account %s is not of mint %s: %w", src, mint, vaulterr.ErrAddressMismatch)
	}
	if !from.Owner.Equals(owner) {
		return fmt.Errorf("account %s not owned by %s: %w", src, owner, vaulterr.ErrAuthenticationFailure)
	}
	if err := l.authorize(owner, auth); err != nil {
		return err
	}
	m, err := l.tx.Mint(mint)
	if err != nil {
		return err
	}
	if err := checkDecimals(m, mint, decimals); err != nil {
		return err
	}
	if from.Amount < amount {
		return fmt.Errorf("account %s holds %d, burn %d: %w", src, from.Amount, amount, vaulterr.ErrInsufficientShares)
	}
	from.Amount -= amount
	m.Supply -= amount
	if err := l.tx.PutTokenAccount(src, from); err != nil {
		return err
	}
	if err := l.tx.PutMint(mint, m); err != nil {
		return err
	}
	l.record(TagBurnChecked, src, mint, amount, decimals, auth)
	return nil
}
