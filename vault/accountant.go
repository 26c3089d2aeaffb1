// Package vault is the accounting core: share pricing, donation splitting,
// boost epochs and merkle claims.
//
// The core is synchronous and holds no locks. It works on decoded records and
// reaches the outside world only through the small interfaces in token.go.
// Each operation computes into locals and writes the record only once it
// cannot fail any more; the host still wraps every operation in a
// transaction so that external token movements and record updates commit
// together.
package vault

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/rony4d/interest-vault/inter"
	"github.com/rony4d/interest-vault/vaulterr"
)

// ShareAccountant owns total_shares, pps and buffered_base of one vault record.
//
// Rounding always favors the vault: deposits floor the minted shares,
// withdrawals floor the paid amount, yield floors the pps increment.
type ShareAccountant struct {
	rec *inter.VaultRecord
}

// NewShareAccountant binds an accountant to rec. Mutations write through.
func NewShareAccountant(rec *inter.VaultRecord) *ShareAccountant {
	return &ShareAccountant{rec: rec}
}

// Initialize resets the price to 1.0 and clears shares and buffered yield.
func (a *ShareAccountant) Initialize() {
	a.rec.TotalShares.Clear()
	a.rec.PPS.SetUint64(inter.RAY)
	a.rec.BufferedBase = 0
}

// settled returns the pps that results from folding buffered_base into the
// price, and the buffered amount left afterwards. It does not mutate.
func (a *ShareAccountant) settled() (uint256.Int, uint64, error) {
	pps := a.rec.PPS
	if a.rec.BufferedBase == 0 || a.rec.TotalShares.IsZero() {
		return pps, a.rec.BufferedBase, nil
	}
	delta, err := mulDiv(uint256.NewInt(a.rec.BufferedBase), rayInt, &a.rec.TotalShares)
	if err != nil {
		return pps, 0, fmt.Errorf("settle buffer: %w", err)
	}
	sum, err := addU128(&pps, delta)
	if err != nil {
		return pps, 0, fmt.Errorf("settle buffer: %w", err)
	}
	return *sum, 0, nil
}

// SettleBuffer folds pre-launch donations into pps once shares exist.
// It is a no-op when nothing is buffered or no shares are outstanding.
func (a *ShareAccountant) SettleBuffer() error {
	pps, buffered, err := a.settled()
	if err != nil {
		return err
	}
	a.rec.PPS = pps
	a.rec.BufferedBase = buffered
	return nil
}

// Deposit settles the buffer, then mints floor(amount*RAY/pps) shares.
// The returned count is what the host must mint on the share asset.
func (a *ShareAccountant) Deposit(amount uint64) (uint64, error) {
	pps, buffered, err := a.settled()
	if err != nil {
		return 0, err
	}
	if pps.IsZero() {
		return 0, fmt.Errorf("deposit: vault not initialized: %w", vaulterr.ErrMalformedInput)
	}

	shares, err := mulDiv(uint256.NewInt(amount), rayInt, &pps)
	if err != nil {
		return 0, fmt.Errorf("deposit: %w", err)
	}
	minted, err := toU64(shares, "deposit shares")
	if err != nil {
		return 0, err
	}
	total, err := addU128(&a.rec.TotalShares, shares)
	if err != nil {
		return 0, fmt.Errorf("deposit: total shares: %w", err)
	}

	a.rec.PPS = pps
	a.rec.BufferedBase = buffered
	a.rec.TotalShares = *total
	return minted, nil
}

// Withdraw redeems shares for floor(shares*pps/RAY) base units.
func (a *ShareAccountant) Withdraw(shares uint64) (uint64, error) {
	burn := uint256.NewInt(shares)
	if burn.Gt(&a.rec.TotalShares) {
		return 0, fmt.Errorf("withdraw %d of %s: %w", shares, a.rec.TotalShares.ToBig(), vaulterr.ErrInsufficientShares)
	}
	amount, err := a.value(burn)
	if err != nil {
		return 0, fmt.Errorf("withdraw: %w", err)
	}
	a.rec.TotalShares.Sub(&a.rec.TotalShares, burn)
	return amount, nil
}

// Value returns what shares would redeem for at the current price.
func (a *ShareAccountant) Value(shares uint64) (uint64, error) {
	return a.value(uint256.NewInt(shares))
}

func (a *ShareAccountant) value(shares *uint256.Int) (uint64, error) {
	prod, overflow := new(uint256.Int).MulOverflow(shares, &a.rec.PPS)
	if overflow || !fitsU128(prod) {
		return 0, vaulterr.ErrArithmeticOverflow
	}
	return toU64(new(uint256.Int).Div(prod, rayInt), "withdraw amount")
}

// ApplyYield raises pps by floor(amount*RAY/total_shares). With no shares
// outstanding the amount is buffered instead, saturating at the u64 maximum
// rather than failing.
func (a *ShareAccountant) ApplyYield(amount uint64) error {
	if a.rec.TotalShares.IsZero() {
		a.rec.BufferedBase = saturatingAdd64(a.rec.BufferedBase, amount)
		return nil
	}
	delta, err := mulDiv(uint256.NewInt(amount), rayInt, &a.rec.TotalShares)
	if err != nil {
		return fmt.Errorf("apply yield: %w", err)
	}
	pps, err := addU128(&a.rec.PPS, delta)
	if err != nil {
		return fmt.Errorf("apply yield: %w", err)
	}
	a.rec.PPS = *pps
	return nil
}

// TotalShares returns the outstanding share count.
func (a *ShareAccountant) TotalShares() uint256.Int {
	return a.rec.TotalShares
}

// PPS returns the current price-per-share scaled by RAY.
func (a *ShareAccountant) PPS() uint256.Int {
	return a.rec.PPS
}
