package vault

import (
	"github.com/gagliardetto/solana-go"

	"github.com/rony4d/interest-vault/vault/authority"
)

// Authorization is the authority context attached to a token call. A plain
// signer call sets Signer; a vault-signed call also carries the seeds the
// ledger must re-derive to accept the vault authority as owner.
type Authorization struct {
	Signer solana.PublicKey
	Vault  *authority.Seeds
}

// Signed returns an authorization for an ordinary signing account.
func Signed(signer solana.PublicKey) Authorization {
	return Authorization{Signer: signer}
}

// VaultSigned returns an authorization that speaks for the vault authority.
func VaultSigned(vaultAuthority solana.PublicKey, seeds authority.Seeds) Authorization {
	return Authorization{Signer: vaultAuthority, Vault: &seeds}
}

// TokenProgram moves fungible tokens between accounts. Every call states the
// decimals it expects the mint to have.
type TokenProgram interface {
	Transfer(src, dst, owner solana.PublicKey, amount uint64, decimals uint8, auth Authorization) error
	MintTo(mint, dst, mintAuthority solana.PublicKey, amount uint64, decimals uint8, auth Authorization) error
	Burn(src, mint, owner solana.PublicKey, amount uint64, decimals uint8, auth Authorization) error
}

// BoostCustody receives the boost slice of a donation.
type BoostCustody interface {
	ForwardBoost(amount uint64) error
}

// Payer pays a verified claim out of boost custody.
type Payer interface {
	PayBoost(claimant solana.PublicKey, amount uint64) error
}

// BoostCustodyFunc adapts a function to BoostCustody.
type BoostCustodyFunc func(amount uint64) error

func (f BoostCustodyFunc) ForwardBoost(amount uint64) error { return f(amount) }

// PayerFunc adapts a function to Payer.
type PayerFunc func(claimant solana.PublicKey, amount uint64) error

func (f PayerFunc) PayBoost(claimant solana.PublicKey, amount uint64) error {
	return f(claimant, amount)
}
