// Package authority derives the vault's delegated signing identity.
//
// The vault never holds a private key. Its token accounts are owned by a
// program-derived address computed from four seeds:
//
//	["vault", base_mint, admin, [nonce]]
//
// Every vault-authorized call (share mint, vault-to-user transfer, boost
// payout) presents exactly these seeds, and the token ledger re-derives the
// address to check that the caller really speaks for the vault.
package authority

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rony4d/interest-vault/vaulterr"
)

// Label is the fixed first seed of every vault authority.
const Label = "vault"

// Seeds is the four-part derivation tuple of a vault authority.
type Seeds struct {
	BaseMint solana.PublicKey
	Admin    solana.PublicKey
	Nonce    uint8
}

// Bytes returns the seeds in derivation order.
func (s Seeds) Bytes() [][]byte {
	return [][]byte{[]byte(Label), s.BaseMint[:], s.Admin[:], {s.Nonce}}
}

// Address re-derives the authority address for programID. It fails when the
// seeds land on the ed25519 curve, which a stored nonce from Find never does.
func (s Seeds) Address(programID solana.PublicKey) (solana.PublicKey, error) {
	addr, err := solana.CreateProgramAddress(s.Bytes(), programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive vault authority: %v: %w", err, vaulterr.ErrAddressMismatch)
	}
	return addr, nil
}

// Find searches for the canonical nonce of (baseMint, admin) under programID
// and returns the authority address together with its seeds.
func Find(programID, baseMint, admin solana.PublicKey) (solana.PublicKey, Seeds, error) {
	prefix := [][]byte{[]byte(Label), baseMint[:], admin[:]}
	addr, nonce, err := solana.FindProgramAddress(prefix, programID)
	if err != nil {
		return solana.PublicKey{}, Seeds{}, fmt.Errorf("find vault authority: %w", err)
	}
	return addr, Seeds{BaseMint: baseMint, Admin: admin, Nonce: nonce}, nil
}

// Verify checks that seeds derive claimed under programID.
func (s Seeds) Verify(programID, claimed solana.PublicKey) error {
	addr, err := s.Address(programID)
	if err != nil {
		return err
	}
	if !addr.Equals(claimed) {
		return fmt.Errorf("authority %s derives to %s: %w", claimed, addr, vaulterr.ErrAuthenticationFailure)
	}
	return nil
}
