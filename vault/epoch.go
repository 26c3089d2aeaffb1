package vault

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/rony4d/interest-vault/inter"
	"github.com/rony4d/interest-vault/vaulterr"
)

// RootAuthority decides who may post a distribution root. Claim verification
// never consults it.
type RootAuthority interface {
	AuthorizeRoot(signer solana.PublicKey, epoch uint64) error
}

// RootAuthorityFunc adapts a function to RootAuthority.
type RootAuthorityFunc func(signer solana.PublicKey, epoch uint64) error

func (f RootAuthorityFunc) AuthorizeRoot(signer solana.PublicKey, epoch uint64) error {
	return f(signer, epoch)
}

// OperatorAuthority accepts roots signed by a single operator.
type OperatorAuthority struct {
	Operator solana.PublicKey
}

func (a OperatorAuthority) AuthorizeRoot(signer solana.PublicKey, epoch uint64) error {
	if !signer.Equals(a.Operator) {
		return fmt.Errorf("post root for epoch %d by %s: %w", epoch, signer, vaulterr.ErrAuthenticationFailure)
	}
	return nil
}

// EpochManager maintains the live boost slot.
type EpochManager struct {
	Epoch     *inter.BoostEpoch
	Authority RootAuthority
}

// PostRoot overwrites the epoch, root and total weight once the authority
// accepts signer. The root is trusted; BoostTotal is left as it is.
func (m *EpochManager) PostRoot(signer solana.PublicKey, epoch uint64, totalWeight *uint256.Int, root common.Hash) error {
	if m.Authority == nil {
		return fmt.Errorf("post root: no root authority: %w", vaulterr.ErrAuthenticationFailure)
	}
	if err := m.Authority.AuthorizeRoot(signer, epoch); err != nil {
		return err
	}
	if !fitsU128(totalWeight) {
		return fmt.Errorf("post root: total weight: %w", vaulterr.ErrArithmeticOverflow)
	}
	m.Epoch.Epoch = epoch
	m.Epoch.Root = root
	m.Epoch.TotalWeight = *totalWeight
	return nil
}
