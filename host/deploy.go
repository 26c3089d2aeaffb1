package host

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/rony4d/interest-vault/inter"
	"github.com/rony4d/interest-vault/vault"
	"github.com/rony4d/interest-vault/vault/authority"
)

// LabelKey derives a stable address from a name. It names actors and
// accounts in simulations and tests; it is not a key pair.
func LabelKey(label string) solana.PublicKey {
	return solana.PublicKeyFromBytes(crypto.Keccak256([]byte(label)))
}

// VaultAccounts names every account of one deployed vault.
type VaultAccounts struct {
	State        solana.PublicKey
	Authority    solana.PublicKey
	Admin        solana.PublicKey
	Operator     solana.PublicKey
	Faucet       solana.PublicKey
	BaseMint     solana.PublicKey
	ShareMint    solana.PublicKey
	VaultBase    solana.PublicKey
	BoostBase    solana.PublicKey
	Distributor  solana.PublicKey
	TokenProgram solana.PublicKey
	// Program is the vault program the data accounts derive under.
	Program solana.PublicKey
}

// Bitmap returns the vault's claim bitmap for epoch. It is the zero key in
// the practically unreachable case that no program address exists.
func (v VaultAccounts) Bitmap(epoch uint64) solana.PublicKey {
	addr, _ := authority.ClaimBitmap(v.Program, v.State, epoch)
	return addr
}

// Deployment describes a vault to set up.
type Deployment struct {
	Name         string
	BaseDecimals uint8
}

// Deploy creates the mints and custody accounts of a vault named d.Name and
// runs its Init instruction. Every address is derived from the name, except
// the program-owned data accounts, which derive from the vault state.
func Deploy(p *Processor, d Deployment) (VaultAccounts, error) {
	cfg := p.Config()
	v := VaultAccounts{
		State:        LabelKey(d.Name + "/state"),
		Admin:        LabelKey(d.Name + "/admin"),
		Operator:     LabelKey(d.Name + "/operator"),
		Faucet:       LabelKey(d.Name + "/faucet"),
		BaseMint:     LabelKey(d.Name + "/base-mint"),
		ShareMint:    LabelKey(d.Name + "/share-mint"),
		VaultBase:    LabelKey(d.Name + "/vault-base"),
		BoostBase:    LabelKey(d.Name + "/boost-base"),
		TokenProgram: cfg.TokenProgramID,
		Program:      cfg.ProgramID,
	}
	addr, _, err := authority.Find(cfg.ProgramID, v.BaseMint, v.Admin)
	if err != nil {
		return v, err
	}
	v.Authority = addr
	if v.Distributor, err = authority.Distributor(cfg.ProgramID, v.State); err != nil {
		return v, err
	}

	err = p.Store().Update(func(tx *Tx) error {
		l := NewLedger(tx, cfg.ProgramID)
		if err := l.CreateMint(v.BaseMint, v.Faucet, d.BaseDecimals); err != nil {
			return err
		}
		if err := l.CreateMint(v.ShareMint, v.Authority, cfg.ShareDecimals); err != nil {
			return err
		}
		if err := l.OpenAccount(v.VaultBase, v.BaseMint, v.Authority); err != nil {
			return err
		}
		return l.OpenAccount(v.BoostBase, v.BaseMint, v.Authority)
	})
	if err != nil {
		return v, err
	}
	_, err = p.Process(v.Init(d.BaseDecimals))
	return v, err
}

// User is a depositor or claimant with its two token accounts.
type User struct {
	Key   solana.PublicKey
	Base  solana.PublicKey
	Share solana.PublicKey
}

// OpenUser creates the base and share accounts of a named user and funds the
// base account with amount from the faucet.
func OpenUser(p *Processor, v VaultAccounts, name string, dec uint8, amount uint64) (User, error) {
	u := User{
		Key:   LabelKey("user/" + name),
		Base:  LabelKey("user/" + name + "/base"),
		Share: LabelKey("user/" + name + "/share"),
	}
	err := p.Store().Update(func(tx *Tx) error {
		l := NewLedger(tx, p.Config().ProgramID)
		if err := l.OpenAccount(u.Base, v.BaseMint, u.Key); err != nil {
			return err
		}
		if err := l.OpenAccount(u.Share, v.ShareMint, u.Key); err != nil {
			return err
		}
		if amount == 0 {
			return nil
		}
		return l.MintTo(v.BaseMint, u.Base, v.Faucet, amount, dec, vault.Signed(v.Faucet))
	})
	return u, err
}

func ro(k solana.PublicKey) *solana.AccountMeta { return solana.NewAccountMeta(k, false, false) }
func rw(k solana.PublicKey) *solana.AccountMeta { return solana.NewAccountMeta(k, true, false) }
func sig(k solana.PublicKey) *solana.AccountMeta {
	return solana.NewAccountMeta(k, false, true)
}

// Init builds the vault's Init instruction.
func (v VaultAccounts) Init(decimals uint8) Instruction {
	return NewInstruction(inter.InitArgs{Decimals: decimals},
		rw(v.State), sig(v.Admin), ro(v.Operator), ro(v.BaseMint), ro(v.ShareMint), ro(v.Authority))
}

// Deposit builds a deposit of amount base units by u.
func (v VaultAccounts) Deposit(u User, amount uint64, decimals uint8) Instruction {
	return NewInstruction(inter.DepositArgs{Amount: amount, Decimals: decimals},
		rw(v.State), ro(v.Authority), sig(u.Key), rw(u.Base), rw(v.VaultBase),
		rw(v.ShareMint), rw(u.Share), ro(v.TokenProgram), ro(v.BaseMint))
}

// Withdraw builds a redemption of shares by u.
func (v VaultAccounts) Withdraw(u User, shares uint64, decimals uint8) Instruction {
	return NewInstruction(inter.WithdrawArgs{Shares: shares, Decimals: decimals},
		rw(v.State), ro(v.Authority), sig(u.Key), rw(u.Base), rw(v.VaultBase),
		rw(v.ShareMint), rw(u.Share), ro(v.TokenProgram), ro(v.BaseMint))
}

// Donate builds a donation of amount from u toward epoch.
func (v VaultAccounts) Donate(u User, amount, epoch uint64, bps uint16, decimals uint8) Instruction {
	return NewInstruction(inter.DonateArgs{Amount: amount, Epoch: epoch, BoostBps: bps, Decimals: decimals},
		rw(v.State), ro(v.Authority), sig(u.Key), rw(u.Base), rw(v.VaultBase),
		rw(v.BoostBase), ro(v.TokenProgram), ro(v.BaseMint), rw(v.Distributor))
}

// PostRoot builds a root posting signed by signer.
func (v VaultAccounts) PostRoot(signer solana.PublicKey, epoch uint64, totalWeight *uint256.Int, root common.Hash) Instruction {
	return NewInstruction(inter.PostRootArgs{Epoch: epoch, TotalWeight: *totalWeight, Root: root},
		rw(v.State), sig(signer), rw(v.Distributor))
}

// Claim builds a boost claim by u.
func (v VaultAccounts) Claim(u User, epoch uint64, index uint32, weight *uint256.Int, proof []common.Hash) Instruction {
	return NewInstruction(inter.ClaimArgs{Epoch: epoch, Index: index, Weight: *weight, Proof: proof},
		rw(v.State), ro(v.Authority), sig(u.Key), rw(v.Distributor), rw(v.Bitmap(epoch)),
		rw(v.BoostBase), rw(u.Base), ro(v.TokenProgram), ro(v.BaseMint))
}
