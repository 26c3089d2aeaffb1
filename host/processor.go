package host

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/interest-vault/inter"
	"github.com/rony4d/interest-vault/vault"
	"github.com/rony4d/interest-vault/vault/authority"
	"github.com/rony4d/interest-vault/vaulterr"
)

// Config holds the processor's fixed parameters.
type Config struct {
	// ProgramID is the vault program address the authority seeds derive under.
	ProgramID solana.PublicKey
	// TokenProgramID is the token program instructions must name.
	TokenProgramID solana.PublicKey
	// ShareDecimals is the decimals of every share mint.
	ShareDecimals uint8
	// PayoutDecimals is the decimals boost payouts are transferred with.
	PayoutDecimals uint8
}

// DefaultConfig returns the processor defaults for programID.
func DefaultConfig(programID solana.PublicKey) Config {
	return Config{
		ProgramID:      programID,
		TokenProgramID: solana.TokenProgramID,
		ShareDecimals:  6,
		PayoutDecimals: 6,
	}
}

// Instruction is one call into the vault program.
type Instruction struct {
	Accounts []*solana.AccountMeta
	Data     []byte
}

// NewInstruction encodes payload with the given accounts.
func NewInstruction(payload inter.Payload, accounts ...*solana.AccountMeta) Instruction {
	return Instruction{Accounts: accounts, Data: payload.Encode()}
}

// Result describes a successful instruction.
type Result struct {
	Op inter.Op
	// Shares is the share count minted by a deposit or burned by a withdrawal.
	Shares uint64
	// Amount is the base amount moved: deposited, withdrawn, donated or paid
	// out by a claim.
	Amount uint64
	Split  vault.Split
	Calls  []TokenCall
}

// Account layouts, by position.
//
//	Init:     0 vault_state [w], 1 admin [s], 2 operator, 3 base_mint, 4 share_mint, 5 vault_authority
//	Deposit:  0 vault_state [w], 1 vault_authority, 2 user [s], 3 user_base [w], 4 vault_base [w],
//	          5 share_mint [w], 6 user_share [w], 7 token_program, 8 base_mint
//	Withdraw: same as Deposit
//	Donate:   0 vault_state [w], 1 vault_authority, 2 donor [s], 3 donor_base [w], 4 vault_base [w],
//	          5 boost_base [w], 6 token_program, 7 base_mint, 8 boost_distributor [w]
//	PostRoot: 0 vault_state [w], 1 operator [s], 2 boost_distributor [w]
//	Claim:    0 vault_state [w], 1 vault_authority, 2 claimant [s], 3 boost_distributor [w],
//	          4 claim_bitmap [w], 5 boost_base [w], 6 claimant_base [w], 7 token_program, 8 base_mint
//
// boost_distributor and claim_bitmap must be the addresses derived from
// vault_state (see authority.Distributor and authority.ClaimBitmap).
type layout struct {
	accounts int
	writable []int
}

var layouts = map[inter.Op]layout{
	inter.OpInit:     {6, []int{0}},
	inter.OpDeposit:  {9, []int{0, 3, 4, 5, 6}},
	inter.OpWithdraw: {9, []int{0, 3, 4, 5, 6}},
	inter.OpDonate:   {9, []int{0, 3, 4, 5, 8}},
	inter.OpPostRoot: {3, []int{0, 2}},
	inter.OpClaim:    {9, []int{0, 3, 4, 5, 6}},
}

// Processor decodes and executes vault instructions. Process is safe for
// concurrent use; instructions sharing a writable account are serialized.
type Processor struct {
	cfg     Config
	store   *Store
	locks   *accountLocks
	log     logrus.FieldLogger
	metrics *Metrics
}

// NewProcessor returns a processor over store. A nil log discards output.
func NewProcessor(store *Store, cfg Config, log logrus.FieldLogger, opts ...Option) *Processor {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	p := &Processor{cfg: cfg, store: store, locks: newAccountLocks(), log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the processor configuration.
func (p *Processor) Config() Config {
	return p.cfg
}

// Store returns the underlying account store.
func (p *Processor) Store() *Store {
	return p.store
}

// Process runs ix as one atomic unit of work.
func (p *Processor) Process(ix Instruction) (Result, error) {
	start := time.Now()
	res, err := p.process(ix)
	if p.metrics != nil {
		p.metrics.observe(ix.Data, res, err, time.Since(start))
	}
	return res, err
}

func (p *Processor) process(ix Instruction) (Result, error) {
	payload, err := inter.DecodePayload(ix.Data)
	if err != nil {
		p.log.WithError(err).Warn("Rejected instruction data")
		return Result{}, err
	}
	op := payload.Op()
	log := p.log.WithField("op", op.String())

	lay := layouts[op]
	if len(ix.Accounts) < lay.accounts {
		err := fmt.Errorf("%s needs %d accounts, got %d: %w", op, lay.accounts, len(ix.Accounts), vaulterr.ErrMalformedInput)
		log.WithError(err).Warn("Rejected instruction")
		return Result{}, err
	}
	for _, i := range lay.writable {
		if !ix.Accounts[i].IsWritable {
			err := fmt.Errorf("%s account %d (%s) must be writable: %w", op, i, ix.Accounts[i].PublicKey, vaulterr.ErrMalformedInput)
			log.WithError(err).Warn("Rejected instruction")
			return Result{}, err
		}
	}

	var writable []solana.PublicKey
	for _, meta := range ix.Accounts {
		if meta.IsWritable {
			writable = append(writable, meta.PublicKey)
		}
	}
	unlock := p.locks.lock(writable)
	defer unlock()

	var res Result
	err = p.store.Update(func(tx *Tx) error {
		c := &call{cfg: p.cfg, tx: tx, ledger: NewLedger(tx, p.cfg.ProgramID), accs: ix.Accounts}
		var err error
		switch args := payload.(type) {
		case inter.InitArgs:
			res, err = c.init(args)
		case inter.DepositArgs:
			res, err = c.deposit(args)
		case inter.WithdrawArgs:
			res, err = c.withdraw(args)
		case inter.DonateArgs:
			res, err = c.donate(args)
		case inter.PostRootArgs:
			res, err = c.postRoot(args)
		case inter.ClaimArgs:
			res, err = c.claim(args)
		default:
			err = fmt.Errorf("%s: %w", op, vaulterr.ErrMalformedInput)
		}
		if err != nil {
			return err
		}
		res.Op = op
		res.Calls = c.ledger.Calls()
		return nil
	})

	log = log.WithField("vault", ix.Accounts[0].PublicKey.String())
	if err != nil {
		log.WithFields(logrus.Fields{
			"code":  vaulterr.Code(err),
			"error": vaulterr.Name(err),
		}).Warnf("Instruction failed: %v", err)
		return Result{}, err
	}
	log.WithFields(logrus.Fields{
		"shares": res.Shares,
		"amount": res.Amount,
		"calls":  len(res.Calls),
	}).Debug("Instruction executed")
	return res, nil
}

// call is the state of one instruction execution.
type call struct {
	cfg    Config
	tx     *Tx
	ledger *Ledger
	accs   []*solana.AccountMeta
}

func (c *call) key(i int) solana.PublicKey {
	return c.accs[i].PublicKey
}

func (c *call) signer(i int) (solana.PublicKey, error) {
	meta := c.accs[i]
	if !meta.IsSigner {
		return solana.PublicKey{}, fmt.Errorf("account %s must sign: %w", meta.PublicKey, vaulterr.ErrAuthenticationFailure)
	}
	return meta.PublicKey, nil
}

func expect(what string, got, want solana.PublicKey) error {
	if !got.Equals(want) {
		return fmt.Errorf("%s: got %s, want %s: %w", what, got, want, vaulterr.ErrAddressMismatch)
	}
	return nil
}

// data returns the program-owned account at i. A stored record of any other
// size belongs to a different kind of account and is rejected.
func (c *call) data(i, size int, what string) ([]byte, bool, error) {
	addr := c.key(i)
	raw, ok, err := c.tx.ProgramData(addr)
	if err != nil || !ok {
		return nil, false, err
	}
	if len(raw) != size {
		return nil, false, fmt.Errorf("%s %s holds %d bytes, want %d: %w", what, addr, len(raw), size, vaulterr.ErrMalformedInput)
	}
	return raw, true, nil
}

func (c *call) loadVault() (*inter.VaultRecord, error) {
	raw, ok, err := c.data(0, inter.VaultRecordSize, "vault state")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("vault state %s: %w", c.key(0), ErrAccountNotFound)
	}
	rec := new(inter.VaultRecord)
	if err := rec.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *call) saveVault(rec *inter.VaultRecord) error {
	raw, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	return c.tx.SetProgramData(c.key(0), raw)
}

// loadEpoch returns the boost slot at account i; ok is false when it has not
// been written yet.
func (c *call) loadEpoch(i int) (*inter.BoostEpoch, bool, error) {
	raw, ok, err := c.data(i, inter.BoostEpochSize, "boost distributor")
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return &inter.BoostEpoch{}, false, nil
	}
	ep := new(inter.BoostEpoch)
	if err := ep.UnmarshalBinary(raw); err != nil {
		return nil, false, err
	}
	return ep, true, nil
}

// loadBitmap returns the claim bitmap at account i; an unwritten bitmap is empty.
func (c *call) loadBitmap(i int) (*inter.ClaimBitmap, error) {
	bm := new(inter.ClaimBitmap)
	raw, ok, err := c.data(i, inter.ClaimBitmapSize, "claim bitmap")
	if err != nil || !ok {
		return bm, err
	}
	return bm, bm.UnmarshalBinary(raw)
}

// checkDistributor verifies that account i is the boost slot of the vault at 0.
func (c *call) checkDistributor(i int) error {
	addr, err := authority.Distributor(c.cfg.ProgramID, c.key(0))
	if err != nil {
		return err
	}
	return expect("boost distributor", c.key(i), addr)
}

// checkBitmap verifies that account i is the vault's claim bitmap for epoch.
func (c *call) checkBitmap(i int, epoch uint64) error {
	addr, err := authority.ClaimBitmap(c.cfg.ProgramID, c.key(0), epoch)
	if err != nil {
		return err
	}
	return expect("claim bitmap", c.key(i), addr)
}

func (c *call) saveEpoch(i int, ep *inter.BoostEpoch) error {
	raw, err := ep.MarshalBinary()
	if err != nil {
		return err
	}
	return c.tx.SetProgramData(c.key(i), raw)
}

// checkVault verifies the vault authority account and, when given, the
// position of the base mint and the token program.
func (c *call) checkVault(rec *inter.VaultRecord, authorityAt, baseMintAt, tokenProgramAt int) error {
	if err := expect("vault authority", c.key(authorityAt), rec.VaultAuthority); err != nil {
		return err
	}
	if err := expect("base mint", c.key(baseMintAt), rec.BaseMint); err != nil {
		return err
	}
	return expect("token program", c.key(tokenProgramAt), c.cfg.TokenProgramID)
}

// checkCustody verifies that the token account at i belongs to the vault
// authority and holds the base asset.
func (c *call) checkCustody(rec *inter.VaultRecord, i int) error {
	acc, err := c.tx.TokenAccount(c.key(i))
	if err != nil {
		return err
	}
	if err := expect("custody owner", acc.Owner, rec.VaultAuthority); err != nil {
		return err
	}
	return expect("custody mint", acc.Mint, rec.BaseMint)
}

func vaultAuth(rec *inter.VaultRecord) vault.Authorization {
	return vault.VaultSigned(rec.VaultAuthority, authority.Seeds{
		BaseMint: rec.BaseMint,
		Admin:    rec.Admin,
		Nonce:    rec.Nonce,
	})
}

func (c *call) init(args inter.InitArgs) (Result, error) {
	admin, err := c.signer(1)
	if err != nil {
		return Result{}, err
	}
	if _, exists, err := c.tx.ProgramData(c.key(0)); err != nil {
		return Result{}, err
	} else if exists {
		return Result{}, fmt.Errorf("vault state %s already initialized: %w", c.key(0), vaulterr.ErrMalformedInput)
	}

	baseMint, shareMint := c.key(3), c.key(4)
	addr, seeds, err := authority.Find(c.cfg.ProgramID, baseMint, admin)
	if err != nil {
		return Result{}, err
	}
	if err := expect("vault authority", c.key(5), addr); err != nil {
		return Result{}, err
	}

	base, err := c.tx.Mint(baseMint)
	if err != nil {
		return Result{}, err
	}
	if err := checkDecimals(base, baseMint, args.Decimals); err != nil {
		return Result{}, err
	}
	share, err := c.tx.Mint(shareMint)
	if err != nil {
		return Result{}, err
	}
	if err := expect("share mint authority", share.Authority, addr); err != nil {
		return Result{}, err
	}
	if err := checkDecimals(share, shareMint, c.cfg.ShareDecimals); err != nil {
		return Result{}, err
	}
	if share.Supply != 0 {
		return Result{}, fmt.Errorf("share mint %s has supply %d: %w", shareMint, share.Supply, vaulterr.ErrMalformedInput)
	}

	rec := &inter.VaultRecord{
		Admin:          admin,
		Operator:       c.key(2),
		BaseMint:       baseMint,
		ShareMint:      shareMint,
		VaultAuthority: addr,
		Nonce:          seeds.Nonce,
	}
	vault.NewShareAccountant(rec).Initialize()
	return Result{}, c.saveVault(rec)
}

func (c *call) deposit(args inter.DepositArgs) (Result, error) {
	user, err := c.signer(2)
	if err != nil {
		return Result{}, err
	}
	rec, err := c.loadVault()
	if err != nil {
		return Result{}, err
	}
	if err := c.checkVault(rec, 1, 8, 7); err != nil {
		return Result{}, err
	}
	if err := expect("share mint", c.key(5), rec.ShareMint); err != nil {
		return Result{}, err
	}
	if err := c.checkCustody(rec, 4); err != nil {
		return Result{}, err
	}

	shares, err := vault.NewShareAccountant(rec).Deposit(args.Amount)
	if err != nil {
		return Result{}, err
	}
	if err := c.ledger.Transfer(c.key(3), c.key(4), user, args.Amount, args.Decimals, vault.Signed(user)); err != nil {
		return Result{}, err
	}
	if err := c.ledger.MintTo(rec.ShareMint, c.key(6), rec.VaultAuthority, shares, c.cfg.ShareDecimals, vaultAuth(rec)); err != nil {
		return Result{}, err
	}
	return Result{Shares: shares, Amount: args.Amount}, c.saveVault(rec)
}

func (c *call) withdraw(args inter.WithdrawArgs) (Result, error) {
	user, err := c.signer(2)
	if err != nil {
		return Result{}, err
	}
	rec, err := c.loadVault()
	if err != nil {
		return Result{}, err
	}
	if err := c.checkVault(rec, 1, 8, 7); err != nil {
		return Result{}, err
	}
	if err := expect("share mint", c.key(5), rec.ShareMint); err != nil {
		return Result{}, err
	}
	if err := c.checkCustody(rec, 4); err != nil {
		return Result{}, err
	}

	amount, err := vault.NewShareAccountant(rec).Withdraw(args.Shares)
	if err != nil {
		return Result{}, err
	}
	if err := c.ledger.Burn(c.key(6), rec.ShareMint, user, args.Shares, c.cfg.ShareDecimals, vault.Signed(user)); err != nil {
		return Result{}, err
	}
	if err := c.ledger.Transfer(c.key(4), c.key(3), rec.VaultAuthority, amount, args.Decimals, vaultAuth(rec)); err != nil {
		return Result{}, err
	}
	return Result{Shares: args.Shares, Amount: amount}, c.saveVault(rec)
}

func (c *call) donate(args inter.DonateArgs) (Result, error) {
	donor, err := c.signer(2)
	if err != nil {
		return Result{}, err
	}
	rec, err := c.loadVault()
	if err != nil {
		return Result{}, err
	}
	if err := c.checkVault(rec, 1, 7, 6); err != nil {
		return Result{}, err
	}
	if err := c.checkCustody(rec, 4); err != nil {
		return Result{}, err
	}
	if err := c.checkCustody(rec, 5); err != nil {
		return Result{}, err
	}
	if err := c.checkDistributor(8); err != nil {
		return Result{}, err
	}

	if err := c.ledger.Transfer(c.key(3), c.key(4), donor, args.Amount, args.Decimals, vault.Signed(donor)); err != nil {
		return Result{}, err
	}

	ep, tracked, err := c.loadEpoch(8)
	if err != nil {
		return Result{}, err
	}
	router := &vault.DonationRouter{
		Shares: vault.NewShareAccountant(rec),
		Custody: vault.BoostCustodyFunc(func(amount uint64) error {
			return c.ledger.Transfer(c.key(4), c.key(5), rec.VaultAuthority, amount, args.Decimals, vaultAuth(rec))
		}),
	}
	// A distributor that has never been written is not tracked.
	if tracked {
		router.Epoch = ep
	}
	split, err := router.Donate(args.Amount, args.Epoch, args.BoostBps)
	if err != nil {
		return Result{}, err
	}
	if tracked {
		if err := c.saveEpoch(8, ep); err != nil {
			return Result{}, err
		}
	}
	return Result{Amount: args.Amount, Split: split}, c.saveVault(rec)
}

func (c *call) postRoot(args inter.PostRootArgs) (Result, error) {
	operator, err := c.signer(1)
	if err != nil {
		return Result{}, err
	}
	rec, err := c.loadVault()
	if err != nil {
		return Result{}, err
	}
	if err := c.checkDistributor(2); err != nil {
		return Result{}, err
	}
	ep, _, err := c.loadEpoch(2)
	if err != nil {
		return Result{}, err
	}

	m := &vault.EpochManager{Epoch: ep, Authority: vault.OperatorAuthority{Operator: rec.Operator}}
	if err := m.PostRoot(operator, args.Epoch, &args.TotalWeight, args.Root); err != nil {
		return Result{}, err
	}
	return Result{}, c.saveEpoch(2, ep)
}

func (c *call) claim(args inter.ClaimArgs) (Result, error) {
	claimant, err := c.signer(2)
	if err != nil {
		return Result{}, err
	}
	rec, err := c.loadVault()
	if err != nil {
		return Result{}, err
	}
	if err := c.checkVault(rec, 1, 8, 7); err != nil {
		return Result{}, err
	}
	if err := c.checkCustody(rec, 5); err != nil {
		return Result{}, err
	}
	if err := c.checkDistributor(3); err != nil {
		return Result{}, err
	}
	if err := c.checkBitmap(4, args.Epoch); err != nil {
		return Result{}, err
	}
	ep, ok, err := c.loadEpoch(3)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, fmt.Errorf("boost distributor %s: %w", c.key(3), ErrAccountNotFound)
	}
	// A bitmap account is allocated on the first claim against it.
	bitmap, err := c.loadBitmap(4)
	if err != nil {
		return Result{}, err
	}

	v := &vault.ClaimVerifier{
		Epoch:  ep,
		Bitmap: bitmap,
		Payer: vault.PayerFunc(func(_ solana.PublicKey, amount uint64) error {
			return c.ledger.Transfer(c.key(5), c.key(6), rec.VaultAuthority, amount, c.cfg.PayoutDecimals, vaultAuth(rec))
		}),
	}
	payout, err := v.Claim(vault.ClaimRequest{
		Claimant: claimant,
		Epoch:    args.Epoch,
		Index:    args.Index,
		Weight:   args.Weight,
		Proof:    args.Proof,
	})
	if err != nil {
		return Result{}, err
	}
	raw, _ := bitmap.MarshalBinary()
	return Result{Amount: payout}, c.tx.SetProgramData(c.key(4), raw)
}

// Vault reads the vault record at addr.
func (p *Processor) Vault(addr solana.PublicKey) (*inter.VaultRecord, error) {
	var rec *inter.VaultRecord
	err := p.store.View(func(tx *Tx) error {
		c := &call{tx: tx, accs: []*solana.AccountMeta{ro(addr)}}
		var err error
		rec, err = c.loadVault()
		return err
	})
	return rec, err
}

// Epoch reads the boost slot at addr; an unwritten slot reads as zero.
func (p *Processor) Epoch(addr solana.PublicKey) (*inter.BoostEpoch, error) {
	var ep *inter.BoostEpoch
	err := p.store.View(func(tx *Tx) error {
		c := &call{tx: tx, accs: []*solana.AccountMeta{ro(addr)}}
		var err error
		ep, _, err = c.loadEpoch(0)
		return err
	})
	return ep, err
}

// Bitmap reads the claim bitmap at addr; an unwritten bitmap reads as empty.
func (p *Processor) Bitmap(addr solana.PublicKey) (*inter.ClaimBitmap, error) {
	var bm *inter.ClaimBitmap
	err := p.store.View(func(tx *Tx) error {
		c := &call{tx: tx, accs: []*solana.AccountMeta{ro(addr)}}
		var err error
		bm, err = c.loadBitmap(0)
		return err
	})
	return bm, err
}
