package launcher

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/interest-vault/host"
	"github.com/rony4d/interest-vault/merkle"
	"github.com/rony4d/interest-vault/vaulterr"
)

// scenario is a scripted run: users funded from the faucet, then steps.
type scenario struct {
	Name  string         `yaml:"name"`
	Users []scenarioUser `yaml:"users"`
	Steps []scenarioStep `yaml:"steps"`
}

type scenarioUser struct {
	Name    string `yaml:"name"`
	Balance uint64 `yaml:"balance"`
}

// scenarioStep is one instruction. Op is deposit, withdraw, donate, post_root
// or claim; the other fields apply per op.
type scenarioStep struct {
	Op     string `yaml:"op"`
	User   string `yaml:"user"`
	Amount uint64 `yaml:"amount"`
	Shares uint64 `yaml:"shares"`
	Epoch  uint64 `yaml:"epoch"`
	// Bps overrides the configured boost split of a donation.
	Bps *uint16 `yaml:"bps"`
	// Signer of a root post: operator (default), admin, or a user name.
	Signer string `yaml:"signer"`
	// Claims are the weights a root post commits to.
	Claims []scenarioClaim `yaml:"claims"`
	Index  uint32          `yaml:"index"`
}

type scenarioClaim struct {
	Index  uint32 `yaml:"index"`
	User   string `yaml:"user"`
	Weight string `yaml:"weight"`
}

type stepReport struct {
	Step   int          `json:"step"`
	Op     string       `json:"op"`
	User   string       `json:"user,omitempty"`
	OK     bool         `json:"ok"`
	Error  string       `json:"error,omitempty"`
	Shares uint64       `json:"shares,omitempty"`
	Amount uint64       `json:"amount,omitempty"`
	Base   uint64       `json:"base,omitempty"`
	Boost  uint64       `json:"boost,omitempty"`
	Root   *common.Hash `json:"root,omitempty"`
}

type balanceReport struct {
	Base   uint64 `json:"base"`
	Shares uint64 `json:"shares"`
}

type simulateReport struct {
	Name         string                   `json:"name"`
	Preset       string                   `json:"preset"`
	Vault        string                   `json:"vault"`
	Steps        []stepReport             `json:"steps"`
	PPS          string                   `json:"pps"`
	TotalShares  string                   `json:"total_shares"`
	BufferedBase uint64                   `json:"buffered_base"`
	VaultBase    uint64                   `json:"vault_base"`
	BoostBase    uint64                   `json:"boost_base"`
	BoostTotal   uint64                   `json:"boost_total"`
	Users        map[string]balanceReport `json:"users"`
	// Instructions counts processed instructions by "op/result".
	Instructions map[string]uint64 `json:"instructions"`
	Snapshot     common.Hash       `json:"snapshot"`
}

func simulateAction(ctx *cli.Context) error {
	cfg, log, err := setup(ctx)
	if err != nil {
		return err
	}
	var sc scenario
	if err := readInput(ctx.String("input"), &sc); err != nil {
		return err
	}
	rep, err := runScenario(sc, cfg.Vault, log)
	if err != nil {
		return err
	}
	return writeJSON(ctx.App.Writer, rep)
}

// simulation holds the live state of one scenario run.
type simulation struct {
	cfg   VaultConfig
	reg   *prometheus.Registry
	p     *host.Processor
	v     host.VaultAccounts
	users map[string]host.User
	trees map[uint64]*merkle.Tree
	log   logrus.FieldLogger
}

// runScenario deploys a fresh vault in memory and plays sc against it. A
// rejected step is recorded and the run continues; setup failures abort.
func runScenario(sc scenario, cfg VaultConfig, log logrus.FieldLogger) (*simulateReport, error) {
	pcfg, err := cfg.ProcessorConfig()
	if err != nil {
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = "scenario"
	}
	reg := prometheus.NewRegistry()
	p := host.NewProcessor(host.NewMemStore(), pcfg, log, host.WithMetrics(host.NewMetrics(reg)))
	v, err := host.Deploy(p, host.Deployment{Name: sc.Name, BaseDecimals: cfg.BaseDecimals})
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", sc.Name, err)
	}

	s := &simulation{
		cfg:   cfg,
		reg:   reg,
		p:     p,
		v:     v,
		users: make(map[string]host.User, len(sc.Users)),
		trees: make(map[uint64]*merkle.Tree),
		log:   log.WithField("scenario", sc.Name),
	}
	for _, u := range sc.Users {
		if _, dup := s.users[u.Name]; dup {
			return nil, fmt.Errorf("user %q declared twice", u.Name)
		}
		user, err := host.OpenUser(p, v, u.Name, cfg.BaseDecimals, u.Balance)
		if err != nil {
			return nil, fmt.Errorf("open user %s: %w", u.Name, err)
		}
		s.users[u.Name] = user
	}

	rep := &simulateReport{Name: sc.Name, Preset: cfg.Preset, Vault: v.State.String()}
	for i, step := range sc.Steps {
		sr := s.run(step)
		sr.Step = i
		rep.Steps = append(rep.Steps, sr)
	}
	return rep, s.finish(rep)
}

func (s *simulation) user(name string) (host.User, error) {
	u, ok := s.users[name]
	if !ok {
		return host.User{}, fmt.Errorf("unknown user %q: %w", name, vaulterr.ErrMalformedInput)
	}
	return u, nil
}

func (s *simulation) run(step scenarioStep) stepReport {
	sr := stepReport{Op: step.Op, User: step.User}
	res, err := s.exec(step, &sr)
	if err != nil {
		sr.Error = fmt.Sprintf("%s: %v", vaulterr.Name(err), err)
		s.log.WithFields(logrus.Fields{"op": step.Op, "user": step.User}).WithError(err).Info("Step rejected")
		return sr
	}
	sr.OK = true
	sr.Shares = res.Shares
	sr.Amount = res.Amount
	sr.Base = res.Split.Base
	sr.Boost = res.Split.Boost
	return sr
}

func (s *simulation) exec(step scenarioStep, sr *stepReport) (host.Result, error) {
	dec := s.cfg.BaseDecimals
	switch step.Op {
	case "deposit":
		u, err := s.user(step.User)
		if err != nil {
			return host.Result{}, err
		}
		return s.p.Process(s.v.Deposit(u, step.Amount, dec))

	case "withdraw":
		u, err := s.user(step.User)
		if err != nil {
			return host.Result{}, err
		}
		return s.p.Process(s.v.Withdraw(u, step.Shares, dec))

	case "donate":
		u, err := s.user(step.User)
		if err != nil {
			return host.Result{}, err
		}
		bps := s.cfg.BoostBps
		if step.Bps != nil {
			bps = *step.Bps
		}
		return s.p.Process(s.v.Donate(u, step.Amount, step.Epoch, bps, dec))

	case "post_root":
		signer, err := s.signer(step.Signer)
		if err != nil {
			return host.Result{}, err
		}
		tree, err := s.tree(step.Claims)
		if err != nil {
			return host.Result{}, err
		}
		root, total := tree.Root(), tree.TotalWeight()
		sr.Root = &root
		res, err := s.p.Process(s.v.PostRoot(signer, step.Epoch, &total, root))
		if err == nil {
			s.trees[step.Epoch] = tree
		}
		return res, err

	case "claim":
		u, err := s.user(step.User)
		if err != nil {
			return host.Result{}, err
		}
		tree, ok := s.trees[step.Epoch]
		if !ok {
			return host.Result{}, fmt.Errorf("no root posted for epoch %d: %w", step.Epoch, vaulterr.ErrNoActiveEpoch)
		}
		entry, proof, ok := tree.ProofFor(step.Index)
		if !ok {
			return host.Result{}, fmt.Errorf("epoch %d has no index %d: %w", step.Epoch, step.Index, vaulterr.ErrIndexOutOfRange)
		}
		return s.p.Process(s.v.Claim(u, step.Epoch, step.Index, &entry.Weight, proof))
	}
	return host.Result{}, fmt.Errorf("unknown op %q: %w", step.Op, vaulterr.ErrMalformedInput)
}

func (s *simulation) signer(name string) (solana.PublicKey, error) {
	switch name {
	case "", "operator":
		return s.v.Operator, nil
	case "admin":
		return s.v.Admin, nil
	}
	u, err := s.user(name)
	return u.Key, err
}

func (s *simulation) tree(claims []scenarioClaim) (*merkle.Tree, error) {
	entries := make([]merkle.Entry, len(claims))
	for i, c := range claims {
		u, err := s.user(c.User)
		if err != nil {
			return nil, err
		}
		w, err := parseWeight(c.Weight)
		if err != nil {
			return nil, err
		}
		entries[i] = merkle.Entry{Index: c.Index, Claimant: u.Key, Weight: *w}
	}
	return merkle.Build(entries)
}

func (s *simulation) finish(rep *simulateReport) error {
	rec, err := s.p.Vault(s.v.State)
	if err != nil {
		return err
	}
	ep, err := s.p.Epoch(s.v.Distributor)
	if err != nil {
		return err
	}
	snap, err := s.p.Store().Snapshot()
	if err != nil {
		return err
	}

	rep.PPS = rec.PPS.ToBig().String()
	rep.TotalShares = rec.TotalShares.ToBig().String()
	rep.BufferedBase = rec.BufferedBase
	rep.VaultBase = snap.Balance(s.v.VaultBase)
	rep.BoostBase = snap.Balance(s.v.BoostBase)
	rep.BoostTotal = ep.BoostTotal
	rep.Users = make(map[string]balanceReport, len(s.users))
	for name, u := range s.users {
		rep.Users[name] = balanceReport{Base: snap.Balance(u.Base), Shares: snap.Balance(u.Share)}
	}
	rep.Snapshot = snap.Hash()

	families, err := s.reg.Gather()
	if err != nil {
		return err
	}
	rep.Instructions = make(map[string]uint64)
	for _, mf := range families {
		if mf.GetName() != "interest_vault_instructions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var op, result string
			for _, l := range m.GetLabel() {
				switch l.GetName() {
				case "op":
					op = l.GetValue()
				case "result":
					result = l.GetValue()
				}
			}
			rep.Instructions[op+"/"+result] = uint64(m.GetCounter().GetValue())
		}
	}

	s.log.WithFields(logrus.Fields{
		"steps":    len(rep.Steps),
		"pps":      rep.PPS,
		"snapshot": rep.Snapshot.Hex(),
	}).Info("Scenario finished")
	return nil
}
