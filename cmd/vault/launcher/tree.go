package launcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/rony4d/interest-vault/inter"
	"github.com/rony4d/interest-vault/merkle"
	"github.com/rony4d/interest-vault/vaulterr"
)

var errNoInput = errors.New("missing --input")

// weightEntry is one line of a weights file. Weights are decimal strings
// since they may exceed 64 bits.
type weightEntry struct {
	Index    uint32 `yaml:"index"`
	Claimant string `yaml:"claimant"`
	Weight   string `yaml:"weight"`
}

type claimReport struct {
	Index    uint32        `json:"index"`
	Claimant string        `json:"claimant"`
	Weight   string        `json:"weight"`
	Leaf     common.Hash   `json:"leaf"`
	Proof    []common.Hash `json:"proof"`
}

type treeReport struct {
	Root        common.Hash   `json:"root"`
	TotalWeight string        `json:"total_weight"`
	Claims      []claimReport `json:"claims"`
}

func treeAction(ctx *cli.Context) error {
	_, log, err := setup(ctx)
	if err != nil {
		return err
	}
	var entries []weightEntry
	if err := readInput(ctx.String("input"), &entries); err != nil {
		return err
	}
	tree, err := buildTree(entries)
	if err != nil {
		return err
	}
	total := tree.TotalWeight()
	log.WithFields(logrus.Fields{
		"root":    tree.Root().Hex(),
		"entries": tree.Len(),
		"total":   total.ToBig().String(),
	}).Info("Built boost tree")
	return writeJSON(ctx.App.Writer, reportTree(tree))
}

func buildTree(raw []weightEntry) (*merkle.Tree, error) {
	entries := make([]merkle.Entry, len(raw))
	for i, e := range raw {
		claimant, err := solana.PublicKeyFromBase58(e.Claimant)
		if err != nil {
			return nil, fmt.Errorf("entry %d claimant %q: %w", i, e.Claimant, err)
		}
		weight, err := parseWeight(e.Weight)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries[i] = merkle.Entry{Index: e.Index, Claimant: claimant, Weight: *weight}
	}
	return merkle.Build(entries)
}

func reportTree(tree *merkle.Tree) treeReport {
	total := tree.TotalWeight()
	rep := treeReport{Root: tree.Root(), TotalWeight: total.ToBig().String()}
	for pos, e := range tree.Entries() {
		rep.Claims = append(rep.Claims, claimReport{
			Index:    e.Index,
			Claimant: e.Claimant.String(),
			Weight:   e.Weight.ToBig().String(),
			Leaf:     merkle.Leaf(e.Index, e.Claimant, &e.Weight),
			Proof:    tree.Proof(pos),
		})
	}
	return rep
}

// parseWeight reads a non-negative decimal that fits in 128 bits.
func parseWeight(s string) (*uint256.Int, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Sign() < 0 {
		return nil, fmt.Errorf("weight %q is not a non-negative decimal: %w", s, vaulterr.ErrMalformedInput)
	}
	w, overflow := uint256.FromBig(b)
	if overflow || w[2] != 0 || w[3] != 0 {
		return nil, fmt.Errorf("weight %s: %w", s, vaulterr.ErrArithmeticOverflow)
	}
	return w, nil
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("hash %q: %w", s, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("hash %q has %d bytes, want %d: %w", s, len(b), common.HashLength, vaulterr.ErrMalformedInput)
	}
	return common.BytesToHash(b), nil
}

// readInput decodes a YAML or JSON file into v.
func readInput(path string, v interface{}) error {
	if path == "" {
		return errNoInput
	}
	raw, err := os.ReadFile(resolvePath(path))
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type verifyReport struct {
	Leaf  common.Hash `json:"leaf"`
	Root  common.Hash `json:"computed_root"`
	Valid bool        `json:"valid"`
}

func verifyAction(ctx *cli.Context) error {
	_, log, err := setup(ctx)
	if err != nil {
		return err
	}
	root, err := parseHash(ctx.String("root"))
	if err != nil {
		return fmt.Errorf("--root: %w", err)
	}
	index := ctx.Uint64("index")
	if index > uint64(^uint32(0)) {
		return fmt.Errorf("--index %d: %w", index, vaulterr.ErrMalformedInput)
	}
	claimant, err := solana.PublicKeyFromBase58(ctx.String("claimant"))
	if err != nil {
		return fmt.Errorf("--claimant: %w", err)
	}
	weight, err := parseWeight(ctx.String("weight"))
	if err != nil {
		return fmt.Errorf("--weight: %w", err)
	}
	var proof []common.Hash
	for _, s := range splitCSV(ctx.String("proof")) {
		h, err := parseHash(s)
		if err != nil {
			return fmt.Errorf("--proof: %w", err)
		}
		proof = append(proof, h)
	}
	if len(proof) > inter.MaxProofNodes {
		return fmt.Errorf("proof of %d nodes: %w", len(proof), vaulterr.ErrProofTooLong)
	}

	leaf := merkle.Leaf(uint32(index), claimant, weight)
	rep := verifyReport{Leaf: leaf, Root: merkle.Fold(leaf, proof)}
	rep.Valid = rep.Root == root
	if err := writeJSON(ctx.App.Writer, rep); err != nil {
		return err
	}
	if !rep.Valid {
		log.WithField("index", index).Warn("Proof does not reach the posted root")
		return vaulterr.ErrProofInvalid
	}
	return nil
}
