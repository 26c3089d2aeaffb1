package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// VaultFlags holds the deployment parameters simulations run with.

func VaultFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "preset",
			Usage: "Deployment preset (default|usdc|boost-heavy)",
			Value: "default",
		},
		cli.StringFlag{
			Name:  "program",
			Usage: "Vault program id (base58) the authority address derives under",
		},
		cli.IntFlag{
			Name:  "base.decimals",
			Usage: "Decimals of the base token mint",
			Value: 6,
		},
		cli.IntFlag{
			Name:  "share.decimals",
			Usage: "Decimals of the share mint",
			Value: 6,
		},
		cli.IntFlag{
			Name:  "payout.decimals",
			Usage: "Decimals boost payouts are transferred with",
			Value: 6,
		},
		cli.IntFlag{
			Name:  "boost.bps",
			Usage: "Default share of a donation routed to the boost pool, in basis points",
			Value: 0,
		},
	}
}

// TreeFlags configures the tree command.
func TreeFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "input",
			Usage: "Weights file (YAML or JSON list of index, claimant, weight)",
		},
	}
}

// VerifyFlags configures the verify command.
func VerifyFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "root",
			Usage: "Posted merkle root (0x-prefixed hex)",
		},
		cli.Uint64Flag{
			Name:  "index",
			Usage: "Claim index of the leaf",
		},
		cli.StringFlag{
			Name:  "claimant",
			Usage: "Claimant address (base58)",
		},
		cli.StringFlag{
			Name:  "weight",
			Usage: "Claim weight (decimal)",
		},
		cli.StringFlag{
			Name:  "proof",
			Usage: "Comma-separated sibling hashes, leaf to root",
		},
	}
}

// SimulateFlags configures the simulate command.
func SimulateFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "input",
			Usage: "Scenario file (YAML or JSON)",
		},
	}
}
