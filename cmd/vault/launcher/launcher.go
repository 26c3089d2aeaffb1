package launcher

import (
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/interest-vault/flags"
)

var app = newApp()

func newApp() *cli.App {
	app := flags.NewApp()
	app.Commands = []cli.Command{
		{
			Name:      "tree",
			Usage:     "Build a boost merkle tree and print its root, total weight and proofs",
			ArgsUsage: "--input weights.json",
			Flags:     flags.TreeFlags(),
			Action:    treeAction,
		},
		{
			Name:   "verify",
			Usage:  "Check a claim proof against a posted root",
			Flags:  flags.VerifyFlags(),
			Action: verifyAction,
		},
		{
			Name:      "simulate",
			Usage:     "Run a scripted vault scenario against an in-memory host",
			ArgsUsage: "--input scenario.json",
			Flags:     flags.SimulateFlags(),
			Action:    simulateAction,
		},
	}
	return app
}

// Launch parses args and runs the selected command.
func Launch(args []string) error {
	return app.Run(args)
}

// setup resolves the configuration and logger shared by every command.
func setup(ctx *cli.Context) (Config, *logrus.Logger, error) {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return cfg, nil, err
	}
	errOut := ctx.App.ErrWriter
	if errOut == nil {
		errOut = os.Stderr
	}
	log, err := makeLogger(cfg, errOut)
	return cfg, log, err
}
