package main

import (
	"fmt"
	"os"

	"github.com/rony4d/interest-vault/cmd/vault/launcher"
)

func main() {

	// Hand the full argument list to the launcher and report any failure.
	if err := launcher.Launch(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		// Exit with a non-zero status code to indicate failure
		os.Exit(1)
	}
}
