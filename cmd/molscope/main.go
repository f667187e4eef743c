// Command molscope builds ball-and-stick scenes from MDL structure records.
package main

import (
	"os"

	"github.com/turtacn/molscope/internal/interfaces/cli"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = gitCommit
	cli.BuildDate = buildDate

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
