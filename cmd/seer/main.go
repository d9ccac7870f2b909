package main

import (
	"os"

	"github.com/dle9/seer/cmd/seer/cmds"
)

func main() {
	if err := cmds.New(false).Execute(); err != nil {
		os.Exit(1)
	}
}
