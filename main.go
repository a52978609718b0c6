package main

import (
	"os"

	"github.com/mwhite-hr/reqflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
