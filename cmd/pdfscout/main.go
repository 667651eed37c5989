package main

import (
	"os"
)

var (
	version   = "dev"     // set by build flags
	gitCommit = "unknown" // set by build flags
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
