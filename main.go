package main

import (
	"os"

	"github.com/otto-edu/otto/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
