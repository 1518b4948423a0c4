package main

import (
	"os"

	"github.com/walma-app/walma/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
