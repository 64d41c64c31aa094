package main

import (
	"os"

	"github.com/skillforge/labtel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
