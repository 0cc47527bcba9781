package main

import (
	"os"

	"github.com/mugo-bistro/mugo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
