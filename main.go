package main

import (
	"os"

	"github.com/jmcampanini/ghui/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
