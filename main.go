package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jesspatton/lazyspec/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrTestsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
