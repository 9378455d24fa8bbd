package main

import (
	"fmt"
	"os"

	"logmerge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "logmerge: %v\n", err)
		os.Exit(cmd.ExitCode(err))
	}
}
