// Package main is the entry point for the faultline fault-injection proxy.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/faultline/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
