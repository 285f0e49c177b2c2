// Package main provides the entry point for tcamsim.
// Tcamsim is an interpreter for an abstract TCAM state machine used to model
// programmable packet parsers.
//
// For the full CLI, use: go run ./cmd/tcamsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("tcamsim - Abstract TCAM state machine interpreter")
	fmt.Println("")
	fmt.Println("Usage: tcamsim [options] <ir.json> <config.json> <packet>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tcamsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tcamsim' instead.")
	}
}
