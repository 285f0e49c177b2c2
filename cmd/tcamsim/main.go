// Package main provides the entry point for tcamsim.
// Tcamsim interprets IR programs for an abstract TCAM state machine that
// models programmable packet parsers.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/sarchlab/tcamsim/emu"
	"github.com/sarchlab/tcamsim/loader"
)

var verbose = flag.Bool("v", false, "Verbose output")

func main() {
	flag.Parse()

	if flag.NArg() < 3 {
		fmt.Fprintf(os.Stderr, "Usage: tcamsim [options] <ir.json> <config.json> <packet>\n")
		fmt.Fprintf(os.Stderr, "\nThe packet is a bit string literal, e.g. 0xabcdef01 or 0b1101.\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	irPath := flag.Arg(0)
	configPath := flag.Arg(1)
	packetLiteral := flag.Arg(2)

	irDoc, err := os.ReadFile(irPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading IR file: %v\n", err)
		os.Exit(1)
	}
	configDoc, err := os.ReadFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("IR: %s\n", irPath)
		fmt.Printf("Config: %s\n", configPath)
		fmt.Printf("Packet: %s\n", packetLiteral)
	}

	state, err := loader.Run(irDoc, configDoc, packetLiteral)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printState(state)
}

// printState reports the final machine state: cursor, stage, headers in
// extraction order, and every store's contents.
func printState(state *emu.MachineState) {
	fmt.Printf("cursor: %d\n", state.Cursor)
	fmt.Printf("stage: %d\n", state.Stage)

	fmt.Printf("headers:\n")
	for _, name := range state.HeaderOrder {
		fmt.Printf("  %s = %s\n", name, state.Headers[name])
	}

	names := make([]string, 0, len(state.Stores))
	for name := range state.Stores {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("stores:\n")
	for _, name := range names {
		store := state.Stores[name]
		tag := ""
		if store.Persistent {
			tag = " (persistent)"
		}
		fmt.Printf("  %s = %s%s\n", name, store.Value, tag)
	}
}
