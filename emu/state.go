// Package emu evaluates TCAM programs against a packet. It owns the machine
// state for the duration of a run: the cursor, the stage counter, the data
// stores, and the extracted headers.
package emu

import (
	"github.com/sarchlab/tcamsim/bitvec"
	"github.com/sarchlab/tcamsim/ir"
)

// PacketName is the reserved region name for the immutable input packet.
const PacketName = "packet"

// DataStore is a named mutable bit array with access flags.
type DataStore struct {
	Value bitvec.Vector

	// Read and Write gate location reads and CopyData writes.
	Read  bool
	Write bool

	// Persistent marks stores whose contents are meaningful after the run.
	Persistent bool

	// MaskedWrites leaves unaddressed bits unchanged on partial writes.
	// Without it, a partial write zeroes the rest of the store first.
	MaskedWrites bool
}

// NewDataStore returns a store of the given width with every bit cleared.
func NewDataStore(width int, read, write, persistent, maskedWrites bool) *DataStore {
	return &DataStore{
		Value:        bitvec.Zeroed(width),
		Read:         read,
		Write:        write,
		Persistent:   persistent,
		MaskedWrites: maskedWrites,
	}
}

// MachineState is the mutable state of one interpreter run.
//
// Cursor marks the first unconsumed packet bit; Stage indexes the next TCAM
// table. Both only grow. Headers is append-only; HeaderOrder records the
// extraction order, which is observable in the final report.
type MachineState struct {
	Cursor int
	Stage  int
	Stores map[string]*DataStore
	Keys   []ir.Location

	Headers     map[string]bitvec.Vector
	HeaderOrder []string
}

// NewMachineState returns the initial state for a run: cursor and stage at
// zero, no headers extracted.
func NewMachineState(stores map[string]*DataStore, keys []ir.Location) *MachineState {
	return &MachineState{
		Stores:  stores,
		Keys:    keys,
		Headers: map[string]bitvec.Vector{},
	}
}
