package loader

import (
	"github.com/sarchlab/tcamsim/bitvec"
	"github.com/sarchlab/tcamsim/emu"
)

// Run is the whole frontend in one call: parse the packet literal and both
// documents, validate the keys against the TCAM's pattern shape, then
// interpret every stage. It returns the final machine state.
func Run(irDoc, configDoc []byte, packetLiteral string) (*emu.MachineState, error) {
	packet, err := bitvec.Parse(packetLiteral)
	if err != nil {
		return nil, parseErrorf("invalid packet literal: %v", err)
	}
	state, err := ParseConfig(configDoc)
	if err != nil {
		return nil, err
	}
	tcam, err := ParseTCAM(irDoc)
	if err != nil {
		return nil, err
	}
	if err := emu.ValidateKeysPatterns(tcam, state); err != nil {
		return nil, err
	}

	interp := emu.NewInterpreter(tcam, state, packet)
	if err := interp.Run(); err != nil {
		return nil, err
	}
	return state, nil
}
