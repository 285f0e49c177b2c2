package emu

import (
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/tcamsim/bitvec"
	"github.com/sarchlab/tcamsim/ir"
)

// ErrRuntime marks all failures during evaluation: out-of-bounds accesses,
// permission violations, and width mismatches.
var ErrRuntime = errors.New("runtime error")

func runtimeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRuntime, fmt.Sprintf(format, args...))
}

// Interpreter runs one TCAM program over one packet. The TCAM is treated as
// shared-immutable; the machine state is owned and mutated in place.
type Interpreter struct {
	tcam   ir.TCAM
	state  *MachineState
	packet bitvec.Vector
}

// NewInterpreter wires a program, its initial state, and a packet together.
func NewInterpreter(tcam ir.TCAM, state *MachineState, packet bitvec.Vector) *Interpreter {
	return &Interpreter{
		tcam:   tcam,
		state:  state,
		packet: packet,
	}
}

// State returns the machine state the interpreter mutates.
func (i *Interpreter) State() *MachineState {
	return i.state
}

// EvalIntExp evaluates an integer expression in the current state.
func (i *Interpreter) EvalIntExp(e ir.IntExp) (bitvec.SizedInt, error) {
	switch exp := e.(type) {
	case ir.ConstExp:
		return exp.Val, nil
	case ir.LocationExp:
		loc, err := i.EvalLocExp(exp)
		if err != nil {
			return bitvec.SizedInt{}, err
		}
		data, err := i.ReadLocation(loc)
		if err != nil {
			return bitvec.SizedInt{}, err
		}
		value, err := data.Uint()
		if err != nil {
			return bitvec.SizedInt{}, runtimeErrorf(
				"cannot use %s as an integer: %v", loc, err)
		}
		return bitvec.NewSizedInt(value, loc.Length()), nil
	case ir.ArithExp:
		return i.evalArith(exp)
	}
	return bitvec.SizedInt{}, runtimeErrorf("unhandled expression %s", e)
}

func (i *Interpreter) evalArith(e ir.ArithExp) (bitvec.SizedInt, error) {
	left, err := i.EvalIntExp(e.Left)
	if err != nil {
		return bitvec.SizedInt{}, err
	}
	right, err := i.EvalIntExp(e.Right)
	if err != nil {
		return bitvec.SizedInt{}, err
	}

	switch e.Op {
	case ir.OpCast:
		// The cast width was evaluated as the left operand; only its
		// value matters. The lexer guarantees it is positive.
		return bitvec.NewSizedInt(right.Value, int(left.Value)), nil
	case ir.OpPlus:
		sum, err := left.Add(right)
		if err != nil {
			return bitvec.SizedInt{}, runtimeErrorf("cannot evaluate %s: %v", e, err)
		}
		return sum, nil
	case ir.OpMinus:
		diff, err := left.Sub(right)
		if err != nil {
			return bitvec.SizedInt{}, runtimeErrorf("cannot evaluate %s: %v", e, err)
		}
		return diff, nil
	case ir.OpLShift:
		return left.Lsh(right), nil
	case ir.OpRShift:
		return left.Rsh(right), nil
	}
	return bitvec.SizedInt{}, runtimeErrorf("unhandled operator in %s", e)
}

// EvalLocExp resolves a location expression's bounds against the state.
func (i *Interpreter) EvalLocExp(e ir.LocationExp) (ir.Location, error) {
	start, err := i.EvalIntExp(e.Start)
	if err != nil {
		return ir.Location{}, err
	}
	end, err := i.EvalIntExp(e.End)
	if err != nil {
		return ir.Location{}, err
	}
	if start.Value > end.Value {
		return ir.Location{}, runtimeErrorf(
			"location expression %s has start position %d later than end position %d",
			e, start.Value, end.Value)
	}
	if end.Value > math.MaxInt32 {
		return ir.Location{}, runtimeErrorf(
			"location expression %s has end position %d out of range", e, end.Value)
	}
	return ir.Location{Name: e.Name, Start: int(start.Value), End: int(end.Value)}, nil
}

// ReadLocation reads the bit range loc names. Packet locations are relative
// to the cursor: the read covers packet[cursor+start ..= cursor+end].
func (i *Interpreter) ReadLocation(loc ir.Location) (bitvec.Vector, error) {
	if loc.Name == PacketName {
		if i.state.Cursor+loc.End+1 > i.packet.Len() {
			return bitvec.Vector{}, runtimeErrorf(
				"attempt to read %s in stage %d goes beyond end of packet:"+
					" current cursor value is %d, packet length is %d",
				loc, i.state.Stage, i.state.Cursor, i.packet.Len())
		}
		data, err := i.packet.Slice(i.state.Cursor+loc.Start, i.state.Cursor+loc.End)
		if err != nil {
			return bitvec.Vector{}, runtimeErrorf("attempt to read %s failed: %v", loc, err)
		}
		return data, nil
	}

	store, ok := i.state.Stores[loc.Name]
	if !ok {
		return bitvec.Vector{}, runtimeErrorf(
			"attempt to read %s failed: no store named %q", loc, loc.Name)
	}
	if !store.Read {
		return bitvec.Vector{}, runtimeErrorf(
			"attempt to read %s failed: %s is not readable", loc, loc.Name)
	}
	if loc.Length() > store.Value.Len() {
		return bitvec.Vector{}, runtimeErrorf(
			"attempt to read %s failed: %s only has %d bits",
			loc, loc.Name, store.Value.Len())
	}
	data, err := store.Value.Slice(loc.Start, loc.End)
	if err != nil {
		return bitvec.Vector{}, runtimeErrorf("attempt to read %s failed: %v", loc, err)
	}
	return data, nil
}
