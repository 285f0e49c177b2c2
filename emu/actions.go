package emu

import (
	"fmt"

	"github.com/sarchlab/tcamsim/ir"
)

// ApplyAction applies a single action to the machine state.
func (i *Interpreter) ApplyAction(a ir.Action) error {
	switch act := a.(type) {
	case ir.MoveCursor:
		return i.applyMove(act)
	case ir.ExtractHeader:
		return i.applyExtract(act)
	case ir.CopyData:
		return i.applyCopy(act)
	}
	return runtimeErrorf("unhandled action %s", a)
}

func (i *Interpreter) applyMove(act ir.MoveCursor) error {
	n, err := i.EvalIntExp(act.NumBits)
	if err != nil {
		return err
	}
	remaining := uint64(i.packet.Len() - i.state.Cursor)
	if n.Value > remaining {
		return runtimeErrorf(
			"attempt to move cursor %d bits in stage %d goes beyond end of packet:"+
				" current cursor value is %d, packet length is %d",
			n.Value, i.state.Stage, i.state.Cursor, i.packet.Len())
	}
	i.state.Cursor += int(n.Value)
	return nil
}

func (i *Interpreter) applyExtract(act ir.ExtractHeader) error {
	if act.Loc.Name != PacketName {
		return runtimeErrorf(
			"error while attempting to extract header %q:"+
				" extraction must always come from the packet", act.ID)
	}
	if _, ok := i.state.Headers[act.ID]; ok {
		return runtimeErrorf(
			"error while attempting to extract header %q:"+
				" a header with this name was already extracted", act.ID)
	}
	loc, err := i.EvalLocExp(act.Loc)
	if err != nil {
		return err
	}
	data, err := i.ReadLocation(loc)
	if err != nil {
		return err
	}
	i.state.Headers[act.ID] = data
	i.state.HeaderOrder = append(i.state.HeaderOrder, act.ID)
	return nil
}

func (i *Interpreter) applyCopy(act ir.CopyData) error {
	value, err := i.EvalIntExp(act.Src)
	if err != nil {
		return err
	}
	dst, err := i.EvalLocExp(act.Dst)
	if err != nil {
		return err
	}

	errf := func(format string, args ...any) error {
		return runtimeErrorf("error copying %s to %s: %s",
			act.Src, dst, fmt.Sprintf(format, args...))
	}

	if dst.Name == PacketName {
		return errf("cannot write to packet")
	}
	if value.Width != dst.Length() {
		return errf("value has length %d, while destination has length %d",
			value.Width, dst.Length())
	}
	store, ok := i.state.Stores[dst.Name]
	if !ok {
		return errf("no such destination store")
	}
	if !store.Write {
		return errf("destination is not writeable")
	}
	if dst.End >= store.Value.Len() {
		return errf("write ends at bit %d, but store %q only has %d bits",
			dst.End, dst.Name, store.Value.Len())
	}

	if !store.MaskedWrites {
		store.Value.ZeroAll()
	}
	if err := store.Value.WriteSlice(dst.Start, dst.End, value.Bits()); err != nil {
		return errf("%v", err)
	}
	return nil
}
