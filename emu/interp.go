package emu

import (
	"github.com/sarchlab/tcamsim/bitvec"
	"github.com/sarchlab/tcamsim/ir"
)

// Step runs one TCAM stage: read the keys, match them against the stage's
// table, apply the matched rule's actions, and advance the stage counter.
// Cursor moves apply after all other actions, so the stage's extractions
// and copies read the packet relative to the cursor as it stood when the
// stage began.
func (i *Interpreter) Step() error {
	if i.state.Stage >= len(i.tcam) {
		return nil
	}
	table := i.tcam[i.state.Stage]

	actions, err := i.matchTable(table)
	if err != nil {
		return err
	}

	var moves []ir.Action
	for _, a := range actions {
		if _, ok := a.(ir.MoveCursor); ok {
			moves = append(moves, a)
			continue
		}
		if err := i.ApplyAction(a); err != nil {
			return err
		}
	}
	for _, a := range moves {
		if err := i.ApplyAction(a); err != nil {
			return err
		}
	}

	i.state.Stage++
	return nil
}

// Run steps through stages until none remain.
func (i *Interpreter) Run() error {
	for i.state.Stage < len(i.tcam) {
		if err := i.Step(); err != nil {
			return err
		}
	}
	return nil
}

// matchTable returns the action set of the first rule whose patterns all
// match the current key values, or nil when no rule matches. Keys read
// their stores directly, bypassing the read flag.
func (i *Interpreter) matchTable(table ir.Table) ([]ir.Action, error) {
	keys := make([]bitvec.Vector, len(i.state.Keys))
	for idx, loc := range i.state.Keys {
		store, ok := i.state.Stores[loc.Name]
		if !ok {
			return nil, runtimeErrorf("key %s names no data store", loc)
		}
		value, err := store.Value.Slice(loc.Start, loc.End)
		if err != nil {
			return nil, runtimeErrorf("key %s: %v", loc, err)
		}
		keys[idx] = value
	}

	for _, rule := range table {
		if len(rule.Patterns) != len(keys) {
			return nil, runtimeErrorf(
				"rule has %d patterns but the machine has %d keys",
				len(rule.Patterns), len(keys))
		}
		matched := true
		for pi, pat := range rule.Patterns {
			ok, err := pat.Matches(keys[pi])
			if err != nil {
				return nil, runtimeErrorf("pattern %s: %v", pat, err)
			}
			if !ok {
				matched = false
				break
			}
		}
		if matched {
			return rule.Actions, nil
		}
	}
	return nil, nil
}

// ValidateKeysPatterns checks, before a run, that the configured keys agree
// with the TCAM's pattern shape: one key per pattern, each as wide as the
// corresponding pattern of the first rule. The loader has already ensured
// every other rule shares that shape.
func ValidateKeysPatterns(tcam ir.TCAM, state *MachineState) error {
	if len(tcam) == 0 || len(tcam[0]) == 0 {
		return runtimeErrorf("the TCAM has no rules to define the pattern shape")
	}
	first := tcam[0][0].Patterns
	if len(first) != len(state.Keys) {
		return runtimeErrorf(
			"key-pattern mismatch: the config defines %d keys, but the TCAM rules"+
				" have %d patterns", len(state.Keys), len(first))
	}
	for idx, key := range state.Keys {
		if key.Length() != first[idx].Value.Len() {
			return runtimeErrorf(
				"key-pattern mismatch: key %s has length %d, but the corresponding"+
					" pattern in the TCAM has length %d",
				key, key.Length(), first[idx].Value.Len())
		}
	}
	return nil
}
