// Package ir defines the typed representation of TCAM programs: integer and
// location expressions, ternary match patterns, actions, rules, and tables,
// together with the decoders that build them from their string forms.
//
// Expression and action types are closed sums implemented as value types, so
// two trees compare equal exactly when they are structurally identical. Rule
// construction relies on that to deduplicate action sets.
package ir

import (
	"errors"
	"fmt"

	"github.com/sarchlab/tcamsim/bitvec"
)

// ErrParse marks all lexing, parsing, and document validation failures.
var ErrParse = errors.New("parse error")

func parseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

// ArithOp enumerates the arithmetic operators of the expression language.
type ArithOp int

const (
	OpPlus ArithOp = iota
	OpMinus
	OpLShift
	OpRShift
	OpCast
)

func (op ArithOp) String() string {
	switch op {
	case OpPlus:
		return "+"
	case OpMinus:
		return "-"
	case OpLShift:
		return "<<"
	case OpRShift:
		return ">>"
	case OpCast:
		return "cast"
	}
	return "?"
}

// IntExp is an integer-valued expression: a constant, a location read, or an
// arithmetic operation.
type IntExp interface {
	fmt.Stringer
	isIntExp()
}

// ConstExp is an integer literal with its declared width.
type ConstExp struct {
	Val bitvec.SizedInt
}

// LocationExp names a bit range in a store or the packet. Its bounds are
// expressions that resolve against the machine state at evaluation time.
type LocationExp struct {
	Name  string
	Start IntExp
	End   IntExp
}

// ArithExp applies Op to Left and Right. For OpCast, Left holds the target
// width as a constant and Right is the expression being cast.
type ArithExp struct {
	Op    ArithOp
	Left  IntExp
	Right IntExp
}

func (ConstExp) isIntExp()    {}
func (LocationExp) isIntExp() {}
func (ArithExp) isIntExp()    {}

func (e ConstExp) String() string {
	return e.Val.String()
}

func (e LocationExp) String() string {
	return fmt.Sprintf("%s[%s:%s]", e.Name, e.Start, e.End)
}

func (e ArithExp) String() string {
	if e.Op == OpCast {
		if c, ok := e.Left.(ConstExp); ok {
			return fmt.Sprintf("(w%d)%s", c.Val.Value, e.Right)
		}
	}
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

// Location is a resolved bit range, inclusive on both ends.
type Location struct {
	Name  string
	Start int
	End   int
}

// Length returns the number of bits the location covers.
func (l Location) Length() int {
	return l.End - l.Start + 1
}

func (l Location) String() string {
	return fmt.Sprintf("%s[%d:%d]", l.Name, l.Start, l.End)
}

// Pattern is a ternary match pattern: a key matches when it agrees with
// Value on every bit set in Mask.
type Pattern struct {
	Value bitvec.Vector
	Mask  bitvec.Vector
}

// Matches reports whether key satisfies the pattern. The key must be as wide
// as the pattern; the loaders establish that invariant before a run.
func (p Pattern) Matches(key bitvec.Vector) (bool, error) {
	maskedKey, err := key.And(p.Mask)
	if err != nil {
		return false, err
	}
	maskedValue, err := p.Value.And(p.Mask)
	if err != nil {
		return false, err
	}
	return maskedKey.Equal(maskedValue), nil
}

func (p Pattern) String() string {
	return fmt.Sprintf("{value: %s, mask: %s}", p.Value, p.Mask)
}

// Action is one of the three machine actions. Implementations are value
// types; two actions are equal iff they are structurally identical.
type Action interface {
	fmt.Stringer
	isAction()
}

// MoveCursor advances the packet cursor by NumBits.
type MoveCursor struct {
	NumBits IntExp
}

// CopyData writes the value of Src into the Dst range of a data store.
type CopyData struct {
	Src IntExp
	Dst LocationExp
}

// ExtractHeader reads Loc from the packet and records it under ID.
type ExtractHeader struct {
	ID  string
	Loc LocationExp
}

func (MoveCursor) isAction()    {}
func (CopyData) isAction()      {}
func (ExtractHeader) isAction() {}

func (a MoveCursor) String() string {
	return fmt.Sprintf("MoveCursor(%s)", a.NumBits)
}

func (a CopyData) String() string {
	return fmt.Sprintf("CopyData(%s, %s)", a.Src, a.Dst)
}

func (a ExtractHeader) String() string {
	return fmt.Sprintf("ExtractHeader(%s, %s)", a.ID, a.Loc)
}

// Rule pairs an ordered pattern list with a deduplicated action set. Pattern
// order pairs with key order; rule order within a table decides matches.
type Rule struct {
	Patterns []Pattern
	Actions  []Action
}

// Table is an ordered rule list; the first matching rule wins.
type Table []Rule

// TCAM is a whole program: one table per stage.
type TCAM []Table

// NewActionSet deduplicates actions, keeping first-occurrence order so a
// matched rule's side effects apply deterministically.
func NewActionSet(actions []Action) []Action {
	seen := make(map[Action]struct{}, len(actions))
	var set []Action
	for _, a := range actions {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		set = append(set, a)
	}
	return set
}
