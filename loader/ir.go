// Package loader builds typed TCAM programs and initial machine states from
// JSON documents.
package loader

import (
	"encoding/json"
	"fmt"

	"github.com/sarchlab/tcamsim/ir"
)

func parseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ir.ErrParse, fmt.Sprintf(format, args...))
}

// ruleDoc is the JSON shape of one TCAM rule. Pointer fields distinguish
// missing fields from zero values; unknown fields are silently ignored.
type ruleDoc struct {
	Table    *int                 `json:"table"`
	Rule     *int                 `json:"rule"`
	Patterns *[]string            `json:"patterns"`
	Actions  *[]map[string]string `json:"actions"`
}

// ParseTCAM decodes an IR document into a TCAM and validates the pattern
// shape invariant across every rule.
func ParseTCAM(doc []byte) (ir.TCAM, error) {
	var tables []json.RawMessage
	if err := json.Unmarshal(doc, &tables); err != nil {
		return nil, parseErrorf("an IR document must be a list of tables: %v", err)
	}

	parser := ir.NewParser()
	tcam := make(ir.TCAM, 0, len(tables))
	for tableIdx, rawTable := range tables {
		var rules []json.RawMessage
		if err := json.Unmarshal(rawTable, &rules); err != nil {
			return nil, parseErrorf(
				"table %d: each table must be a list of rules: %v", tableIdx, err)
		}
		table := make(ir.Table, 0, len(rules))
		for ruleIdx, rawRule := range rules {
			rule, err := parseRule(parser, tableIdx, ruleIdx, rawRule)
			if err != nil {
				return nil, err
			}
			table = append(table, rule)
		}
		tcam = append(tcam, table)
	}

	if err := validateShape(tcam); err != nil {
		return nil, err
	}
	return tcam, nil
}

func parseRule(parser *ir.Parser, tableIdx, ruleIdx int, raw json.RawMessage) (ir.Rule, error) {
	errf := func(format string, args ...any) error {
		return parseErrorf("error parsing rule %d in table %d: %s",
			ruleIdx, tableIdx, fmt.Sprintf(format, args...))
	}

	var doc ruleDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ir.Rule{}, errf(
			"rules are expected to be objects with 'patterns' and 'actions'"+
				" fields, as well as 'table' and 'rule' fields: %v", err)
	}
	if doc.Table == nil || doc.Rule == nil || doc.Patterns == nil || doc.Actions == nil {
		return ir.Rule{}, errf(
			"rules are expected to be objects with 'patterns' and 'actions'" +
				" fields, as well as 'table' and 'rule' fields")
	}
	if *doc.Table != tableIdx || *doc.Rule != ruleIdx {
		return ir.Rule{}, errf(
			"annotation is for rule %d in table %d", *doc.Rule, *doc.Table)
	}

	patterns := make([]ir.Pattern, 0, len(*doc.Patterns))
	for _, s := range *doc.Patterns {
		pat, err := ir.ParsePattern(s)
		if err != nil {
			return ir.Rule{}, fmt.Errorf(
				"error parsing rule %d in table %d: %w", ruleIdx, tableIdx, err)
		}
		patterns = append(patterns, pat)
	}

	actions := make([]ir.Action, 0, len(*doc.Actions))
	for _, fields := range *doc.Actions {
		a, err := parseAction(parser, fields)
		if err != nil {
			return ir.Rule{}, fmt.Errorf(
				"error parsing rule %d in table %d: %w", ruleIdx, tableIdx, err)
		}
		actions = append(actions, a)
	}

	return ir.Rule{Patterns: patterns, Actions: ir.NewActionSet(actions)}, nil
}

// parseAction dispatches on the action's type field. Fields beyond the ones
// an action type needs are silently ignored.
func parseAction(parser *ir.Parser, fields map[string]string) (ir.Action, error) {
	errf := func(format string, args ...any) error {
		return parseErrorf("error parsing action %v: %s",
			fields, fmt.Sprintf(format, args...))
	}

	typ, ok := fields["type"]
	if !ok {
		return nil, errf("actions are expected to have a 'type' field")
	}
	switch typ {
	case "MoveCursor":
		numbits, ok := fields["numbits"]
		if !ok {
			return nil, errf("move actions are expected to have a 'numbits' field")
		}
		e, err := parser.ParseIntExp(numbits)
		if err != nil {
			return nil, fmt.Errorf("error parsing action %v: %w", fields, err)
		}
		return ir.MoveCursor{NumBits: e}, nil

	case "CopyData":
		src, okSrc := fields["src"]
		dst, okDst := fields["dst"]
		if !okSrc || !okDst {
			return nil, errf("copy actions are expected to have 'src' and 'dst' fields")
		}
		srcExp, err := parser.ParseIntExp(src)
		if err != nil {
			return nil, fmt.Errorf("error parsing action %v: %w", fields, err)
		}
		dstExp, err := parser.ParseLocExp(dst)
		if err != nil {
			return nil, fmt.Errorf("error parsing action %v: %w", fields, err)
		}
		return ir.CopyData{Src: srcExp, Dst: dstExp}, nil

	case "ExtractHeader":
		id, okID := fields["id"]
		loc, okLoc := fields["loc"]
		if !okID || !okLoc {
			return nil, errf("extract actions are expected to have 'id' and 'loc' fields")
		}
		locExp, err := parser.ParseLocExp(loc)
		if err != nil {
			return nil, fmt.Errorf("error parsing action %v: %w", fields, err)
		}
		return ir.ExtractHeader{ID: id, Loc: locExp}, nil
	}

	return nil, errf("invalid action type %q; expected 'MoveCursor', 'CopyData',"+
		" or 'ExtractHeader'", typ)
}

// validateShape enforces that every rule's pattern widths match the first
// rule of the first table, pairwise in order.
func validateShape(tcam ir.TCAM) error {
	var ref []ir.Pattern
	if len(tcam) > 0 && len(tcam[0]) > 0 {
		ref = tcam[0][0].Patterns
	} else {
		for _, table := range tcam {
			if len(table) > 0 {
				return parseErrorf(
					"the first table has no rules to define the pattern shape")
			}
		}
		return nil
	}

	for tableIdx, table := range tcam {
		for ruleIdx, rule := range table {
			if !sameShape(rule.Patterns, ref) {
				return parseErrorf(
					"all rules must have the same pattern shape: rule %d in table %d"+
						" differs from the first rule of the TCAM", ruleIdx, tableIdx)
			}
		}
	}
	return nil
}

func sameShape(patterns, ref []ir.Pattern) bool {
	if len(patterns) != len(ref) {
		return false
	}
	for i := range patterns {
		if patterns[i].Value.Len() != ref[i].Value.Len() {
			return false
		}
	}
	return true
}
