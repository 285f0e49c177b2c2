package loader

import (
	"encoding/json"

	"github.com/sarchlab/tcamsim/emu"
	"github.com/sarchlab/tcamsim/ir"
)

// storeDoc is the JSON shape of one data store entry. Pointer fields
// distinguish missing fields from zero values.
type storeDoc struct {
	Name         *string `json:"name"`
	Width        *int    `json:"width"`
	Read         *bool   `json:"read"`
	Write        *bool   `json:"write"`
	Persistent   *bool   `json:"persistent"`
	MaskedWrites *bool   `json:"masked-writes"`
}

type configDoc struct {
	DataStores *[]json.RawMessage `json:"data stores"`
	Keys       *[]string          `json:"keys"`
}

// ParseConfig decodes a hardware configuration document into the initial
// machine state: zeroed stores, constant keys, cursor and stage at zero.
// When a store name appears twice, the last definition wins.
func ParseConfig(doc []byte) (*emu.MachineState, error) {
	var cfg configDoc
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return nil, parseErrorf(
			"configuration files should have an object at top level, with a list"+
				" of data stores and a list of string keys: %v", err)
	}
	if cfg.DataStores == nil {
		return nil, parseErrorf("no 'data stores' field in configuration")
	}
	if cfg.Keys == nil {
		return nil, parseErrorf("no 'keys' field in configuration")
	}
	if len(*cfg.Keys) == 0 {
		return nil, parseErrorf("'keys' field should be nonempty")
	}

	stores := make(map[string]*emu.DataStore, len(*cfg.DataStores))
	for _, raw := range *cfg.DataStores {
		name, store, err := parseDataStore(raw)
		if err != nil {
			return nil, err
		}
		stores[name] = store
	}

	parser := ir.NewParser()
	keys := make([]ir.Location, 0, len(*cfg.Keys))
	for _, key := range *cfg.Keys {
		loc, err := parseKey(parser, key)
		if err != nil {
			return nil, err
		}
		keys = append(keys, loc)
	}

	return emu.NewMachineState(stores, keys), nil
}

func parseDataStore(raw json.RawMessage) (string, *emu.DataStore, error) {
	var doc storeDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", nil, parseErrorf("error parsing data store %s: %v", raw, err)
	}
	switch {
	case doc.Name == nil:
		return "", nil, parseErrorf("error parsing data store %s: expected to find 'name' field", raw)
	case doc.Width == nil:
		return "", nil, parseErrorf("error parsing data store %s: expected to find 'width' field", raw)
	case doc.Read == nil:
		return "", nil, parseErrorf("error parsing data store %s: expected to find 'read' field", raw)
	case doc.Write == nil:
		return "", nil, parseErrorf("error parsing data store %s: expected to find 'write' field", raw)
	case doc.Persistent == nil:
		return "", nil, parseErrorf("error parsing data store %s: expected to find 'persistent' field", raw)
	case doc.MaskedWrites == nil:
		return "", nil, parseErrorf("error parsing data store %s: expected to find 'masked-writes' field", raw)
	}
	if *doc.Width <= 0 {
		return "", nil, parseErrorf(
			"error parsing data store %s: 'width' must be positive", raw)
	}
	store := emu.NewDataStore(
		*doc.Width, *doc.Read, *doc.Write, *doc.Persistent, *doc.MaskedWrites)
	return *doc.Name, store, nil
}

// parseKey parses a key string as a location expression and requires both
// bounds to be integer literals with start at or before end.
func parseKey(parser *ir.Parser, key string) (ir.Location, error) {
	locexp, err := parser.ParseLocExp(key)
	if err != nil {
		return ir.Location{}, parseErrorf(
			"failure while parsing key %q: each key should be a location: %v", key, err)
	}
	start, ok := locexp.Start.(ir.ConstExp)
	if !ok {
		return ir.Location{}, parseErrorf(
			"failure while parsing key %q: each key should start at a simple"+
				" integer index", key)
	}
	end, ok := locexp.End.(ir.ConstExp)
	if !ok {
		return ir.Location{}, parseErrorf(
			"failure while parsing key %q: each key should end at a simple"+
				" integer index", key)
	}
	if start.Val.Value > end.Val.Value {
		return ir.Location{}, parseErrorf(
			"failure while parsing key %q: start index is greater than end index", key)
	}
	return ir.Location{
		Name:  locexp.Name,
		Start: int(start.Val.Value),
		End:   int(end.Val.Value),
	}, nil
}
