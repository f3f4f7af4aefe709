package state

import (
	"encoding/json"
	"fmt"
	"log"
)

// FormatVersion tags records written by this build.
const FormatVersion = "rosette-1.0"

// Record is the persisted form of a document: the live settings and the
// committed actions. Snapshots are never persisted; they are rebuilt on load.
type Record struct {
	Version  string   `json:"version"`
	Settings Settings `json:"settings"`
	Actions  []Action `json:"actions"`
}

// NewRecord captures s for saving. Undone actions past the cursor are left out.
func NewRecord(s State) Record {
	committed := s.Committed()
	actions := make([]Action, len(committed))
	for i, a := range committed {
		actions[i] = a.Clone()
	}
	return Record{Version: FormatVersion, Settings: s.Settings, Actions: actions}
}

// Marshal encodes the record the way it is written to disk.
func (r Record) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}

// Loaded is a parsed record before it is merged into the live state.
// Settings keeps raw values so each one is validated individually.
type Loaded struct {
	Version  string
	Settings map[string]any
	Actions  []Action
	// Dropped counts actions that were present but could not be replayed.
	Dropped int
}

// ParseRecord decodes a saved record. The document must be an object with a
// settings object and an actions array; anything else is rejected before the
// live document is touched. Malformed actions are skipped and counted rather
// than failing the load.
func ParseRecord(data []byte) (Loaded, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return Loaded{}, fmt.Errorf("%w: document is not an object", ErrInvalidRecord)
	}

	var out Loaded
	if raw, ok := top["version"]; ok {
		// An unreadable version is not fatal; older files carry other tags.
		_ = json.Unmarshal(raw, &out.Version)
	}

	raw, ok := top["settings"]
	if !ok || isNull(raw) {
		return Loaded{}, fmt.Errorf("%w: settings is missing", ErrInvalidRecord)
	}
	if err := json.Unmarshal(raw, &out.Settings); err != nil || out.Settings == nil {
		return Loaded{}, fmt.Errorf("%w: settings is not an object", ErrInvalidRecord)
	}
	for key, v := range out.Settings {
		if _, err := (Settings{}).With(key, v); err != nil {
			log.Printf("[store] ignoring setting %s: %v", key, err)
			delete(out.Settings, key)
		}
	}

	raw, ok = top["actions"]
	if !ok || isNull(raw) {
		return Loaded{}, fmt.Errorf("%w: actions is missing", ErrInvalidRecord)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return Loaded{}, fmt.Errorf("%w: actions is not an array", ErrInvalidRecord)
	}
	out.Actions = make([]Action, 0, len(items))
	for i, item := range items {
		var a Action
		if err := json.Unmarshal(item, &a); err != nil {
			log.Printf("[store] dropping action %d: %v", i, err)
			out.Dropped++
			continue
		}
		if err := a.Validate(); err != nil {
			log.Printf("[store] dropping action %d: %v", i, err)
			out.Dropped++
			continue
		}
		out.Actions = append(out.Actions, a)
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
