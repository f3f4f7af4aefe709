package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSavesCommittedOnly(t *testing.T) {
	r := Reducer{}
	s := seeded(t, r)
	s = commit(t, r, s, line("a"), 1)
	s = commit(t, r, s, line("b"), 2)
	s, err := r.Reduce(s, Undo{})
	require.NoError(t, err)

	rec := NewRecord(s)
	assert.Equal(t, FormatVersion, rec.Version)
	assert.Equal(t, []string{"a"}, ids(rec.Actions))
}

func TestRecordRoundTrip(t *testing.T) {
	r := Reducer{}
	s := seeded(t, r)
	s.Settings.RotationOrder = 6
	s.Settings.ReflectionEnabled = true
	s.Settings.Color = "#ff8800"
	free := Action{ID: "f", Tool: ToolFreehand, Color: "#ff8800", LineWidth: 5, StartX: 3, StartY: 4, EndX: 9, EndY: 9,
		Path: []Point{{X: 3, Y: 4}, {X: 6, Y: 6}, {X: 9, Y: 9}}}
	s = commit(t, r, s, free, 1)
	s = commit(t, r, s, line("l"), 2)

	data, err := NewRecord(s).Marshal()
	require.NoError(t, err)

	loaded, err := ParseRecord(data)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, loaded.Version)
	assert.Zero(t, loaded.Dropped)
	assert.Equal(t, s.Committed(), loaded.Actions)

	out, err := r.Reduce(Initial(""), LoadSuccess{Record: loaded})
	require.NoError(t, err)
	assert.Equal(t, s.Settings, out.Settings)
	assert.Equal(t, s.Committed(), out.Actions)
}

func TestParseRecordShape(t *testing.T) {
	for _, doc := range []string{
		`[]`,
		`"hello"`,
		`null`,
		`{"settings": [1, 2]}`,
		`{"settings": {}, "actions": {"tool": "line"}}`,
		`not json`,
		`{}`,
		`{"version": "x"}`,
		`{"actions": []}`,
		`{"settings": {}}`,
		`{"settings": null, "actions": []}`,
		`{"settings": {}, "actions": null}`,
	} {
		_, err := ParseRecord([]byte(doc))
		assert.ErrorIs(t, err, ErrInvalidRecord, doc)
	}

	loaded, err := ParseRecord([]byte(`{"settings": {}, "actions": []}`))
	require.NoError(t, err)
	assert.Empty(t, loaded.Actions)
	assert.Empty(t, loaded.Settings)
}

func TestParseRecordDropsMalformedActions(t *testing.T) {
	doc := `{
		"version": "react-1.0",
		"settings": {"rotationOrder": 8, "reflectionEnabled": true, "lineWidth": "wide", "color": "#00ff00"},
		"actions": [
			{"tool": "line", "color": "#000", "lineWidth": 2, "startX": 0, "startY": 0, "endX": 10, "endY": 10},
			{"tool": "freehand", "color": "#000", "lineWidth": 2},
			{"tool": 7},
			"junk",
			{"tool": "filledOval", "color": "#f00", "lineWidth": 3, "startX": 5, "startY": 5, "endX": 5, "endY": 5}
		]
	}`
	loaded, err := ParseRecord([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "react-1.0", loaded.Version)
	assert.Equal(t, 3, loaded.Dropped)
	require.Len(t, loaded.Actions, 2)
	assert.Equal(t, ToolLine, loaded.Actions[0].Tool)
	assert.Equal(t, ToolFilledOval, loaded.Actions[1].Tool)

	assert.Equal(t, 8.0, loaded.Settings[KeyRotationOrder])
	assert.NotContains(t, loaded.Settings, KeyLineWidth)
}
