package template

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	model := testModel(t)
	tmpl := &Template{Model: model, Skeleton: WriteSkeleton(model)}

	gen := NewGenerator(tmpl)
	gen.Now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	}
	out := gen.Generate()

	// Header follows the XML declaration.
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, "XML TEMPLATE FOR BULK IMPORT")
	assert.Contains(t, out, "Data Model: State Population")
	assert.Contains(t, out, "DM CT_ID: dm01aaa")
	assert.Contains(t, out, "Generated: 2024-03-15T10:30:00Z")

	// All sixteen EV codes appear in the header.
	for _, code := range []string{"NI", "MSK", "INV", "DER", "UNC", "OTH",
		"NINF", "PINF", "ASKR", "NASK", "NAV", "NA", "TRC", "ASKU", "UNK", "QS"} {
		assert.Contains(t, out, "  "+code+": ", "EV code %s missing from header", code)
	}

	// Field values become ENTER comments with type hints.
	assert.Contains(t, out, "<!-- ENTER: Population Count (integer value (whole number)) -->")
	assert.Contains(t, out, "<!-- ENTER: Census Date (date value (YYYY-MM-DD)) -->")
	assert.Contains(t, out, "<!-- ENTER: State Name (string value (text)) -->")

	// Units carry the symbol list; the units label is filled in.
	assert.Contains(t, out, "<!-- ENTER: units - valid values: people -->")
	assert.Contains(t, out, "<label>Count Units</label>")

	// Allowed metadata becomes OPTIONAL comments.
	assert.Contains(t, out, "<!-- OPTIONAL: Valid Time Begin")
	assert.Contains(t, out, "<!-- OPTIONAL: Location latitude")

	// EV placeholders become a pointer at the header.
	assert.NotContains(t, out, "<ev-placeholder")
	assert.Contains(t, out, "<!-- OPTIONAL: Exceptional Value - see template header for valid EV codes -->")

	// Standard metadata handling.
	assert.Contains(t, out, "<!-- ENTER: creation timestamp (ISO 8601) - Example: 2024-01-15T10:30:00 -->")
	assert.Contains(t, out, "<!-- AUTO-GENERATED: instance_id will be assigned on import -->")
	assert.Contains(t, out, "<instance_version>1.0</instance_version>")
	assert.Contains(t, out, "<current-state></current-state>")

	// No raw placeholder tokens survive, and none leak into comments
	// as nested markup.
	assert.NotContains(t, out, "__PLACEHOLDER__")
	assert.NotContains(t, out, "<!-- <!--")
}

func TestGenerateNoSymbols(t *testing.T) {
	model := testModel(t)
	meta := model.Fields["abc123"]
	meta.Units.Symbols = nil
	model.Fields["abc123"] = meta

	tmpl := &Template{Model: model, Skeleton: WriteSkeleton(model)}
	out := NewGenerator(tmpl).Generate()

	require.Contains(t, out, "<!-- ENTER: units -->")
	assert.NotContains(t, out, "valid values")
}
