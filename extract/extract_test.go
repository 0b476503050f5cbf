package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/sdcpipeline/builder"
	"github.com/c360studio/sdcpipeline/datamodel"
	"github.com/c360studio/sdcpipeline/template"
	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

func testModel(t *testing.T) *datamodel.DataModel {
	t.Helper()
	model := &datamodel.DataModel{
		CTID:        "dm01aaa",
		Label:       "State Population",
		ClusterCTID: "cl01aaa",
		Fields: map[string]datamodel.FieldMeta{
			"abc123": {
				Label: "Population Count",
				Kind:  sdc4.KindCount,
				Units: &datamodel.Units{
					CTID:    "un01aaa",
					Label:   "Count Units",
					Symbols: []string{"people"},
				},
				AllowVTB: true,
			},
			"def456": {
				Label:         "Census Date",
				Kind:          sdc4.KindTemporal,
				TemporalTypes: []sdc4.TemporalSubtype{sdc4.TemporalDate},
			},
			"ghi789": {
				Label:       "Growth Rate",
				Kind:        sdc4.KindQuantity,
				AdapterCTID: "ad01aaa",
				Units: &datamodel.Units{
					CTID:    "un02bbb",
					Label:   "Rate Units",
					Symbols: []string{"percent"},
				},
			},
		},
		FieldOrder: []string{"abc123", "def456", "ghi789"},
	}
	require.NoError(t, model.Validate())
	return model
}

func buildInstance(t *testing.T, model *datamodel.DataModel, req builder.Request) string {
	t.Helper()
	tmpl := &template.Template{Model: model, Skeleton: template.WriteSkeleton(model)}
	b := builder.New(tmpl, nil)
	b.Now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	}
	b.NewID = func() string { return "i-test0001" }

	xml, err := b.Build(req)
	require.NoError(t, err)
	return xml
}

func TestQueryExtractRoundTrip(t *testing.T) {
	model := testModel(t)
	xml := buildInstance(t, model, builder.Request{
		Fields: map[string]builder.FieldInput{
			"abc123": {Value: 42, Units: "people", VTB: "2024-01-01T00:00:00"},
			"def456": {Value: "2024-03-15"},
			"ghi789": {Value: 12.5, Units: "percent"},
		},
	})

	doc := NewQueryExtractor(nil).Extract(xml)

	assert.Equal(t, "i-test0001", doc.Metadata["instance_id"])
	assert.Equal(t, "State Population", doc.Metadata["dm_label"])
	assert.Equal(t, "2024-03-15T10:30:00", doc.Metadata["creation_timestamp"])

	count := doc.Fields["abc123"]
	assert.Equal(t, "Population Count", count.Label)
	assert.Equal(t, int64(42), count.Value)
	assert.Equal(t, "people", count.Units)
	assert.Equal(t, "2024-01-01T00:00:00", count.ValidTimeBegin)

	date := doc.Fields["def456"]
	assert.Equal(t, "2024-03-15", date.Value)

	rate := doc.Fields["ghi789"]
	assert.Equal(t, 12.5, rate.Value)
	assert.Equal(t, "percent", rate.Units)

	assert.Contains(t, doc.SearchText, "42")
	assert.Contains(t, doc.SearchText, "Population Count")

	// Cluster and adapter wrappers are not fields.
	assert.NotContains(t, doc.Fields, "cl01aaa")
	assert.NotContains(t, doc.Fields, "ad01aaa")
}

func TestQueryExtractEVShortCircuits(t *testing.T) {
	model := testModel(t)
	xml := buildInstance(t, model, builder.Request{
		Fields: map[string]builder.FieldInput{
			"abc123": {Value: 42, Units: "people", EV: sdc4.EVNotAsked},
		},
	})

	doc := NewQueryExtractor(nil).Extract(xml)

	field := doc.Fields["abc123"]
	assert.Equal(t, "NASK", field.ExceptionalValue)
	assert.Nil(t, field.Value)
	assert.Empty(t, field.Units)
	assert.NotContains(t, doc.SearchText, "42")
}

func TestQueryExtractCorrectedInstance(t *testing.T) {
	xml := `<?xml version="1.0"?>
<sdc4:dm-dm01aaa xmlns:sdc4="https://semanticdatacharter.com/ns/sdc4/">
  <dm-label>State Population</dm-label>
  <sdc4:ms-cl01aaa>
    <label>State Population Data</label>
    <sdc4:ms-abc123>
      <label>Population Count</label>
      <exceptional-value>NotPerformed</exceptional-value>
    </sdc4:ms-abc123>
  </sdc4:ms-cl01aaa>
</sdc4:dm-dm01aaa>`

	doc := NewQueryExtractor(nil).Extract(xml)
	assert.Equal(t, "NotPerformed", doc.Fields["abc123"].ExceptionalValue)
}

func TestQueryExtractUnparseable(t *testing.T) {
	doc := NewQueryExtractor(nil).Extract("<broken")
	assert.Empty(t, doc.Fields)
	assert.Empty(t, doc.Metadata)
	assert.Empty(t, doc.SearchText)
}

func TestSniffValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"False", false},
		{"42", int64(42)},
		{"12.5", 12.5},
		{"2024-03-15", "2024-03-15"},
		{"hello", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sniffValue(tt.in))
		})
	}
}

func TestInstanceGenerate(t *testing.T) {
	model := testModel(t)
	xml := buildInstance(t, model, builder.Request{
		Fields: map[string]builder.FieldInput{
			"abc123": {Value: 42, Units: "people"},
			"def456": {Value: "2024-03-15T10:30:00"},
			"ghi789": {Value: 12.5, Units: "percent", EV: sdc4.EVDerived},
		},
	})

	doc := NewInstanceGenerator(model, nil).Generate(xml)

	assert.Equal(t, "dm01aaa", doc.Metadata.DMCTID)
	assert.Equal(t, "State Population", doc.Metadata.DMLabel)
	assert.Equal(t, "i-test0001", doc.Metadata.InstanceID)

	count := doc.Fields["Population Count"]
	assert.Equal(t, int64(42), count.Value)
	assert.Equal(t, "people", count.Units)
	assert.Empty(t, count.EV)

	// Temporal truncation applied at build time round-trips as a date.
	assert.Equal(t, "2024-03-15", doc.Fields["Census Date"].Value)

	// An EV and a value coexist in the instance projection.
	rate := doc.Fields["Growth Rate"]
	assert.Equal(t, 12.5, rate.Value)
	assert.Equal(t, "DER", rate.EV)
}

func TestInstanceGenerateUnfilledFieldsOmitted(t *testing.T) {
	model := testModel(t)
	xml := buildInstance(t, model, builder.Request{
		Fields: map[string]builder.FieldInput{
			"abc123": {Value: 42, Units: "people"},
		},
	})

	doc := NewInstanceGenerator(model, nil).Generate(xml)
	assert.Contains(t, doc.Fields, "Population Count")
	assert.NotContains(t, doc.Fields, "Census Date")
	assert.NotContains(t, doc.Fields, "Growth Rate")
}

func TestInstanceGenerateJSON(t *testing.T) {
	model := testModel(t)
	xml := buildInstance(t, model, builder.Request{
		Fields: map[string]builder.FieldInput{
			"abc123": {Value: 42, Units: "people"},
		},
	})

	out, err := NewInstanceGenerator(model, nil).GenerateJSON(xml)
	require.NoError(t, err)
	assert.Contains(t, out, `"instance_id": "i-test0001"`)
	assert.Contains(t, out, `"Population Count"`)
	assert.Contains(t, out, `"value": 42`)
}
