package datamodel

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

func testModel() *DataModel {
	return &DataModel{
		CTID:        "dm01aaa",
		Label:       "State Population",
		ClusterCTID: "cl01aaa",
		Fields: map[string]FieldMeta{
			"abc123": {
				Label:       "Population Count",
				Kind:        sdc4.KindCount,
				AdapterCTID: "ad01aaa",
				Units:       &Units{CTID: "un01aaa", Label: "population_count_units", Symbols: []string{"people"}},
			},
			"def456": {
				Label:         "Census Date",
				Kind:          sdc4.KindTemporal,
				TemporalTypes: []sdc4.TemporalSubtype{sdc4.TemporalDate},
			},
		},
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(testModel()))

	model, ok := reg.Get("dm01aaa")
	require.True(t, ok)
	assert.Equal(t, "State Population", model.Label)

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(testModel()))
	assert.Error(t, reg.Register(testModel()))
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(testModel()))

	other := testModel()
	other.CTID = "dm00zzz"
	require.NoError(t, reg.Register(other))

	assert.Equal(t, []string{"dm00zzz", "dm01aaa"}, reg.List())
}

func TestFieldMetaTemporalSubtype(t *testing.T) {
	meta := FieldMeta{Kind: sdc4.KindTemporal, TemporalTypes: []sdc4.TemporalSubtype{sdc4.TemporalYearMonth, sdc4.TemporalDate}}
	// First declared subtype wins.
	assert.Equal(t, sdc4.TemporalYearMonth, meta.TemporalSubtype())
	assert.Equal(t, "xdtemporal-year-month", meta.ValueElement())

	// No declared subtypes falls back to date.
	meta = FieldMeta{Kind: sdc4.KindTemporal}
	assert.Equal(t, "xdtemporal-date", meta.ValueElement())
}

func TestLoadModel(t *testing.T) {
	fsys := fstest.MapFS{
		"models/pop.json": &fstest.MapFile{Data: []byte(`{
			"dm_ct_id": "dm01aaa",
			"dm_label": "State Population",
			"cluster_ct_id": "cl01aaa",
			"fields": {
				"abc123": {"label": "Population Count", "type": "XdCount"}
			}
		}`)},
	}

	model, err := LoadModel(fsys, "models/pop.json")
	require.NoError(t, err)
	assert.Equal(t, "dm01aaa", model.CTID)
	assert.Equal(t, "Population Count", model.LabelFor("abc123"))
	assert.Equal(t, "unknown", model.LabelFor("unknown"))

	meta, ok := model.Field("abc123")
	require.True(t, ok)
	assert.Equal(t, sdc4.KindCount, meta.Kind)
}

func TestLoadModelRejectsInvalid(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.json": &fstest.MapFile{Data: []byte(`{"dm_label": "No ID"}`)},
	}
	_, err := LoadModel(fsys, "bad.json")
	assert.Error(t, err)

	_, err = LoadModel(fsys, "missing.json")
	assert.Error(t, err)
}
