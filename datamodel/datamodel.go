// Package datamodel defines the static description of an SDC4 data
// model: the field metadata table produced at schema-generation time
// and the registry that maps data-model ct_ids to loaded models.
package datamodel

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"

	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

// Units describes the units wrapper of a quantified field. The ct_id
// and label are fixed at schema generation; the value a caller selects
// at build time must be one of Symbols, or DefaultValue when empty.
type Units struct {
	CTID         string   `json:"ct_id"`
	Label        string   `json:"label"`
	Symbols      []string `json:"symbols,omitempty"`
	DefaultValue string   `json:"def_val,omitempty"`
}

// Constraints carries the facet subset the wizard surfaces to users.
// The XSD remains the authority; these exist for form rendering and
// pre-validation hints only.
type Constraints struct {
	MaxLength     int      `json:"max_length,omitempty"`
	MinInclusive  *float64 `json:"min_inclusive,omitempty"`
	MaxInclusive  *float64 `json:"max_inclusive,omitempty"`
	DecimalPlaces int      `json:"decimal_places,omitempty"`
	Pattern       string   `json:"pattern,omitempty"`
	Choices       []string `json:"choices,omitempty"`
}

// FieldMeta is one entry of the field metadata table, keyed by the
// component ct_id it describes.
type FieldMeta struct {
	Label         string                 `json:"label"`
	Kind          sdc4.Kind              `json:"type"`
	AdapterCTID   string                 `json:"adapter_ctid,omitempty"`
	Units         *Units                 `json:"units,omitempty"`
	TemporalTypes []sdc4.TemporalSubtype `json:"temporal_types,omitempty"`
	Constraints   Constraints            `json:"constraints,omitempty"`

	// Allowed optional metadata elements for this field.
	AllowACT      bool `json:"allow_act,omitempty"`
	AllowVTB      bool `json:"allow_vtb,omitempty"`
	AllowVTE      bool `json:"allow_vte,omitempty"`
	AllowTR       bool `json:"allow_tr,omitempty"`
	AllowModified bool `json:"allow_mod,omitempty"`
	AllowLocation bool `json:"allow_location,omitempty"`
}

// TemporalSubtype returns the single subtype a temporal field carries.
// The first declared subtype wins; a temporal field can only hold the
// shape picked at schema generation, not a per-instance choice.
func (f FieldMeta) TemporalSubtype() sdc4.TemporalSubtype {
	if len(f.TemporalTypes) > 0 {
		return f.TemporalTypes[0]
	}
	return sdc4.TemporalDate
}

// ValueElement returns the value element name for this field.
func (f FieldMeta) ValueElement() string {
	return sdc4.ValueElement(f.Kind, f.TemporalSubtype())
}

// DataModel is the static description of one SDC4 data model.
type DataModel struct {
	CTID        string               `json:"dm_ct_id"`
	Label       string               `json:"dm_label"`
	ClusterCTID string               `json:"cluster_ct_id"`
	Fields      map[string]FieldMeta `json:"fields"`

	// FieldOrder lists ct_ids in XSD sequence order. Skeletons are
	// generated in this order; when empty, ct_ids sort lexically.
	FieldOrder []string `json:"field_order,omitempty"`
}

// OrderedFields returns the ct_ids in XSD sequence order.
func (m *DataModel) OrderedFields() []string {
	if len(m.FieldOrder) > 0 {
		out := make([]string, len(m.FieldOrder))
		copy(out, m.FieldOrder)
		return out
	}
	ids := make([]string, 0, len(m.Fields))
	for id := range m.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Field returns the metadata for a component ct_id.
func (m *DataModel) Field(ctID string) (FieldMeta, bool) {
	meta, ok := m.Fields[ctID]
	return meta, ok
}

// LabelFor returns the human label for a component ct_id, falling back
// to the ct_id itself.
func (m *DataModel) LabelFor(ctID string) string {
	if meta, ok := m.Fields[ctID]; ok && meta.Label != "" {
		return meta.Label
	}
	return ctID
}

// Validate checks internal consistency of the model description.
func (m *DataModel) Validate() error {
	if m.CTID == "" {
		return fmt.Errorf("data model ct_id is required")
	}
	if m.Label == "" {
		return fmt.Errorf("data model %s: label is required", m.CTID)
	}
	for ctID, meta := range m.Fields {
		if meta.Kind == "" {
			return fmt.Errorf("field %s: kind is required", ctID)
		}
		if meta.Kind.Quantified() && meta.Units != nil && meta.Units.CTID == "" {
			return fmt.Errorf("field %s: units ct_id is required", ctID)
		}
	}
	for _, ctID := range m.FieldOrder {
		if _, ok := m.Fields[ctID]; !ok {
			return fmt.Errorf("field order references unknown ct_id %s", ctID)
		}
	}
	return nil
}

// LoadModel parses a data-model description from a JSON file in fsys.
func LoadModel(fsys fs.FS, path string) (*DataModel, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read data model %s: %w", path, err)
	}

	var model DataModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("parse data model %s: %w", path, err)
	}

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid data model %s: %w", path, err)
	}

	return &model, nil
}
