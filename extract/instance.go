package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/beevik/etree"

	"github.com/c360studio/sdcpipeline/datamodel"
	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

// InstanceMetadata identifies the instance and its data model.
type InstanceMetadata struct {
	DMCTID     string `json:"dm_ct_id,omitempty"`
	DMLabel    string `json:"dm_label,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	InstanceID string `json:"instance_id,omitempty"`
}

// InstanceField is one field of the instance projection.
type InstanceField struct {
	Value any    `json:"value,omitempty"`
	Units string `json:"units,omitempty"`
	EV    string `json:"ev,omitempty"`
}

// InstanceDoc is the clean, label-keyed JSON rendition of one
// instance, decoded with the field metadata table so every value has
// its schema type rather than a sniffed one.
type InstanceDoc struct {
	Metadata InstanceMetadata         `json:"metadata"`
	Fields   map[string]InstanceField `json:"fields"`
}

// InstanceGenerator builds InstanceDocs for one data model.
type InstanceGenerator struct {
	model  *datamodel.DataModel
	logger *slog.Logger
}

// NewInstanceGenerator creates a generator bound to a data model.
func NewInstanceGenerator(model *datamodel.DataModel, logger *slog.Logger) *InstanceGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &InstanceGenerator{model: model, logger: logger}
}

// Generate parses instance XML into the label-keyed projection.
// Unparseable XML degrades to an empty document.
func (g *InstanceGenerator) Generate(xmlContent string) InstanceDoc {
	out := InstanceDoc{Fields: map[string]InstanceField{}}

	tree := etree.NewDocument()
	if err := tree.ReadFromString(xmlContent); err != nil {
		g.logger.Error("instance extraction failed to parse instance", "error", err)
		return out
	}
	root := tree.Root()
	if root == nil {
		return out
	}

	out.Metadata = extractInstanceMetadata(root)

	var visit func(el *etree.Element)
	visit = func(el *etree.Element) {
		if ctID, ok := strings.CutPrefix(el.Tag, "ms-"); ok {
			if meta, known := g.model.Field(ctID); known {
				if field, found := g.extractInstanceField(el, meta); found {
					out.Fields[g.model.LabelFor(ctID)] = field
				}
			}
		}
		for _, child := range el.ChildElements() {
			visit(child)
		}
	}
	visit(root)

	return out
}

// GenerateJSON renders the projection as indented JSON.
func (g *InstanceGenerator) GenerateJSON(xmlContent string) (string, error) {
	doc := g.Generate(xmlContent)
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode instance json: %w", err)
	}
	return string(raw), nil
}

func extractInstanceMetadata(root *etree.Element) InstanceMetadata {
	var meta InstanceMetadata

	if ctID, ok := strings.CutPrefix(root.Tag, "dm-"); ok {
		meta.DMCTID = ctID
	}
	for _, child := range root.ChildElements() {
		text := cleanText(child.Text())
		if text == "" {
			continue
		}
		switch child.Tag {
		case "dm-label":
			meta.DMLabel = text
		case sdc4.ElemCreationTimestamp:
			meta.CreatedAt = text
		case sdc4.ElemInstanceID:
			meta.InstanceID = text
		}
	}
	return meta
}

func (g *InstanceGenerator) extractInstanceField(el *etree.Element, meta datamodel.FieldMeta) (InstanceField, bool) {
	var field InstanceField

	// EV from the build-time substitution element or the corrector's
	// exceptional-value record.
	for _, child := range el.ChildElements() {
		if sdc4.IsEVCode(child.Tag) {
			field.EV = child.Tag
			break
		}
	}
	if field.EV == "" {
		if evElem := el.SelectElement(sdc4.ExceptionalValueElement); evElem != nil {
			field.EV = cleanText(evElem.Text())
		}
	}

	if text := g.valueText(el, meta); text != "" {
		field.Value = decodeTyped(text, meta.Kind)
	}

	if unitsName := sdc4.UnitsElement(meta.Kind); unitsName != "" {
		if wrapper := el.SelectElement(unitsName); wrapper != nil {
			if valueElem := wrapper.SelectElement("xdstring-value"); valueElem != nil {
				field.Units = cleanText(valueElem.Text())
			}
		}
	}

	if field.Value == nil && field.Units == "" && field.EV == "" {
		return InstanceField{}, false
	}
	return field, true
}

// valueText reads the raw value text for a field. Temporal fields
// probe every subtype element since the instance, not the model,
// decides which one is present.
func (g *InstanceGenerator) valueText(el *etree.Element, meta datamodel.FieldMeta) string {
	if meta.Kind == sdc4.KindTemporal {
		for _, name := range sdc4.TemporalValueElements() {
			if valueElem := el.SelectElement(name); valueElem != nil {
				if text := cleanText(valueElem.Text()); text != "" {
					return text
				}
			}
		}
		return ""
	}

	valueElem := el.SelectElement(meta.ValueElement())
	if valueElem == nil {
		return ""
	}
	return cleanText(valueElem.Text())
}
