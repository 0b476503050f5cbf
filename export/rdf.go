// Package export renders SDC4 instances as RDF 1.2 Turtle. Each filled
// field becomes a quoted triple asserting the value about the component
// class, wrapped by a reifier node that carries instance context. The
// quoted triple keys cross-instance queries by component ct_id; the
// reifier keys instance-specific ones.
package export

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/beevik/etree"

	"github.com/c360studio/sdcpipeline/datamodel"
	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

// RDFExtractor generates Turtle for instances of one data model.
type RDFExtractor struct {
	model  *datamodel.DataModel
	logger *slog.Logger
}

// NewRDFExtractor creates an extractor bound to a data model.
func NewRDFExtractor(model *datamodel.DataModel, logger *slog.Logger) *RDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RDFExtractor{model: model, logger: logger}
}

// Extract renders an instance as RDF 1.2 Turtle with quoted triples.
// Unparseable XML yields an empty string rather than an error: graph
// sync is advisory and must never block persistence.
func (e *RDFExtractor) Extract(xmlContent, instanceID, validationStatus string, autoCorrected []string) string {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xmlContent); err != nil {
		e.logger.Error("rdf extraction failed to parse instance",
			"instance_id", instanceID,
			"error", err)
		return ""
	}
	root := doc.Root()
	if root == nil {
		return ""
	}

	// The reifier local names embed the instance cuid so that the same
	// component across corrected and original instances stays distinct.
	instanceCUID := strings.TrimPrefix(strings.TrimPrefix(instanceID, "i-"), "ev-")

	var sb strings.Builder
	sb.WriteString(sdc4.TurtlePrefixes)
	sb.WriteString("\n")

	e.writeInstanceMetadata(&sb, root, instanceID, validationStatus, autoCorrected)

	clusterCTID := findClusterCTID(root)

	var visit func(el *etree.Element)
	visit = func(el *etree.Element) {
		if ctID, ok := strings.CutPrefix(el.Tag, "ms-"); ok {
			if meta, known := e.model.Field(ctID); known {
				e.writeComponent(&sb, el, ctID, meta, instanceID, instanceCUID, clusterCTID)
			}
		}
		for _, child := range el.ChildElements() {
			visit(child)
		}
	}
	visit(root)

	return sb.String()
}

// writeInstanceMetadata writes the instance-level description: its
// type, label, creation time, and validation outcome.
func (e *RDFExtractor) writeInstanceMetadata(sb *strings.Builder, root *etree.Element, instanceID, validationStatus string, autoCorrected []string) {
	sb.WriteString(fmt.Sprintf("# Instance: %s\n", instanceID))
	sb.WriteString(fmt.Sprintf("sdc4:%s a sdc4:dm-%s ;\n", instanceID, e.model.CTID))
	sb.WriteString(fmt.Sprintf("    rdfs:label \"%s\" ;\n", escapeString(e.model.Label)))

	if created := root.FindElement("//" + sdc4.ElemCreationTimestamp); created != nil {
		if text := cleanText(created.Text()); text != "" {
			sb.WriteString(fmt.Sprintf("    dc:created \"%s\"^^xsd:dateTime ;\n", text))
		}
	}

	sb.WriteString(fmt.Sprintf("    sdc4:validationStatus \"%s\" ;\n", validationStatus))
	for _, label := range autoCorrected {
		sb.WriteString(fmt.Sprintf("    sdc4:autoCorrectedField \"%s\" ;\n", escapeString(label)))
	}

	closeDescription(sb)
	sb.WriteString("\n")
}

// findClusterCTID returns the ct_id of the first ms- child of the
// root, which is the instance's root cluster.
func findClusterCTID(root *etree.Element) string {
	for _, child := range root.ChildElements() {
		if ctID, ok := strings.CutPrefix(child.Tag, "ms-"); ok {
			return ctID
		}
	}
	return ""
}

// writeComponent writes one field component as a reifier description.
// Components with neither a value nor an exceptional value are skipped.
func (e *RDFExtractor) writeComponent(sb *strings.Builder, el *etree.Element, ctID string, meta datamodel.FieldMeta, instanceID, instanceCUID, clusterCTID string) {
	valueElemName, value := componentValue(el, meta)
	evCode := findEVCode(el)
	evName := ""
	if evCode == "" {
		if evElem := el.SelectElement(sdc4.ExceptionalValueElement); evElem != nil {
			evName = strings.TrimSpace(evElem.Text())
		}
	}

	if value == "" && evCode == "" && evName == "" {
		return
	}

	sb.WriteString(fmt.Sprintf("# %s (%s)\n", meta.Label, meta.Kind))

	reifier := fmt.Sprintf(":v_%s_%s", ctID, instanceCUID)
	if value != "" {
		sb.WriteString(fmt.Sprintf("%s rdf:reifies << sdc4:mc-%s sdc4:%s %s >> ;\n",
			reifier, ctID, valueElemName, turtleLiteral(value, meta.Kind)))
	} else {
		sb.WriteString(fmt.Sprintf("%s a sdc4:ExceptionalValueStatement ;\n", reifier))
	}

	sb.WriteString(fmt.Sprintf("    sdc4:inInstance sdc4:%s ;\n", instanceID))
	sb.WriteString(fmt.Sprintf("    sdc4:inDataModel sdc4:dm-%s ;\n", e.model.CTID))
	if clusterCTID != "" {
		sb.WriteString(fmt.Sprintf("    sdc4:inCluster sdc4:mc-%s ;\n", clusterCTID))
	}
	if meta.AdapterCTID != "" {
		sb.WriteString(fmt.Sprintf("    sdc4:throughAdapter sdc4:mc-%s ;\n", meta.AdapterCTID))
	}
	sb.WriteString(fmt.Sprintf("    rdfs:label \"%s\" ;\n", escapeString(meta.Label)))

	if units := componentUnits(el, meta); units != "" {
		sb.WriteString(fmt.Sprintf("    sdc4:units \"%s\" ;\n", escapeString(units)))
	}

	switch {
	case evCode != "":
		sb.WriteString(fmt.Sprintf("    sdc4:ev sdc4:%s ;\n", evCode))
	case evName != "":
		sb.WriteString(fmt.Sprintf("    sdc4:ev \"%s\" ;\n", escapeString(evName)))
	}

	for _, temporal := range []string{"vtb", "vte", "tr", "modified"} {
		if text := leafText(el, temporal); text != "" {
			sb.WriteString(fmt.Sprintf("    sdc4:%s \"%s\"^^xsd:dateTime ;\n", temporal, text))
		}
	}

	// Latitude and longitude only make sense as a pair.
	lat, lon := leafText(el, "latitude"), leafText(el, "longitude")
	if lat != "" && lon != "" {
		sb.WriteString(fmt.Sprintf("    sdc4:latitude \"%s\"^^xsd:decimal ;\n", lat))
		sb.WriteString(fmt.Sprintf("    sdc4:longitude \"%s\"^^xsd:decimal ;\n", lon))
	}

	if act := leafText(el, "act"); act != "" {
		sb.WriteString(fmt.Sprintf("    sdc4:act \"%s\" ;\n", escapeString(act)))
	}

	closeDescription(sb)
	sb.WriteString("\n")
}

// componentValue returns the value element name and its text, probing
// the temporal variants for temporal fields. Placeholder text counts
// as no value.
func componentValue(el *etree.Element, meta datamodel.FieldMeta) (string, string) {
	if meta.Kind == sdc4.KindTemporal {
		for _, name := range sdc4.TemporalValueElements() {
			if valueElem := el.SelectElement(name); valueElem != nil {
				if text := cleanText(valueElem.Text()); text != "" {
					return name, text
				}
			}
		}
		return "", ""
	}

	name := meta.ValueElement()
	valueElem := el.SelectElement(name)
	if valueElem == nil {
		return name, ""
	}
	return name, cleanText(valueElem.Text())
}

// componentUnits returns the units string for a quantified component,
// or "" when no units wrapper is filled in.
func componentUnits(el *etree.Element, meta datamodel.FieldMeta) string {
	unitsName := sdc4.UnitsElement(meta.Kind)
	if unitsName == "" {
		return ""
	}
	wrapper := el.SelectElement(unitsName)
	if wrapper == nil {
		return ""
	}
	valueElem := wrapper.SelectElement("xdstring-value")
	if valueElem == nil {
		return ""
	}
	return cleanText(valueElem.Text())
}

// findEVCode returns the exceptional value code carried by a
// substitution element child, or "" when none is present.
func findEVCode(el *etree.Element) string {
	for _, child := range el.ChildElements() {
		if sdc4.IsEVCode(child.Tag) {
			return child.Tag
		}
	}
	return ""
}

func leafText(el *etree.Element, name string) string {
	leaf := el.FindElement(".//" + name)
	if leaf == nil {
		return ""
	}
	return cleanText(leaf.Text())
}

// cleanText trims text and drops unfilled placeholder content.
func cleanText(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, sdc4.PlaceholderPrefix) {
		return ""
	}
	return text
}

// turtleLiteral renders a value as a Turtle literal. Boolean and
// numeric kinds are plain literals, with booleans lowercased; all
// other kinds are quoted and escaped.
func turtleLiteral(value string, kind sdc4.Kind) string {
	if kind.PlainLiteral() {
		if kind == sdc4.KindBoolean {
			return strings.ToLower(value)
		}
		return value
	}
	return fmt.Sprintf("\"%s\"", escapeString(value))
}

// closeDescription rewrites the trailing " ;\n" of the last property
// into " .\n", terminating the Turtle description.
func closeDescription(sb *strings.Builder) {
	s := sb.String()
	if strings.HasSuffix(s, " ;\n") {
		sb.Reset()
		sb.WriteString(s[:len(s)-3])
		sb.WriteString(" .\n")
	}
}

// escapeString escapes special characters in strings for Turtle literals.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
