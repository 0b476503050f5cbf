// Package extract derives the two JSON projections of an SDC4
// instance: a flat, ct_id-keyed document for JSONB-style querying and
// full-text search, and a label-keyed instance document for API
// consumers. Both read the XML as the source of truth and skip any
// text still carrying placeholder tokens.
package extract

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

// Location is a latitude/longitude pair attached to a field.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// QueryField is one field of the query projection.
type QueryField struct {
	Label            string    `json:"label,omitempty"`
	Value            any       `json:"value,omitempty"`
	Units            string    `json:"units,omitempty"`
	ExceptionalValue string    `json:"exceptional_value,omitempty"`
	ValidTimeBegin   string    `json:"valid_time_begin,omitempty"`
	ValidTimeEnd     string    `json:"valid_time_end,omitempty"`
	Location         *Location `json:"location,omitempty"`
}

// QueryDoc is the flat projection of one instance, keyed by component
// ct_id, with a concatenated search_text for full-text indexing.
type QueryDoc struct {
	Metadata   map[string]string     `json:"metadata"`
	Fields     map[string]QueryField `json:"fields"`
	SearchText string                `json:"search_text"`
}

// QueryExtractor builds QueryDocs from instance XML.
type QueryExtractor struct {
	logger *slog.Logger
}

// NewQueryExtractor creates a query extractor.
func NewQueryExtractor(logger *slog.Logger) *QueryExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryExtractor{logger: logger}
}

// queryMetadataElements are hoisted into QueryDoc.Metadata, with
// hyphens turned to underscores in the JSON key.
var queryMetadataElements = []string{
	"dm-label",
	"dm-language",
	"dm-encoding",
	"creation_timestamp",
	"instance_id",
	"instance_version",
	"current-state",
}

// Extract parses instance XML into the query projection. Unparseable
// XML degrades to an empty document; extraction never fails the
// pipeline.
func (e *QueryExtractor) Extract(xmlContent string) QueryDoc {
	doc := QueryDoc{
		Metadata: map[string]string{},
		Fields:   map[string]QueryField{},
	}

	tree := etree.NewDocument()
	if err := tree.ReadFromString(xmlContent); err != nil {
		e.logger.Error("query extraction failed to parse instance", "error", err)
		return doc
	}
	root := tree.Root()
	if root == nil {
		return doc
	}

	for _, name := range queryMetadataElements {
		if el := root.FindElement("//" + name); el != nil {
			if text := cleanText(el.Text()); text != "" {
				doc.Metadata[strings.ReplaceAll(name, "-", "_")] = text
			}
		}
	}

	var searchParts []string
	var visit func(el *etree.Element)
	visit = func(el *etree.Element) {
		if ctID, ok := strings.CutPrefix(el.Tag, "ms-"); ok {
			if field, found := extractQueryField(el); found {
				doc.Fields[ctID] = field
				if field.Value != nil {
					searchParts = append(searchParts, stringify(field.Value))
				}
				if field.Label != "" {
					searchParts = append(searchParts, field.Label)
				}
			}
		}
		for _, child := range el.ChildElements() {
			visit(child)
		}
	}
	visit(root)

	doc.SearchText = strings.Join(searchParts, " ")
	return doc
}

// extractQueryField reads one component. The second return is false
// when the component holds neither a value nor an exceptional value,
// which is how cluster and adapter wrappers are skipped.
func extractQueryField(el *etree.Element) (QueryField, bool) {
	var field QueryField

	if labelElem := el.SelectElement("label"); labelElem != nil {
		field.Label = cleanText(labelElem.Text())
	}

	// An exceptional value short-circuits everything else: the query
	// projection reports why the datum is absent, not a stale value.
	if ev := exceptionalValueOf(el); ev != "" {
		field.ExceptionalValue = ev
		return field, true
	}

	var hasValue bool
	for _, name := range sdc4.AllValueElements() {
		valueElem := el.SelectElement(name)
		if valueElem == nil {
			continue
		}
		if text := cleanText(valueElem.Text()); text != "" {
			field.Value = sniffValue(text)
			hasValue = true
			break
		}
	}
	if !hasValue {
		return QueryField{}, false
	}

	for _, name := range sdc4.AllUnitsElements() {
		wrapper := el.SelectElement(name)
		if wrapper == nil {
			continue
		}
		if valueElem := wrapper.SelectElement("xdstring-value"); valueElem != nil {
			field.Units = cleanText(valueElem.Text())
		}
		break
	}

	if vtb := el.SelectElement("vtb"); vtb != nil {
		field.ValidTimeBegin = cleanText(vtb.Text())
	}
	if vte := el.SelectElement("vte"); vte != nil {
		field.ValidTimeEnd = cleanText(vte.Text())
	}

	if loc := el.SelectElement("location"); loc != nil {
		latElem := loc.SelectElement("latitude")
		lonElem := loc.SelectElement("longitude")
		if latElem != nil && lonElem != nil {
			lat, latErr := strconv.ParseFloat(cleanText(latElem.Text()), 64)
			lon, lonErr := strconv.ParseFloat(cleanText(lonElem.Text()), 64)
			if latErr == nil && lonErr == nil {
				field.Location = &Location{Latitude: lat, Longitude: lon}
			}
		}
	}

	return field, true
}

// exceptionalValueOf returns the exceptional value of a component:
// the corrector's exceptional-value text, or the code of an EV
// substitution element inserted at build time.
func exceptionalValueOf(el *etree.Element) string {
	if evElem := el.SelectElement(sdc4.ExceptionalValueElement); evElem != nil {
		if text := cleanText(evElem.Text()); text != "" {
			return text
		}
	}
	for _, child := range el.ChildElements() {
		if sdc4.IsEVCode(child.Tag) {
			return child.Tag
		}
	}
	return ""
}

// cleanText trims text and drops unsubstituted placeholders.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, sdc4.PlaceholderPrefix) {
		return ""
	}
	return s
}

// sniffValue guesses the JSON type of a value without schema help:
// boolean, then integer, then float, then string.
func sniffValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if !strings.Contains(s, ".") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

// typed decode helpers shared with the instance projection

func decodeTyped(text string, kind sdc4.Kind) any {
	switch kind {
	case sdc4.KindBoolean:
		return text == "true"
	case sdc4.KindCount, sdc4.KindOrdinal:
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n
		}
		return text
	case sdc4.KindQuantity, sdc4.KindFloat, sdc4.KindDouble:
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f
		}
		return text
	default:
		return text
	}
}
