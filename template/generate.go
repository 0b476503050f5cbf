package template

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/c360studio/sdcpipeline/datamodel"
	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

// metadataHints describe the optional per-field metadata elements in
// generated templates.
var metadataHints = map[string]string{
	"vtb":              "Valid Time Begin - when this value became valid (ISO 8601 datetime)",
	"vte":              "Valid Time End - when this value expires (ISO 8601 datetime)",
	"tr":               "Time Recorded - when this value was recorded (ISO 8601 datetime)",
	"modified":         "Time Modified - when this value was last modified (ISO 8601 datetime)",
	"latitude":         "Location latitude (decimal degrees, -90 to 90)",
	"longitude":        "Location longitude (decimal degrees, -180 to 180)",
	"act":              "Access Control Tag - security classification",
	"normal-status":    "Normal status indicator",
	"magnitude-status": "Magnitude status indicator",
	"accuracy_margin":  "Accuracy margin for measurements",
	"precision_digits": "Number of precision digits",
}

var (
	evPlaceholderRe  = regexp.MustCompile(`<` + sdc4.EVPlaceholderElement + `[^>]*/?>`)
	leftoverTokenRe  = regexp.MustCompile(sdc4.PlaceholderPrefix + `[a-zA-Z0-9_-]+`)
	participationsRe = regexp.MustCompile(`(?m)^\s*<!--\s*` + sdc4.PlaceholderPrefix + `participations\s*-->\s*\n?`)
)

// Generator renders a human-editable XML template for bulk import.
// The template keeps the full instance structure and swaps every
// placeholder for an instruction comment a user replaces with data.
type Generator struct {
	tmpl *Template

	// Now is the clock stamped into the template header. Tests pin it.
	Now func() time.Time
}

// NewGenerator creates a generator for one loaded template.
func NewGenerator(tmpl *Template) *Generator {
	return &Generator{tmpl: tmpl, Now: time.Now}
}

// Generate renders the bulk-import template.
func (g *Generator) Generate() string {
	out := g.tmpl.Skeleton

	out = participationsRe.ReplaceAllString(out, "")
	out = g.replaceMetadataPlaceholders(out)
	out = g.replaceFieldPlaceholders(out)
	out = evPlaceholderRe.ReplaceAllString(out,
		"<!-- OPTIONAL: Exceptional Value - see template header for valid EV codes -->")
	out = leftoverTokenRe.ReplaceAllString(out, "<!-- ENTER: value -->")

	header := g.headerComment()
	if strings.HasPrefix(out, "<?xml") {
		declEnd := strings.Index(out, "?>") + 2
		return out[:declEnd] + "\n" + header + out[declEnd:]
	}
	return `<?xml version="1.0" encoding="UTF-8"?>` + "\n" + header + out
}

func (g *Generator) replaceMetadataPlaceholders(out string) string {
	out = strings.ReplaceAll(out,
		sdc4.PlaceholderPrefix+sdc4.ElemCreationTimestamp,
		"<!-- ENTER: creation timestamp (ISO 8601) - Example: 2024-01-15T10:30:00 -->")
	out = strings.ReplaceAll(out,
		sdc4.PlaceholderPrefix+sdc4.ElemInstanceID,
		"<!-- AUTO-GENERATED: instance_id will be assigned on import -->")
	out = strings.ReplaceAll(out,
		sdc4.PlaceholderPrefix+sdc4.ElemInstanceVersion, "1.0")
	out = strings.ReplaceAll(out,
		sdc4.PlaceholderPrefix+sdc4.ElemCurrentState, "")
	return out
}

func (g *Generator) replaceFieldPlaceholders(out string) string {
	model := g.tmpl.Model
	for _, ctID := range model.OrderedFields() {
		meta := model.Fields[ctID]

		valueToken := fmt.Sprintf("%s%s_%s", sdc4.PlaceholderPrefix, meta.ValueElement(), ctID)
		out = strings.ReplaceAll(out, valueToken,
			fmt.Sprintf("<!-- ENTER: %s (%s) -->", meta.Label, typeHint(meta)))

		for name, hint := range metadataHints {
			token := fmt.Sprintf("%s%s_%s", sdc4.PlaceholderPrefix, name, ctID)
			out = strings.ReplaceAll(out, token,
				fmt.Sprintf("<!-- OPTIONAL: %s -->", hint))
		}

		if meta.Units != nil && meta.Units.CTID != "" {
			labelToken := fmt.Sprintf("%slabel_%s", sdc4.PlaceholderPrefix, meta.Units.CTID)
			out = strings.ReplaceAll(out, labelToken, meta.Units.Label)

			valueToken := fmt.Sprintf("%sxdstring-value_%s", sdc4.PlaceholderPrefix, meta.Units.CTID)
			if len(meta.Units.Symbols) > 0 {
				out = strings.ReplaceAll(out, valueToken,
					fmt.Sprintf("<!-- ENTER: units - valid values: %s -->",
						strings.Join(meta.Units.Symbols, ", ")))
			} else {
				out = strings.ReplaceAll(out, valueToken, "<!-- ENTER: units -->")
			}
		}
	}
	return out
}

func (g *Generator) headerComment() string {
	var b strings.Builder
	bar := strings.Repeat("=", 80)

	b.WriteString("<!--\n")
	b.WriteString(bar + "\n")
	b.WriteString("XML TEMPLATE FOR BULK IMPORT\n")
	b.WriteString(bar + "\n\n")
	fmt.Fprintf(&b, "Data Model: %s\n", g.tmpl.Model.Label)
	fmt.Fprintf(&b, "DM CT_ID: %s\n", g.tmpl.Model.CTID)
	fmt.Fprintf(&b, "Generated: %s\n\n", g.Now().UTC().Format(time.RFC3339))
	b.WriteString(`INSTRUCTIONS:
1. Copy this template for each record you want to import
2. Replace <!-- ENTER: ... --> comments with your actual data
3. Optional fields (marked <!-- OPTIONAL: ... -->) can be deleted if not needed
4. The instance_id will be auto-generated on import - leave as is
5. Save all XML files in a directory or zip file for bulk import

EXCEPTIONAL VALUES (EV):
If a field has no value but needs an explanation, use one of these EV codes
by replacing the ev-placeholder comment with the appropriate element:

Example: <NASK><ev-name>Not Asked</ev-name></NASK>

`)
	for _, code := range sdc4.EVCodes() {
		fmt.Fprintf(&b, "  %s: %s\n", code, sdc4.EVHints[code])
	}
	b.WriteString("\n" + bar + "\n-->\n")
	return b.String()
}

// typeHint describes what a user should enter for a field.
func typeHint(meta datamodel.FieldMeta) string {
	switch meta.Kind {
	case sdc4.KindString:
		return "string value (text)"
	case sdc4.KindBoolean:
		return "boolean value (true or false)"
	case sdc4.KindCount:
		return "integer value (whole number)"
	case sdc4.KindQuantity:
		return "decimal value (number with decimals)"
	case sdc4.KindFloat:
		return "float value (decimal number)"
	case sdc4.KindDouble:
		return "double value (high precision decimal)"
	case sdc4.KindLink:
		return "URI value (URL or URN)"
	case sdc4.KindFile:
		return "base64 encoded file content"
	case sdc4.KindOrdinal:
		return "ordinal value (integer for ranked items)"
	case sdc4.KindTemporal:
		return temporalHint(meta.TemporalSubtype())
	}
	return "value"
}

func temporalHint(subtype sdc4.TemporalSubtype) string {
	switch subtype {
	case sdc4.TemporalDate:
		return "date value (YYYY-MM-DD)"
	case sdc4.TemporalTime:
		return "time value (HH:MM:SS)"
	case sdc4.TemporalDateTime:
		return "datetime value (ISO 8601: YYYY-MM-DDTHH:MM:SS)"
	case sdc4.TemporalDuration:
		return "duration value (ISO 8601: PnYnMnDTnHnMnS)"
	case sdc4.TemporalDay:
		return "day value (---DD)"
	case sdc4.TemporalMonth:
		return "month value (--MM)"
	case sdc4.TemporalYear:
		return "year value (YYYY)"
	case sdc4.TemporalYearMonth:
		return "year-month value (YYYY-MM)"
	case sdc4.TemporalMonthDay:
		return "month-day value (--MM-DD)"
	}
	return "temporal value (ISO 8601)"
}
