// Package builder generates SDC4 XML instances from a pre-generated
// skeleton. Generation runs in two phases: a string phase substitutes
// placeholder tokens with caller data, then a tree phase inserts
// exceptional value elements, prunes optional elements whose
// placeholders were never filled, and strips comments. The skeleton
// keeps XSD sequence ordering correct without the builder knowing the
// schema.
package builder

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/c360studio/sdcpipeline/template"
	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

// NewInstanceID returns a fresh instance id of the form i-<uuid>.
func NewInstanceID() string {
	return "i-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// FieldInput is the caller-supplied data for one component.
type FieldInput struct {
	// Value is the field value. Nil or empty string leaves the
	// skeleton placeholder in place; the value element then survives
	// pruning empty so downstream validation can flag it.
	Value any

	// Units is the selected units symbol for quantified fields.
	Units string

	// EV is an exceptional value code. An EV coexists with a value:
	// codes like DER or INV qualify a value rather than replace it.
	EV sdc4.EVCode

	// Optional per-field metadata. Empty entries are pruned.
	ACT      string
	VTB      string
	VTE      string
	TR       string
	Modified string

	Latitude  *float64
	Longitude *float64
}

// Party identifies a subject or provider participant.
type Party struct {
	Name        string
	Type        string
	ID          string
	IDScheme    string
	ExternalRef string
}

// Participation records one additional participant.
type Participation struct {
	Name     string
	Function string
	Mode     string
	Time     string
	Ref      string
}

// Audit records who committed the instance and how.
type Audit struct {
	System        string
	TimeCommitted string
	ChangeType    string
	Description   string
	Committer     string
}

// Attestation records a formal sign-off on the instance.
type Attestation struct {
	View     string
	Proof    string
	Reason   string
	Pending  bool
	Attester string
	Time     string
}

// Request carries everything needed to build one instance.
type Request struct {
	// InstanceID is assigned when empty.
	InstanceID      string
	InstanceVersion string
	CurrentState    string

	// Fields is keyed by component ct_id.
	Fields map[string]FieldInput

	Subject        *Party
	Provider       *Party
	Participations []Participation
	Audit          *Audit
	Attestation    *Attestation
}

// Builder builds XML instances for one data model.
type Builder struct {
	tmpl   *template.Template
	logger *slog.Logger

	// Now and NewID are swappable for tests.
	Now   func() time.Time
	NewID func() string
}

// New creates a builder over a loaded template.
func New(tmpl *template.Template, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		tmpl:   tmpl,
		logger: logger,
		Now:    time.Now,
		NewID:  NewInstanceID,
	}
}

// Build generates the XML instance for a request. The returned string
// always carries an XML declaration. Field inputs whose ct_id is not
// in the model are logged and skipped, never silently dropped.
func (b *Builder) Build(req Request) (string, error) {
	model := b.tmpl.Model

	for ctID := range req.Fields {
		if _, ok := model.Field(ctID); !ok {
			b.logger.Warn("field input has no matching component, skipping",
				"ct_id", ctID,
				"dm_ct_id", model.CTID)
		}
	}

	instanceID := req.InstanceID
	if instanceID == "" {
		instanceID = b.NewID()
	}

	out := b.tmpl.Skeleton
	out = b.replaceMetadata(out, instanceID, req)
	out = b.replaceContext(out, req)
	out = b.replaceReview(out, req.Attestation, req.Audit)
	out = b.replaceFields(out, req.Fields)

	evMap := make(map[string]sdc4.EVCode)
	for ctID, input := range req.Fields {
		if input.EV == "" {
			continue
		}
		if !sdc4.IsEVCode(string(input.EV)) {
			b.logger.Warn("unknown exceptional value code, skipping",
				"ct_id", ctID,
				"ev", string(input.EV))
			continue
		}
		if _, ok := model.Field(ctID); ok {
			evMap[ctID] = input.EV
		}
	}

	return b.finalize(out, instanceID, evMap), nil
}

func (b *Builder) timestamp() string {
	return b.Now().UTC().Format("2006-01-02T15:04:05")
}

func (b *Builder) replaceMetadata(out, instanceID string, req Request) string {
	out = strings.ReplaceAll(out,
		sdc4.PlaceholderPrefix+sdc4.ElemCreationTimestamp, b.timestamp())
	out = strings.ReplaceAll(out,
		sdc4.PlaceholderPrefix+sdc4.ElemInstanceID, EscapeXML(instanceID))
	if req.InstanceVersion != "" {
		out = strings.ReplaceAll(out,
			sdc4.PlaceholderPrefix+sdc4.ElemInstanceVersion, EscapeXML(req.InstanceVersion))
	}
	if req.CurrentState != "" {
		out = strings.ReplaceAll(out,
			sdc4.PlaceholderPrefix+sdc4.ElemCurrentState, EscapeXML(req.CurrentState))
	}
	return out
}

func (b *Builder) replaceContext(out string, req Request) string {
	out = replaceParty(out, "subject", req.Subject)
	out = replaceParty(out, "provider", req.Provider)

	if len(req.Participations) > 0 {
		marker := fmt.Sprintf("<!-- %sparticipations -->", sdc4.PlaceholderPrefix)
		out = strings.Replace(out, marker, renderParticipations(req.Participations), 1)
	}
	return out
}

func replaceParty(out, role string, p *Party) string {
	if p == nil {
		return out
	}
	for token, value := range map[string]string{
		role + "_name":         p.Name,
		role + "_type":         p.Type,
		role + "_id":           p.ID,
		role + "_id_scheme":    p.IDScheme,
		role + "_external_ref": p.ExternalRef,
	} {
		if value != "" {
			out = strings.ReplaceAll(out, sdc4.PlaceholderPrefix+token, EscapeXML(value))
		}
	}
	return out
}

func renderParticipations(parts []Participation) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("  <Participation>\n")
		b.WriteString("    <performer>\n")
		fmt.Fprintf(&b, "      <label>%s</label>\n", EscapeXML(p.Name))
		if p.Ref != "" {
			b.WriteString("      <external-ref>\n")
			fmt.Fprintf(&b, "        <xdlink-value>%s</xdlink-value>\n", EscapeXML(p.Ref))
			b.WriteString("      </external-ref>\n")
		}
		b.WriteString("    </performer>\n")
		if p.Function != "" {
			fmt.Fprintf(&b, "    <function>%s</function>\n", EscapeXML(p.Function))
		}
		if p.Mode != "" {
			fmt.Fprintf(&b, "    <mode>%s</mode>\n", EscapeXML(p.Mode))
		}
		if p.Time != "" {
			fmt.Fprintf(&b, "    <time>%s</time>\n", EscapeXML(p.Time))
		}
		b.WriteString("  </Participation>")
	}
	return b.String()
}

func (b *Builder) replaceReview(out string, att *Attestation, audit *Audit) string {
	if audit != nil {
		for token, value := range map[string]string{
			"audit_system":      audit.System,
			"audit_change_type": audit.ChangeType,
			"audit_description": audit.Description,
			"audit_committer":   audit.Committer,
		} {
			if value != "" {
				out = strings.ReplaceAll(out, sdc4.PlaceholderPrefix+token, EscapeXML(value))
			}
		}
		committed := audit.TimeCommitted
		if committed == "" && audit.System != "" {
			committed = b.timestamp()
		}
		if committed != "" {
			out = strings.ReplaceAll(out,
				sdc4.PlaceholderPrefix+"audit_time_committed", EscapeXML(committed))
		}
	}

	if att != nil {
		for token, value := range map[string]string{
			"attestation_view":   att.View,
			"attestation_proof":  att.Proof,
			"attestation_reason": att.Reason,
			"attester_name":      att.Attester,
		} {
			if value != "" {
				out = strings.ReplaceAll(out, sdc4.PlaceholderPrefix+token, EscapeXML(value))
			}
		}
		pending := "false"
		if att.Pending {
			pending = "true"
		}
		out = strings.ReplaceAll(out, sdc4.PlaceholderPrefix+"attestation_pending", pending)

		when := att.Time
		if when == "" && att.Attester != "" {
			when = b.timestamp()
		}
		if when != "" {
			out = strings.ReplaceAll(out,
				sdc4.PlaceholderPrefix+"attestation_time", EscapeXML(when))
		}
	}
	return out
}

func (b *Builder) replaceFields(out string, fields map[string]FieldInput) string {
	model := b.tmpl.Model
	for _, ctID := range model.OrderedFields() {
		input, ok := fields[ctID]
		if !ok {
			continue
		}
		meta := model.Fields[ctID]

		if input.Value != nil && input.Value != "" {
			token := fmt.Sprintf("%s%s_%s", sdc4.PlaceholderPrefix, meta.ValueElement(), ctID)
			out = strings.ReplaceAll(out, token, FormatValue(meta, input.Value))
		}

		for token, value := range map[string]string{
			"act_" + ctID:      input.ACT,
			"vtb_" + ctID:      input.VTB,
			"vte_" + ctID:      input.VTE,
			"tr_" + ctID:       input.TR,
			"modified_" + ctID: input.Modified,
		} {
			if value != "" {
				out = strings.ReplaceAll(out, sdc4.PlaceholderPrefix+token, EscapeXML(value))
			}
		}
		if input.Latitude != nil {
			out = strings.ReplaceAll(out,
				sdc4.PlaceholderPrefix+"latitude_"+ctID,
				strconv.FormatFloat(*input.Latitude, 'f', -1, 64))
		}
		if input.Longitude != nil {
			out = strings.ReplaceAll(out,
				sdc4.PlaceholderPrefix+"longitude_"+ctID,
				strconv.FormatFloat(*input.Longitude, 'f', -1, 64))
		}

		if input.Units != "" && meta.Units != nil && meta.Units.CTID != "" {
			out = strings.ReplaceAll(out,
				fmt.Sprintf("%slabel_%s", sdc4.PlaceholderPrefix, meta.Units.CTID),
				EscapeXML(meta.Units.Label))
			out = strings.ReplaceAll(out,
				fmt.Sprintf("%sxdstring-value_%s", sdc4.PlaceholderPrefix, meta.Units.CTID),
				EscapeXML(input.Units))
		}
	}
	return out
}

// finalize runs the tree phase: EV insertion, pruning, container
// removal, and comment stripping. When the intermediate document does
// not parse, a degraded line-based prune keeps the pipeline moving and
// leaves the rest to schema validation.
func (b *Builder) finalize(content, instanceID string, evMap map[string]sdc4.EVCode) string {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(content); err != nil {
		b.logger.Warn("intermediate document failed to parse, using degraded prune",
			"instance_id", instanceID,
			"error", err)
		return stringPrune(content)
	}

	root := doc.Root()
	if root == nil {
		b.logger.Warn("intermediate document has no root, using degraded prune",
			"instance_id", instanceID)
		return stringPrune(content)
	}

	processEVPlaceholders(root, evMap)
	pruneUnfilledUnits(root)
	pruneTree(b, root)
	pruneEmptyLocations(root)
	pruneEmptyContainers(root)
	stripComments(root)

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		b.logger.Warn("serializing pruned document failed, using degraded prune",
			"instance_id", instanceID,
			"error", err)
		return stringPrune(content)
	}
	if !strings.HasPrefix(out, "<?xml") {
		out = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" + out
	}
	return out
}

// processEVPlaceholders swaps each ev-placeholder for its exceptional
// value element, or drops it when no EV was selected. The value
// element stays in place either way.
func processEVPlaceholders(root *etree.Element, evMap map[string]sdc4.EVCode) {
	for _, ph := range root.FindElements("//" + sdc4.EVPlaceholderElement) {
		parent := ph.Parent()
		if parent == nil {
			continue
		}
		ctID := ph.SelectAttrValue(sdc4.EVPlaceholderAttr, "")
		code, ok := evMap[ctID]
		if !ok {
			parent.RemoveChild(ph)
			continue
		}

		idx := ph.Index()
		parent.RemoveChild(ph)

		ev := etree.NewElement("sdc4:" + string(code))
		ev.CreateElement("ev-name").SetText(sdc4.EVName(code))
		parent.InsertChildAt(idx, ev)
	}
}

// pruneUnfilledUnits removes units wrappers whose value was never
// selected. A wrapper with a placeholder-bearing xdstring-value would
// otherwise survive pruning as an element the schema rejects.
func pruneUnfilledUnits(root *etree.Element) {
	for _, name := range sdc4.AllUnitsElements() {
		for _, wrapper := range root.FindElements("//" + name) {
			value := wrapper.SelectElement("xdstring-value")
			if value == nil || strings.Contains(value.Text(), sdc4.PlaceholderPrefix) {
				if parent := wrapper.Parent(); parent != nil {
					parent.RemoveChild(wrapper)
				}
			}
		}
	}
}

// pruneTree removes optional leaf elements whose placeholder was never
// substituted and backfills defaults for required metadata elements.
func pruneTree(b *Builder, root *etree.Element) {
	var toRemove []*etree.Element

	var visit func(el *etree.Element)
	visit = func(el *etree.Element) {
		if text := el.Text(); strings.Contains(text, sdc4.PlaceholderPrefix) {
			switch {
			case el.Tag == sdc4.ElemCreationTimestamp:
				el.SetText(b.timestamp())
			case el.Tag == sdc4.ElemInstanceID:
				el.SetText(b.NewID())
			case el.Tag == sdc4.ElemInstanceVersion:
				el.SetText("1.0")
			case el.Tag == sdc4.ElemCurrentState:
				el.SetText("")
			case sdc4.IsOptionalLeaf(el.Tag) || el.Tag == "label":
				toRemove = append(toRemove, el)
				return
			}
		}
		for _, child := range el.ChildElements() {
			visit(child)
		}
	}
	visit(root)

	for _, el := range toRemove {
		if parent := el.Parent(); parent != nil {
			parent.RemoveChild(el)
		}
	}
}

// pruneEmptyLocations drops location wrappers left childless after
// leaf pruning.
func pruneEmptyLocations(root *etree.Element) {
	for _, loc := range root.FindElements("//location") {
		if len(loc.ChildElements()) == 0 && strings.TrimSpace(loc.Text()) == "" {
			if parent := loc.Parent(); parent != nil {
				parent.RemoveChild(loc)
			}
		}
	}
}

// pruneEmptyContainers removes the optional top-level containers when
// nothing under them carries real data.
func pruneEmptyContainers(root *etree.Element) {
	for _, child := range root.ChildElements() {
		if sdc4.IsOptionalContainer(child.Tag) && isEmptySubtree(child) {
			root.RemoveChild(child)
		}
	}
}

// isEmptySubtree reports whether an element holds only whitespace,
// placeholders, and similarly empty children.
func isEmptySubtree(el *etree.Element) bool {
	text := strings.TrimSpace(el.Text())
	if text != "" && !strings.Contains(text, sdc4.PlaceholderPrefix) {
		return false
	}
	for _, child := range el.ChildElements() {
		if !isEmptySubtree(child) {
			return false
		}
	}
	return true
}

// stripComments removes every comment node from the tree.
func stripComments(root *etree.Element) {
	var visit func(el *etree.Element)
	visit = func(el *etree.Element) {
		var comments []etree.Token
		for _, tok := range el.Child {
			if _, ok := tok.(*etree.Comment); ok {
				comments = append(comments, tok)
			}
		}
		for _, tok := range comments {
			el.RemoveChild(tok)
		}
		for _, child := range el.ChildElements() {
			visit(child)
		}
	}
	visit(root)
}

// stringPrune is the degraded fallback when the tree phase cannot
// parse the intermediate document. It drops whole lines holding an
// unreplaced placeholder inside an optional leaf element, plus any
// comment lines still carrying placeholders.
func stringPrune(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		// ev-placeholder markers carry no placeholder prefix but are
		// never schema-valid, so the degraded path drops them too.
		if strings.Contains(line, "<"+sdc4.EVPlaceholderElement) {
			continue
		}
		if strings.Contains(line, sdc4.PlaceholderPrefix) {
			if strings.Contains(line, "<!--") {
				continue
			}
			dropped := false
			for _, name := range sdc4.OptionalLeaves() {
				if strings.Contains(line, "<"+name+">") && strings.Contains(line, "</"+name+">") {
					dropped = true
					break
				}
			}
			if dropped {
				continue
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
