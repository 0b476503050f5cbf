package template

import (
	"fmt"
	"strings"

	"github.com/c360studio/sdcpipeline/datamodel"
	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

// WriteSkeleton renders the canonical instance skeleton for a data
// model. The skeleton is generated once alongside the XSD and stored
// next to the model description; the builder consumes it verbatim.
//
// Every substitutable position carries a __PLACEHOLDER__ token:
// top-level metadata uses bare names (__PLACEHOLDER__instance_id),
// per-field positions suffix the component ct_id
// (__PLACEHOLDER__xdcount-value_ct2xyz). Each field additionally
// carries an <ev-placeholder ct_id="..."/> marker that the builder
// either replaces with an exceptional value element or strips.
func WriteSkeleton(model *datamodel.DataModel) string {
	var b strings.Builder

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<sdc4:dm-%s`+"\n", model.CTID)
	fmt.Fprintf(&b, `    xmlns:sdc4=%q`+"\n", sdc4.Namespace)
	fmt.Fprintf(&b, `    xmlns:xsi=%q`+"\n", sdc4.XSINamespace)
	fmt.Fprintf(&b, `    xsi:schemaLocation="%s %sdm-%s.xsd">`+"\n",
		sdc4.Namespace, sdc4.SchemaLocationBase, model.CTID)

	fmt.Fprintf(&b, "  <dm-label>%s</dm-label>\n", escapeText(model.Label))
	b.WriteString("  <dm-language>en-US</dm-language>\n")
	b.WriteString("  <dm-encoding>utf-8</dm-encoding>\n")

	for _, name := range []string{
		sdc4.ElemCreationTimestamp,
		sdc4.ElemInstanceID,
		sdc4.ElemInstanceVersion,
		sdc4.ElemCurrentState,
	} {
		fmt.Fprintf(&b, "  <%s>%s%s</%s>\n", name, sdc4.PlaceholderPrefix, name, name)
	}

	writeParty(&b, "subject")
	writeParty(&b, "provider")
	writeWorkflow(&b)
	fmt.Fprintf(&b, "  <!-- %sparticipations -->\n", sdc4.PlaceholderPrefix)

	fmt.Fprintf(&b, "  <sdc4:ms-%s>\n", model.ClusterCTID)
	fmt.Fprintf(&b, "    <label>%s</label>\n", escapeText(model.Label+" Data"))

	for _, ctID := range model.OrderedFields() {
		meta := model.Fields[ctID]
		indent := "    "
		if meta.AdapterCTID != "" {
			fmt.Fprintf(&b, "    <sdc4:ms-%s>\n", meta.AdapterCTID)
			indent = "      "
		}
		writeField(&b, indent, ctID, meta)
		if meta.AdapterCTID != "" {
			fmt.Fprintf(&b, "    </sdc4:ms-%s>\n", meta.AdapterCTID)
		}
	}

	fmt.Fprintf(&b, "  </sdc4:ms-%s>\n", model.ClusterCTID)
	fmt.Fprintf(&b, "</sdc4:dm-%s>\n", model.CTID)

	return b.String()
}

func writeField(b *strings.Builder, indent, ctID string, meta datamodel.FieldMeta) {
	fmt.Fprintf(b, "%s<sdc4:ms-%s>\n", indent, ctID)
	in := indent + "  "

	fmt.Fprintf(b, "%s<label>%s</label>\n", in, escapeText(meta.Label))

	if meta.AllowACT {
		writeLeaf(b, in, "act", ctID)
	}
	if meta.AllowVTB {
		writeLeaf(b, in, "vtb", ctID)
	}
	if meta.AllowVTE {
		writeLeaf(b, in, "vte", ctID)
	}
	if meta.AllowTR {
		writeLeaf(b, in, "tr", ctID)
	}
	if meta.AllowModified {
		writeLeaf(b, in, "modified", ctID)
	}
	if meta.AllowLocation {
		fmt.Fprintf(b, "%s<location>\n", in)
		writeLeaf(b, in+"  ", "latitude", ctID)
		writeLeaf(b, in+"  ", "longitude", ctID)
		fmt.Fprintf(b, "%s</location>\n", in)
	}

	valueElem := meta.ValueElement()
	fmt.Fprintf(b, "%s<%s>%s%s_%s</%s>\n",
		in, valueElem, sdc4.PlaceholderPrefix, valueElem, ctID, valueElem)

	if meta.Kind.Quantified() && meta.Units != nil {
		unitsElem := sdc4.UnitsElement(meta.Kind)
		fmt.Fprintf(b, "%s<%s>\n", in, unitsElem)
		writeLeaf(b, in+"  ", "label", meta.Units.CTID)
		writeLeaf(b, in+"  ", "xdstring-value", meta.Units.CTID)
		fmt.Fprintf(b, "%s</%s>\n", in, unitsElem)
	}

	fmt.Fprintf(b, "%s<%s %s=%q/>\n",
		in, sdc4.EVPlaceholderElement, sdc4.EVPlaceholderAttr, ctID)

	fmt.Fprintf(b, "%s</sdc4:ms-%s>\n", indent, ctID)
}

func writeLeaf(b *strings.Builder, indent, name, ctID string) {
	fmt.Fprintf(b, "%s<%s>%s%s_%s</%s>\n",
		indent, name, sdc4.PlaceholderPrefix, name, ctID, name)
}

func writeParty(b *strings.Builder, role string) {
	fmt.Fprintf(b, "  <%s>\n", role)
	for _, leaf := range []struct{ elem, token string }{
		{"label", role + "_name"},
		{"party-type", role + "_type"},
		{"party-id", role + "_id"},
		{"id-scheme", role + "_id_scheme"},
		{"external-ref", role + "_external_ref"},
	} {
		fmt.Fprintf(b, "    <%s>%s%s</%s>\n",
			leaf.elem, sdc4.PlaceholderPrefix, leaf.token, leaf.elem)
	}
	fmt.Fprintf(b, "  </%s>\n", role)
}

func writeWorkflow(b *strings.Builder) {
	b.WriteString("  <workflow>\n")
	b.WriteString("    <audit>\n")
	for _, leaf := range []struct{ elem, token string }{
		{"system-id", "audit_system"},
		{"time-committed", "audit_time_committed"},
		{"change-type", "audit_change_type"},
		{"description", "audit_description"},
		{"committer", "audit_committer"},
	} {
		fmt.Fprintf(b, "      <%s>%s%s</%s>\n",
			leaf.elem, sdc4.PlaceholderPrefix, leaf.token, leaf.elem)
	}
	b.WriteString("    </audit>\n")
	b.WriteString("    <attestation>\n")
	for _, leaf := range []struct{ elem, token string }{
		{"attested-view", "attestation_view"},
		{"proof", "attestation_proof"},
		{"reason", "attestation_reason"},
		{"is-pending", "attestation_pending"},
		{"attester", "attester_name"},
		{"time", "attestation_time"},
	} {
		fmt.Fprintf(b, "      <%s>%s%s</%s>\n",
			leaf.elem, sdc4.PlaceholderPrefix, leaf.token, leaf.elem)
	}
	b.WriteString("    </attestation>\n")
	b.WriteString("  </workflow>\n")
}

// escapeText escapes a string for use as XML element content.
func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
